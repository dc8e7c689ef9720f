package oracle

import (
	"context"
	"fmt"
	"strings"

	"applicant-workers/internal/models"

	"cloud.google.com/go/vertexai/genai"
)

// VertexConfig selects the Gemini model on Vertex AI.
type VertexConfig struct {
	Project     string
	Location    string
	Model       string
	Temperature float32
}

// generator is the slice of the Gemini API the oracle needs.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VertexOracle prompts Gemini directly and parses its JSON reply.
type VertexOracle struct {
	gen    generator
	closer func() error
}

func NewVertexOracle(ctx context.Context, cfg VertexConfig) (*VertexOracle, error) {
	client, err := genai.NewClient(ctx, cfg.Project, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex ai client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetCandidateCount(1)
	model.ResponseMIMEType = "application/json"

	return &VertexOracle{gen: geminiGenerator{model: model}, closer: client.Close}, nil
}

func newVertexOracleWithGenerator(gen generator) *VertexOracle {
	return &VertexOracle{gen: gen}
}

func (o *VertexOracle) Score(ctx context.Context, req Request) (*models.AIAnalysis, error) {
	text, err := o.gen.Generate(ctx, BuildPrompt(req))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrCallFailed, err)
	}
	return ParseResponse(text)
}

func (o *VertexOracle) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer()
}

type geminiGenerator struct {
	model *genai.GenerativeModel
}

func (g geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}
