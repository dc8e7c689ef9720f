package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	commonhttp "applicant-workers/internal/common/http"
	"applicant-workers/internal/common/logger"
	"applicant-workers/internal/models"
)

// GenAIConfig configures the HTTP scoring gateway.
type GenAIConfig struct {
	BaseURL     string
	Path        string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
	BaseBackoff time.Duration
}

// GenAIOracle posts the scoring contract to an internal GenAI gateway.
type GenAIOracle struct {
	client   *commonhttp.Client
	endpoint string
	config   GenAIConfig
	logger   logger.Logger
}

type genAIRequest struct {
	Request
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

func NewGenAIOracle(cfg GenAIConfig, log logger.Logger) *GenAIOracle {
	if cfg.Path == "" {
		cfg.Path = "/api/ai/score"
	}
	if cfg.BaseBackoff == 0 {
		cfg.BaseBackoff = 200 * time.Millisecond
	}
	client := commonhttp.NewClient(cfg.Timeout)
	if cfg.APIKey != "" {
		client.WithHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &GenAIOracle{
		client:   client,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + cfg.Path,
		config:   cfg,
		logger:   log.WithFields(map[string]interface{}{"oracle": "genai"}),
	}
}

func (o *GenAIOracle) Score(ctx context.Context, req Request) (*models.AIAnalysis, error) {
	body := genAIRequest{
		Request:     req,
		Prompt:      BuildPrompt(req),
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := o.config.BaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrTimeout
			}
		}

		data, err := o.client.PostJSON(ctx, o.endpoint, body)
		if err == nil {
			return ParseResponse(string(data))
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ErrTimeout
		}
		var statusErr *commonhttp.StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			break
		}
		o.logger.Debug("scoring gateway call failed, retrying", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}
	return nil, fmt.Errorf("%w: %v", ErrCallFailed, lastErr)
}
