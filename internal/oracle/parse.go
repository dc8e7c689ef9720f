package oracle

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"applicant-workers/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

var responseSchema = mustSchema(`{
	"type": "object",
	"properties": {
		"trait_scores": {"type": "object"},
		"analysis": {"type": "object"},
		"text": {"type": "string"}
	}
}`)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(err)
	}
	return schema
}

// ParseResponse turns raw model output into an AIAnalysis. Markdown code
// fences and any prose around the JSON object are dropped. A response without
// trait_scores is read as a flat trait -> score map. A {"text": "..."}
// envelope is unwrapped once.
func ParseResponse(raw string) (*models.AIAnalysis, error) {
	return parse(raw, true)
}

func parse(raw string, unwrap bool) (*models.AIAnalysis, error) {
	body := extractJSONObject(stripCodeFence(raw))
	if body == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrInvalidResponse)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	result, err := responseSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, strings.Join(msgs, "; "))
	}

	if text, ok := doc["text"].(string); ok && unwrap && doc["trait_scores"] == nil {
		return parse(text, false)
	}

	analysis := &models.AIAnalysis{
		TraitScores: map[string]interface{}{},
		Analysis:    map[string]string{},
	}

	if scores, ok := doc["trait_scores"].(map[string]interface{}); ok {
		analysis.TraitScores = scores
	} else {
		for k, v := range doc {
			if k == "analysis" {
				continue
			}
			if isNumeric(v) {
				analysis.TraitScores[k] = v
			}
		}
		if len(analysis.TraitScores) == 0 {
			return nil, fmt.Errorf("%w: response has no trait scores", ErrInvalidResponse)
		}
	}

	if notes, ok := doc["analysis"].(map[string]interface{}); ok {
		for k, v := range notes {
			if s, ok := v.(string); ok {
				analysis.Analysis[k] = s
			} else if v != nil {
				analysis.Analysis[k] = fmt.Sprint(v)
			}
		}
	}
	return analysis, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func isNumeric(v interface{}) bool {
	switch t := v.(type) {
	case float64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return err == nil
	}
	return false
}
