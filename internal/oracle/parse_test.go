package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantScores   map[string]interface{}
		wantAnalysis map[string]string
	}{
		{
			name:         "plain object",
			raw:          `{"trait_scores":{"Teamwork":8,"Initiative":6},"analysis":{"Teamwork":"helped a peer"}}`,
			wantScores:   map[string]interface{}{"Teamwork": float64(8), "Initiative": float64(6)},
			wantAnalysis: map[string]string{"Teamwork": "helped a peer"},
		},
		{
			name:         "json code fence",
			raw:          "```json\n{\"trait_scores\":{\"A\":9},\"analysis\":{\"A\":\"ok\"}}\n```",
			wantScores:   map[string]interface{}{"A": float64(9)},
			wantAnalysis: map[string]string{"A": "ok"},
		},
		{
			name:         "bare fence with surrounding prose",
			raw:          "Here you go:\n```\n{\"trait_scores\":{\"A\":3}}\n```\nThanks",
			wantScores:   map[string]interface{}{"A": float64(3)},
			wantAnalysis: map[string]string{},
		},
		{
			name:         "flat score map",
			raw:          `{"Teamwork": 7, "Initiative": "5", "analysis": {"Teamwork": "good"}}`,
			wantScores:   map[string]interface{}{"Teamwork": float64(7), "Initiative": "5"},
			wantAnalysis: map[string]string{"Teamwork": "good"},
		},
		{
			name:         "non-numeric score is kept",
			raw:          `{"trait_scores":{"A":"high","B":4}}`,
			wantScores:   map[string]interface{}{"A": "high", "B": float64(4)},
			wantAnalysis: map[string]string{},
		},
		{
			name:         "text envelope",
			raw:          `{"text":"` + "```json\\n{\\\"trait_scores\\\":{\\\"A\\\":2}}\\n```" + `"}`,
			wantScores:   map[string]interface{}{"A": float64(2)},
			wantAnalysis: map[string]string{},
		},
		{
			name:         "non-string analysis is stringified",
			raw:          `{"trait_scores":{"A":1},"analysis":{"A":42}}`,
			wantScores:   map[string]interface{}{"A": float64(1)},
			wantAnalysis: map[string]string{"A": "42"},
		},
		{
			name:         "empty trait scores",
			raw:          `{"trait_scores":{},"analysis":{}}`,
			wantScores:   map[string]interface{}{},
			wantAnalysis: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScores, got.TraitScores)
			assert.Equal(t, tt.wantAnalysis, got.Analysis)
		})
	}
}

func TestParseResponse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose only", "I cannot score this answer."},
		{"broken json", `{"trait_scores": {"A": 1}`},
		{"trait_scores is an array", `{"trait_scores": [1, 2]}`},
		{"analysis is a string", `{"trait_scores": {"A": 1}, "analysis": "fine"}`},
		{"no scores at all", `{"analysis": {"A": "fine"}, "note": "none"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(Request{
		RubricTraits:      []string{"Teamwork", "Initiative"},
		AnswerText:        "I helped my teammate ship the release.",
		MaxPointsPerTrait: 10,
	})

	assert.Contains(t, prompt, "0 to 10")
	assert.Contains(t, prompt, "Teamwork, Initiative")
	assert.Contains(t, prompt, "I helped my teammate ship the release.")
	assert.Contains(t, prompt, `"trait_scores"`)
}
