package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestVertexOracle_Score(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"trait_scores\":{\"A\":9,\"B\":6,\"C\":3},\"analysis\":{\"A\":\"strong\"}}\n```"}
	o := newVertexOracleWithGenerator(gen)

	result, err := o.Score(context.Background(), Request{
		RubricTraits:      []string{"A", "B", "C"},
		AnswerText:        "answer",
		MaxPointsPerTrait: 10,
	})

	require.NoError(t, err)
	assert.Len(t, result.TraitScores, 3)
	assert.Equal(t, "strong", result.Analysis["A"])
	assert.Contains(t, gen.prompt, "A, B, C")
	assert.NoError(t, o.Close())
}

func TestVertexOracle_GenerateError(t *testing.T) {
	o := newVertexOracleWithGenerator(&fakeGenerator{err: errors.New("quota exceeded")})

	_, err := o.Score(context.Background(), Request{RubricTraits: []string{"A"}, AnswerText: "x", MaxPointsPerTrait: 5})

	assert.ErrorIs(t, err, ErrCallFailed)
}

func TestVertexOracle_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := newVertexOracleWithGenerator(&fakeGenerator{err: context.Canceled})

	_, err := o.Score(ctx, Request{RubricTraits: []string{"A"}, AnswerText: "x", MaxPointsPerTrait: 5})

	assert.ErrorIs(t, err, ErrTimeout)
}
