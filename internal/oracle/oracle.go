// Package oracle scores free-text answers against a rubric using a remote
// language model.
package oracle

import (
	"context"
	"errors"

	"applicant-workers/internal/models"
)

var (
	ErrTimeout         = errors.New("ORACLE_TIMEOUT")
	ErrCallFailed      = errors.New("ORACLE_CALL_FAILED")
	ErrInvalidResponse = errors.New("ORACLE_RESPONSE_INVALID")
)

// Request is the scoring call contract.
type Request struct {
	RubricTraits      []string `json:"rubricTraits"`
	AnswerText        string   `json:"answerText"`
	MaxPointsPerTrait int      `json:"maxPointsPerTrait"`
}

// Oracle scores one answer. Implementations must honour ctx cancellation.
type Oracle interface {
	Score(ctx context.Context, req Request) (*models.AIAnalysis, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, req Request) (*models.AIAnalysis, error)

func (f Func) Score(ctx context.Context, req Request) (*models.AIAnalysis, error) {
	return f(ctx, req)
}
