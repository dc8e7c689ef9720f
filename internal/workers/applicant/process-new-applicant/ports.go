package processnewapplicant

import (
	"context"

	"applicant-workers/internal/models"
	"applicant-workers/internal/store"
)

type ApplicantStore interface {
	Get(ctx context.Context, tenantID, applicantID string) (*models.Applicant, error)
	ApplyScore(ctx context.Context, tenantID, applicantID string, update models.ScoreUpdate) error
}

type QuestionSource interface {
	Questions(ctx context.Context, tenantID string) ([]models.Question, error)
}

// ThresholdSource returns nil when the tenant has no threshold configured.
type ThresholdSource interface {
	ScoreThreshold(ctx context.Context, tenantID string) (*int, error)
}

type Locker interface {
	Acquire(ctx context.Context, tenantID, applicantID string) (*store.Lock, error)
}

// ResultSink receives every persisted outcome. Sink errors never fail a run.
type ResultSink interface {
	Name() string
	Record(ctx context.Context, outcome *models.ScoringOutcome) error
}
