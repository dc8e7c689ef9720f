// Package ledger keeps an append-only audit row per scoring run in PostgreSQL.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"applicant-workers/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS applicant_scoring_runs (
	run_id              UUID PRIMARY KEY,
	tenant_id           TEXT NOT NULL,
	applicant_id        TEXT NOT NULL,
	score               INTEGER NOT NULL,
	manual_score        INTEGER NOT NULL,
	ai_score_total      DOUBLE PRECISION NOT NULL,
	threshold           INTEGER NOT NULL,
	status              TEXT NOT NULL,
	ai_questions_scored INTEGER NOT NULL,
	ai_questions_failed INTEGER NOT NULL,
	contact             JSONB NOT NULL DEFAULT '{}'::jsonb,
	processed_at        TIMESTAMPTZ NOT NULL,
	UNIQUE (tenant_id, applicant_id)
)`

const insertRun = `
INSERT INTO applicant_scoring_runs (
	run_id, tenant_id, applicant_id, score, manual_score, ai_score_total,
	threshold, status, ai_questions_scored, ai_questions_failed, contact, processed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (tenant_id, applicant_id) DO NOTHING`

const selectRun = `
SELECT run_id, score, manual_score, ai_score_total, threshold, status,
	ai_questions_scored, ai_questions_failed, processed_at
FROM applicant_scoring_runs
WHERE tenant_id = $1 AND applicant_id = $2`

type Ledger struct {
	db *sql.DB
}

func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Name() string { return "ledger" }

// EnsureSchema creates the runs table if it does not exist.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	return nil
}

// Record inserts the run. A second run for the same applicant is ignored.
func (l *Ledger) Record(ctx context.Context, o *models.ScoringOutcome) error {
	contact, err := json.Marshal(o.Contact)
	if err != nil {
		return fmt.Errorf("marshal contact: %w", err)
	}

	_, err = l.db.ExecContext(ctx, insertRun,
		o.RunID, o.TenantID, o.ApplicantID, o.Score, o.ManualScore, o.AIScoreTotal,
		o.Threshold, o.Status, o.AIQuestionsScored, o.AIQuestionsFailed, string(contact), o.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scoring run: %w", err)
	}
	return nil
}

// Find returns the recorded run of an applicant, or nil when there is none.
func (l *Ledger) Find(ctx context.Context, tenantID, applicantID string) (*models.ScoringOutcome, error) {
	o := models.ScoringOutcome{TenantID: tenantID, ApplicantID: applicantID}
	err := l.db.QueryRowContext(ctx, selectRun, tenantID, applicantID).Scan(
		&o.RunID, &o.Score, &o.ManualScore, &o.AIScoreTotal, &o.Threshold, &o.Status,
		&o.AIQuestionsScored, &o.AIQuestionsFailed, &o.ProcessedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select scoring run: %w", err)
	}
	return &o, nil
}
