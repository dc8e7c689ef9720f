package ledger

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"applicant-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func sampleOutcome() *models.ScoringOutcome {
	return &models.ScoringOutcome{
		RunID:             "5f1c7f0e-8d2b-4b8e-9c55-0b7c3d6c2a11",
		TenantID:          "tenant-1",
		ApplicantID:       "a1",
		Score:             12,
		ManualScore:       5,
		AIScoreTotal:      7,
		Threshold:         10,
		Status:            "Interview",
		AIQuestionsScored: 1,
		Contact:           models.ContactFields{Email: "jane@example.com"},
		ProcessedAt:       time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestLedger_Record(t *testing.T) {
	l, mock := newMockLedger(t)
	o := sampleOutcome()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applicant_scoring_runs")).
		WithArgs(o.RunID, "tenant-1", "a1", 12, 5, 7.0, 10, "Interview", 1, 0, `{"email":"jane@example.com"}`, o.ProcessedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, l.Record(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_RecordError(t *testing.T) {
	l, mock := newMockLedger(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applicant_scoring_runs")).
		WillReturnError(errors.New("relation does not exist"))

	err := l.Record(context.Background(), sampleOutcome())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert scoring run")
}

func TestLedger_EnsureSchema(t *testing.T) {
	l, mock := newMockLedger(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS applicant_scoring_runs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, l.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Find(t *testing.T) {
	l, mock := newMockLedger(t)
	o := sampleOutcome()

	rows := sqlmock.NewRows([]string{
		"run_id", "score", "manual_score", "ai_score_total", "threshold", "status",
		"ai_questions_scored", "ai_questions_failed", "processed_at",
	}).AddRow(o.RunID, 12, 5, 7.0, 10, "Interview", 1, 0, o.ProcessedAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM applicant_scoring_runs")).
		WithArgs("tenant-1", "a1").
		WillReturnRows(rows)

	got, err := l.Find(context.Background(), "tenant-1", "a1")

	require.NoError(t, err)
	assert.Equal(t, 12, got.Score)
	assert.Equal(t, "Interview", got.Status)
	assert.Equal(t, o.ProcessedAt, got.ProcessedAt)
}

func TestLedger_FindMissing(t *testing.T) {
	l, mock := newMockLedger(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM applicant_scoring_runs")).
		WithArgs("tenant-1", "a2").
		WillReturnError(sql.ErrNoRows)

	got, err := l.Find(context.Background(), "tenant-1", "a2")

	require.NoError(t, err)
	assert.Nil(t, got)
}
