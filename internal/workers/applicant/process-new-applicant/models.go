package processnewapplicant

import (
	"math"

	"applicant-workers/internal/models"
)

const (
	SkipAlreadyProcessed = "ALREADY_PROCESSED"
	SkipInProgress       = "IN_PROGRESS"
)

// Input is the job payload. Applicant carries the document body when the
// trigger already has it; otherwise the applicant is read by id.
type Input struct {
	TenantID    string            `json:"tenantId"`
	ApplicantID string            `json:"applicantId"`
	Applicant   *models.Applicant `json:"applicant,omitempty"`
}

type Output struct {
	Score             int     `json:"score"`
	ManualScore       int     `json:"manualScore"`
	AIScoreTotal      float64 `json:"aiScoreTotal"`
	Status            string  `json:"status"`
	AIQuestionsScored int     `json:"aiQuestionsScored"`
	AIQuestionsFailed int     `json:"aiQuestionsFailed"`
	Skipped           bool    `json:"skipped"`
	SkipReason        string  `json:"skipReason,omitempty"`
}

// Variables is the job completion payload.
func (o *Output) Variables() map[string]interface{} {
	vars := map[string]interface{}{
		"score":             o.Score,
		"manualScore":       o.ManualScore,
		"aiScoreTotal":      round2(o.AIScoreTotal),
		"status":            o.Status,
		"aiQuestionsScored": o.AIQuestionsScored,
		"aiQuestionsFailed": o.AIQuestionsFailed,
		"skipped":           o.Skipped,
	}
	if o.SkipReason != "" {
		vars["skipReason"] = o.SkipReason
	}
	return vars
}

func skipped(reason string, a *models.Applicant) *Output {
	out := &Output{Skipped: true, SkipReason: reason}
	if a != nil {
		out.Score = a.Score
		out.ManualScore = a.ManualScore
		out.Status = a.Status
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
