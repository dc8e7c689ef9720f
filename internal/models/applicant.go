package models

import "time"

const StatusNew = "New"

// Applicant is one questionnaire submission. Answers are keyed by question id
// and shaped by the question type.
type Applicant struct {
	ID          string                 `json:"id,omitempty" bson:"-"`
	TenantID    string                 `json:"tenantId,omitempty" bson:"tenantId,omitempty"`
	Answers     map[string]interface{} `json:"answers" bson:"answers"`
	Status      string                 `json:"status,omitempty" bson:"status,omitempty"`
	Score       int                    `json:"score" bson:"score"`
	ManualScore int                    `json:"manualScore" bson:"manualScore"`
	AIAnalysis  map[string]AIAnalysis  `json:"aiAnalysis,omitempty" bson:"aiAnalysis,omitempty"`
	Name        string                 `json:"name,omitempty" bson:"name,omitempty"`
	Email       string                 `json:"email,omitempty" bson:"email,omitempty"`
	Phone       string                 `json:"phone,omitempty" bson:"phone,omitempty"`
	SubmittedAt *time.Time             `json:"submittedAt,omitempty" bson:"submittedAt,omitempty"`
	ProcessedAt *time.Time             `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
}

// Processed reports whether scoring already ran for this applicant.
func (a *Applicant) Processed() bool {
	return a.ProcessedAt != nil && !a.ProcessedAt.IsZero()
}

// AIAnalysis is the oracle's per-trait result for one free-text question.
// TraitScores keeps values as returned so non-numeric entries stay visible.
type AIAnalysis struct {
	TraitScores map[string]interface{} `json:"trait_scores" bson:"trait_scores"`
	Analysis    map[string]string      `json:"analysis" bson:"analysis"`
}

// ContactFields are the profile fields lifted from short-text answers.
type ContactFields struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ScoreUpdate is the single write applied to an applicant at the end of a run.
type ScoreUpdate struct {
	Score       int
	ManualScore int
	AIAnalysis  map[string]AIAnalysis
	Status      string
	ProcessedAt time.Time
	Contact     ContactFields
}

// Fields lists exactly the document fields the update touches. Contact fields
// are only included when found.
func (u ScoreUpdate) Fields() map[string]interface{} {
	analysis := u.AIAnalysis
	if analysis == nil {
		analysis = map[string]AIAnalysis{}
	}
	fields := map[string]interface{}{
		"score":       u.Score,
		"manualScore": u.ManualScore,
		"aiAnalysis":  analysis,
		"status":      u.Status,
		"processedAt": u.ProcessedAt,
	}
	if u.Contact.Name != "" {
		fields["name"] = u.Contact.Name
	}
	if u.Contact.Email != "" {
		fields["email"] = u.Contact.Email
	}
	if u.Contact.Phone != "" {
		fields["phone"] = u.Contact.Phone
	}
	return fields
}

// ScoringOutcome summarizes a completed run for the audit, search and event sinks.
type ScoringOutcome struct {
	RunID             string        `json:"runId"`
	TenantID          string        `json:"tenantId"`
	ApplicantID       string        `json:"applicantId"`
	Score             int           `json:"score"`
	ManualScore       int           `json:"manualScore"`
	AIScoreTotal      float64       `json:"aiScoreTotal"`
	Threshold         int           `json:"threshold"`
	Status            string        `json:"status"`
	AIQuestionsScored int           `json:"aiQuestionsScored"`
	AIQuestionsFailed int           `json:"aiQuestionsFailed"`
	Contact           ContactFields `json:"contact"`
	ProcessedAt       time.Time     `json:"processedAt"`
}
