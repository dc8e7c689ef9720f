package models

import "strings"

// QuestionType is the closed tag set of questionnaire items.
type QuestionType string

const (
	QuestionShortText      QuestionType = "short-text"
	QuestionLongTextAI     QuestionType = "long-text-ai"
	QuestionRadio          QuestionType = "radio"
	QuestionCheckboxGroup  QuestionType = "checkbox-group"
	QuestionDescription    QuestionType = "description"
	QuestionMatrix         QuestionType = "matrix"
	QuestionSignatureBlock QuestionType = "signature-block"
	QuestionFileUpload     QuestionType = "file-upload"
)

// Option is a point-weighted choice of a radio or checkbox-group question.
// Points may be zero or negative.
type Option struct {
	Value  string `json:"value" bson:"value"`
	Points int    `json:"points" bson:"points"`
}

// Question is one tenant-owned questionnaire record. Its ID joins the schema
// to an applicant's answers.
type Question struct {
	ID        string       `json:"id" bson:"_id"`
	TenantID  string       `json:"tenantId,omitempty" bson:"tenantId,omitempty"`
	SectionID string       `json:"sectionId,omitempty" bson:"sectionId,omitempty"`
	Type      QuestionType `json:"type" bson:"type"`
	Order     int          `json:"order" bson:"order"`
	Required  bool         `json:"required,omitempty" bson:"required,omitempty"`

	// Builders have written the prompt under both names.
	Question     string `json:"question,omitempty" bson:"question,omitempty"`
	QuestionText string `json:"questionText,omitempty" bson:"questionText,omitempty"`

	Options       []Option `json:"options,omitempty" bson:"options,omitempty"`
	ScoringRubric []string `json:"scoringRubric,omitempty" bson:"scoringRubric,omitempty"`
	Points        int      `json:"points,omitempty" bson:"points,omitempty"`
}

// Text returns the question prompt.
func (q Question) Text() string {
	if strings.TrimSpace(q.Question) != "" {
		return q.Question
	}
	return q.QuestionText
}

// OptionPoints returns the points of the first option whose value matches.
func (q Question) OptionPoints(value string) (int, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt.Points, true
		}
	}
	return 0, false
}
