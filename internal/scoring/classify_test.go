package scoring

import (
	"testing"

	"applicant-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================================
// Fixtures
// ==========================================

func testSchema() []models.Question {
	return []models.Question{
		{ID: "name", Type: models.QuestionShortText, Question: "Full Name"},
		{ID: "mail", Type: models.QuestionShortText, QuestionText: "Email Address"},
		{ID: "tel", Type: models.QuestionShortText, Question: "Phone number"},
		{ID: "city", Type: models.QuestionShortText, Question: "Which city do you live in?"},
		{ID: "q1", Type: models.QuestionRadio, Options: []models.Option{{Value: "Yes", Points: 5}, {Value: "No", Points: 0}}},
		{ID: "q2", Type: models.QuestionLongTextAI, ScoringRubric: []string{"Teamwork", "Initiative"}, Points: 10},
		{ID: "q3", Type: models.QuestionCheckboxGroup, Options: []models.Option{
			{Value: "Weekdays", Points: 3},
			{Value: "Weekends", Points: 4},
			{Value: "Nights", Points: -1},
		}},
		{ID: "intro", Type: models.QuestionDescription},
		{ID: "sig", Type: models.QuestionSignatureBlock},
	}
}

// ==========================================
// Classify
// ==========================================

func TestClassify_Partitions(t *testing.T) {
	answers := map[string]interface{}{
		"name":    "  Jane Doe ",
		"mail":    "jane@example.com",
		"tel":     "555-0100",
		"city":    "Lisbon",
		"q1":      "Yes",
		"q2":      "I helped my teammate...",
		"q3":      map[string]interface{}{"Weekdays": true, "Weekends": false, "Nights": true},
		"sig":     "data:image/png;base64,xyz",
		"retired": "stale answer",
	}

	p := Classify(testSchema(), answers, 10)

	assert.Equal(t, models.ContactFields{Name: "Jane Doe", Email: "jane@example.com", Phone: "555-0100"}, p.Contact)
	require.Len(t, p.Choices, 2)
	assert.Equal(t, "q1", p.Choices[0].Question.ID)
	assert.Equal(t, []string{"Yes"}, p.Choices[0].Selected)
	assert.Equal(t, "q3", p.Choices[1].Question.ID)
	assert.Equal(t, []string{"Nights", "Weekdays"}, p.Choices[1].Selected)
	require.Len(t, p.FreeText, 1)
	assert.Equal(t, FreeTextAnswer{
		QuestionID: "q2",
		Rubric:     []string{"Teamwork", "Initiative"},
		Points:     10,
		Text:       "I helped my teammate...",
	}, p.FreeText[0])
	assert.Equal(t, 1, p.Unknown)
}

func TestClassify_FreeTextRules(t *testing.T) {
	tests := []struct {
		name     string
		question models.Question
		answer   interface{}
		want     []FreeTextAnswer
	}{
		{
			name:     "empty answer is skipped",
			question: models.Question{ID: "q", Type: models.QuestionLongTextAI, ScoringRubric: []string{"A"}, Points: 5},
			answer:   "   ",
		},
		{
			name:     "empty rubric is inert",
			question: models.Question{ID: "q", Type: models.QuestionLongTextAI, Points: 5},
			answer:   "text",
		},
		{
			name:     "missing budget uses default",
			question: models.Question{ID: "q", Type: models.QuestionLongTextAI, ScoringRubric: []string{"A", " A ", ""}},
			answer:   "text",
			want:     []FreeTextAnswer{{QuestionID: "q", Rubric: []string{"A"}, Points: 10, Text: "text"}},
		},
		{
			name:     "non-string answer is skipped",
			question: models.Question{ID: "q", Type: models.QuestionLongTextAI, ScoringRubric: []string{"A"}, Points: 5},
			answer:   42.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Classify([]models.Question{tt.question}, map[string]interface{}{"q": tt.answer}, 10)
			assert.Equal(t, tt.want, p.FreeText)
		})
	}
}

func TestClassify_ContactKeepsFirstMatch(t *testing.T) {
	schema := []models.Question{
		{ID: "first", Type: models.QuestionShortText, Question: "First name"},
		{ID: "last", Type: models.QuestionShortText, Question: "Last name"},
	}
	p := Classify(schema, map[string]interface{}{"first": "Jane", "last": "Doe"}, 10)

	assert.Equal(t, "Jane", p.Contact.Name)
}

func TestClassify_MapShapedAnswers(t *testing.T) {
	schema := []models.Question{
		{ID: "r", Type: models.QuestionRadio, Options: []models.Option{{Value: "Low", Points: 1}, {Value: "High", Points: 9}}},
		{ID: "c", Type: models.QuestionCheckboxGroup, Options: []models.Option{{Value: "A", Points: 1}, {Value: "B", Points: 2}}},
		{ID: "n", Type: models.QuestionShortText, Question: "Your name"},
	}
	answers := map[string]interface{}{
		"r": map[string]interface{}{"High": true, "Low": true},
		"c": []interface{}{"B"},
		"n": map[string]interface{}{"null": "Sam"},
	}

	p := Classify(schema, answers, 10)

	require.Len(t, p.Choices, 2)
	assert.Equal(t, []string{"Low"}, p.Choices[0].Selected)
	assert.Equal(t, []string{"B"}, p.Choices[1].Selected)
	assert.Equal(t, "Sam", p.Contact.Name)
}

func TestClassify_MapShapedTextIsStable(t *testing.T) {
	schema := []models.Question{
		{ID: "q", Type: models.QuestionLongTextAI, ScoringRubric: []string{"A"}, Points: 5},
	}
	answer := map[string]interface{}{
		"d": "fourth",
		"0": "",
		"c": "third",
		"a": "  ",
		"b": "second",
	}

	for i := 0; i < 50; i++ {
		p := Classify(schema, map[string]interface{}{"q": answer}, 10)
		require.Len(t, p.FreeText, 1)
		assert.Equal(t, "second", p.FreeText[0].Text)
	}
}

func TestClassify_NoAnswers(t *testing.T) {
	p := Classify(testSchema(), nil, 10)

	assert.Empty(t, p.Choices)
	assert.Empty(t, p.FreeText)
	assert.Equal(t, models.ContactFields{}, p.Contact)
	assert.Zero(t, p.Unknown)
}
