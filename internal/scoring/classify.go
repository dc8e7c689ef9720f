// Package scoring turns a tenant questionnaire and an applicant's answers into
// a routed score.
package scoring

import (
	"sort"
	"strings"

	"applicant-workers/internal/models"
)

// ChoiceAnswer is a radio or checkbox-group answer resolved to the option
// values the applicant selected.
type ChoiceAnswer struct {
	Question models.Question
	Selected []string
}

// FreeTextAnswer is a long-text-ai answer ready for the oracle.
type FreeTextAnswer struct {
	QuestionID string
	Rubric     []string
	Points     int
	Text       string
}

// Partition is the result of classifying one applicant's answers.
type Partition struct {
	Contact  models.ContactFields
	Choices  []ChoiceAnswer
	FreeText []FreeTextAnswer
	// Unknown counts answers whose question id is not in the schema.
	Unknown int
}

// Classify walks the schema in order and sorts every answered question into
// contact, deterministic or free-text answers. Answers to unknown questions
// and inert question types are ignored. defaultPoints replaces a missing
// per-trait budget on free-text questions.
func Classify(schema []models.Question, answers map[string]interface{}, defaultPoints int) Partition {
	var p Partition

	known := make(map[string]struct{}, len(schema))
	for _, q := range schema {
		known[q.ID] = struct{}{}

		answer, ok := answers[q.ID]
		if !ok || answer == nil {
			continue
		}

		switch q.Type {
		case models.QuestionShortText:
			if key := contactKey(q.Text()); key != "" {
				setContact(&p.Contact, key, textValue(answer))
			}

		case models.QuestionRadio:
			var selected []string
			if v := selectedRadio(q, answer); v != "" {
				selected = []string{v}
			}
			p.Choices = append(p.Choices, ChoiceAnswer{Question: q, Selected: selected})

		case models.QuestionCheckboxGroup:
			p.Choices = append(p.Choices, ChoiceAnswer{Question: q, Selected: selectedCheckboxes(answer)})

		case models.QuestionLongTextAI:
			text := strings.TrimSpace(textValue(answer))
			rubric := normalizeRubric(q.ScoringRubric)
			if text == "" || len(rubric) == 0 {
				continue
			}
			points := q.Points
			if points <= 0 {
				points = defaultPoints
			}
			p.FreeText = append(p.FreeText, FreeTextAnswer{
				QuestionID: q.ID,
				Rubric:     rubric,
				Points:     points,
				Text:       text,
			})
		}
	}

	for id := range answers {
		if _, ok := known[id]; !ok {
			p.Unknown++
		}
	}
	return p
}

// contactKey maps a short-text prompt to a profile field. More specific
// matches are checked first so "Email address" never lands in name.
func contactKey(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "email"):
		return "email"
	case strings.Contains(lower, "phone"):
		return "phone"
	case strings.Contains(lower, "name"):
		return "name"
	}
	return ""
}

// setContact keeps the first non-empty value found for each field.
func setContact(c *models.ContactFields, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	switch key {
	case "name":
		if c.Name == "" {
			c.Name = value
		}
	case "email":
		if c.Email == "" {
			c.Email = value
		}
	case "phone":
		if c.Phone == "" {
			c.Phone = value
		}
	}
}

// textValue reads a scalar answer. Map-shaped answers yield the non-empty
// string under the lowest key.
func textValue(answer interface{}) string {
	switch v := answer.(type) {
	case string:
		return v
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := v[k].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

// selectedRadio returns the single selected value. A map-shaped answer picks
// the first option, in schema order, that is marked selected.
func selectedRadio(q models.Question, answer interface{}) string {
	switch v := answer.(type) {
	case string:
		return v
	case map[string]interface{}:
		for _, opt := range q.Options {
			if truthy(v[opt.Value]) {
				return opt.Value
			}
		}
	}
	return ""
}

// selectedCheckboxes accepts a value -> bool map or a list of values.
func selectedCheckboxes(answer interface{}) []string {
	var out []string
	switch v := answer.(type) {
	case map[string]interface{}:
		for value, marked := range v {
			if truthy(marked) {
				out = append(out, value)
			}
		}
	case map[string]bool:
		for value, marked := range v {
			if marked {
				out = append(out, value)
			}
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, v...)
	}
	sort.Strings(out)
	return out
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		return s != "" && s != "false" && s != "0"
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}

func normalizeRubric(traits []string) []string {
	seen := make(map[string]struct{}, len(traits))
	out := make([]string, 0, len(traits))
	for _, t := range traits {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
