package scoring

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"applicant-workers/internal/models"
)

// Totals is the aggregated score of one applicant.
type Totals struct {
	ManualScore  int
	AIScoreTotal float64
	FinalScore   int
}

// QuestionMean averages one question's trait scores. Non-numeric values count
// as zero but still count as a trait. When budget is positive each value is
// clamped to [0, budget].
func QuestionMean(a models.AIAnalysis, budget int) float64 {
	if len(a.TraitScores) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range a.TraitScores {
		n := NumericValue(v)
		if budget > 0 {
			n = math.Max(0, math.Min(n, float64(budget)))
		}
		sum += n
	}
	return sum / float64(len(a.TraitScores))
}

// Aggregate adds the per-question AI means to the manual score. The AI total
// is rounded half away from zero. budgets maps question id to its per-trait
// maximum.
func Aggregate(manual int, analyses map[string]models.AIAnalysis, budgets map[string]int) Totals {
	ids := make([]string, 0, len(analyses))
	for id := range analyses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	aiTotal := 0.0
	for _, id := range ids {
		aiTotal += QuestionMean(analyses[id], budgets[id])
	}

	return Totals{
		ManualScore:  manual,
		AIScoreTotal: aiTotal,
		FinalScore:   manual + int(math.Round(aiTotal)),
	}
}

// NumericValue coerces an oracle score to a number, returning 0 when it is
// not one.
func NumericValue(v interface{}) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
