package scoring

// Points sums the points of the selected options. Values without a matching
// option count zero.
func (c ChoiceAnswer) Points() int {
	total := 0
	for _, value := range c.Selected {
		if pts, ok := c.Question.OptionPoints(value); ok {
			total += pts
		}
	}
	return total
}

// ManualScore is the deterministic part of the final score.
func ManualScore(choices []ChoiceAnswer) int {
	total := 0
	for _, c := range choices {
		total += c.Points()
	}
	return total
}
