package oracle

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the instruction sent to the model for one answer.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are an expert hiring assistant reviewing an applicant's written answer.\n")
	fmt.Fprintf(&b, "Score the answer from 0 to %d on each of these traits: %s.\n",
		req.MaxPointsPerTrait, strings.Join(req.RubricTraits, ", "))
	b.WriteString("Give a one-sentence justification for every score.\n\n")
	b.WriteString("Applicant's answer:\n\"\"\"\n")
	b.WriteString(req.AnswerText)
	b.WriteString("\n\"\"\"\n\n")
	b.WriteString("Respond with a single JSON object and nothing else, in exactly this shape:\n")
	b.WriteString(`{"trait_scores": {"<trait>": <number>}, "analysis": {"<trait>": "<justification>"}}`)
	b.WriteString("\n")
	return b.String()
}
