package ranking

import (
	"strings"
	"unicode/utf8"

	"evalconsole/internal/model"
)

// BlankAnswerScore ranks an empty answer below any real one
const BlankAnswerScore = -999

// RuleScore is the built-in heuristic: +1 for more than 50 characters, +2 for
// a code fence, +1 for a step marker.
func RuleScore(answer string, f model.Features) float64 {
	if strings.TrimSpace(answer) == "" {
		return BlankAnswerScore
	}
	score := 0.0
	if utf8.RuneCountInString(answer) > 50 {
		score++
	}
	if f.HasCode {
		score += 2
	}
	if hasStepMarker(answer) {
		score++
	}
	return score
}
