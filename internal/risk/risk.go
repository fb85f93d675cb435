// Package risk turns a finding list into a score and letter grade. The
// scoring function is pure: same findings in, same score out, regardless
// of order.
package risk

import "compliance-autopilot/internal/model"

// Result is the analyzer output.
type Result struct {
	Score int    `json:"score"`
	Grade string `json:"grade"`
}

// Analyze scores findings under the given profile: start at 100, subtract
// a per-severity penalty per finding, floor at 0.
func Analyze(findings []model.Finding, p Profile) Result {
	penalties := Penalties(p)

	score := 100
	for _, f := range findings {
		score -= penalties[f.Severity]
	}
	score = clamp(score)

	return Result{Score: score, Grade: Grade(score)}
}

// Grade maps a score to its letter grade. Thresholds are exhaustive and
// non-overlapping over [0,100].
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 65:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
