package risk

import (
	"strings"

	"compliance-autopilot/internal/model"
)

// Profile selects the per-severity penalty table. The exact weights are
// policy, not physics; standard is the normative default and the others
// shift the posture without changing the scoring algorithm.
type Profile string

const (
	Standard Profile = "standard"
	Strict   Profile = "strict"
	Lenient  Profile = "lenient"
)

// Normalize maps arbitrary user input to a known profile, defaulting to
// standard.
func Normalize(s string) Profile {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return Strict
	case "lenient":
		return Lenient
	default:
		return Standard
	}
}

// Penalties returns the per-severity deduction table for a profile.
func Penalties(p Profile) map[model.Severity]int {
	switch p {
	case Strict:
		return map[model.Severity]int{
			model.SeverityCritical: 20,
			model.SeverityHigh:     10,
			model.SeverityMedium:   5,
			model.SeverityLow:      2,
		}
	case Lenient:
		return map[model.Severity]int{
			model.SeverityCritical: 10,
			model.SeverityHigh:     6,
			model.SeverityMedium:   3,
			model.SeverityLow:      1,
		}
	default:
		return map[model.Severity]int{
			model.SeverityCritical: 15,
			model.SeverityHigh:     8,
			model.SeverityMedium:   4,
			model.SeverityLow:      1,
		}
	}
}
