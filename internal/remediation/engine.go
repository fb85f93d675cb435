// Package remediation derives a prioritized action plan from findings.
package remediation

import (
	"sort"

	"compliance-autopilot/internal/model"
)

// Generate orders one remediation step per finding: highest severity
// first, then control ID, then artifact, so the plan is deterministic for
// a given finding set.
func Generate(findings []model.Finding) []model.Remediation {
	steps := make([]model.Remediation, 0, len(findings))
	for _, f := range findings {
		steps = append(steps, model.Remediation{
			Severity:  f.Severity,
			ControlID: f.ControlID,
			Action:    f.Remediation,
			Artifact:  f.Artifact,
		})
	}

	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Severity.Rank() != steps[j].Severity.Rank() {
			return steps[i].Severity.Rank() > steps[j].Severity.Rank()
		}
		if steps[i].ControlID != steps[j].ControlID {
			return steps[i].ControlID < steps[j].ControlID
		}
		return steps[i].Artifact < steps[j].Artifact
	})

	for i := range steps {
		steps[i].Priority = i + 1
	}
	return steps
}
