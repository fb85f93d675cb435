package remediation

import (
	"testing"

	"compliance-autopilot/internal/model"
)

func TestGenerateOrdering(t *testing.T) {
	findings := []model.Finding{
		{Severity: model.SeverityLow, ControlID: "Art.30", Remediation: "add records", Artifact: "docs/"},
		{Severity: model.SeverityCritical, ControlID: "CC6.1", Remediation: "require approvals", Artifact: "merge_requests:!1"},
		{Severity: model.SeverityHigh, ControlID: "CC7.2", Remediation: "protect branch", Artifact: "branch:main"},
		{Severity: model.SeverityHigh, ControlID: "CC6.7", Remediation: "mask variables", Artifact: "variables:TOKEN"},
	}

	steps := Generate(findings)
	if len(steps) != 4 {
		t.Fatalf("len = %d, want 4", len(steps))
	}

	wantControls := []string{"CC6.1", "CC6.7", "CC7.2", "Art.30"}
	for i, want := range wantControls {
		if steps[i].ControlID != want {
			t.Errorf("steps[%d].ControlID = %q, want %q", i, steps[i].ControlID, want)
		}
		if steps[i].Priority != i+1 {
			t.Errorf("steps[%d].Priority = %d, want %d", i, steps[i].Priority, i+1)
		}
	}
	if steps[0].Action != "require approvals" {
		t.Errorf("steps[0].Action = %q", steps[0].Action)
	}
}

func TestGenerateEmpty(t *testing.T) {
	if steps := Generate(nil); len(steps) != 0 {
		t.Errorf("Generate(nil) returned %d steps", len(steps))
	}
}
