package risk

import (
	"testing"

	"compliance-autopilot/internal/model"
)

func fs(severities ...model.Severity) []model.Finding {
	out := make([]model.Finding, len(severities))
	for i, s := range severities {
		out[i] = model.Finding{Severity: s}
	}
	return out
}

func TestAnalyzeEmpty(t *testing.T) {
	got := Analyze(nil, Standard)
	if got.Score != 100 || got.Grade != "A" {
		t.Errorf("Analyze(nil) = %+v, want score 100 grade A", got)
	}
}

func TestAnalyzeStandardPenalties(t *testing.T) {
	// One critical and one high: 100 - 15 - 8 = 77, grade C
	got := Analyze(fs(model.SeverityCritical, model.SeverityHigh), Standard)
	if got.Score != 77 {
		t.Errorf("score = %d, want 77", got.Score)
	}
	if got.Grade != "C" {
		t.Errorf("grade = %q, want C", got.Grade)
	}
}

func TestAnalyzeOrderIndependent(t *testing.T) {
	a := Analyze(fs(model.SeverityLow, model.SeverityCritical, model.SeverityMedium, model.SeverityHigh), Standard)
	b := Analyze(fs(model.SeverityHigh, model.SeverityMedium, model.SeverityCritical, model.SeverityLow), Standard)
	if a != b {
		t.Errorf("order changed the result: %+v vs %+v", a, b)
	}
	// 100 - 1 - 15 - 4 - 8 = 72
	if a.Score != 72 {
		t.Errorf("score = %d, want 72", a.Score)
	}
}

func TestAnalyzeFloor(t *testing.T) {
	many := fs(
		model.SeverityCritical, model.SeverityCritical, model.SeverityCritical,
		model.SeverityCritical, model.SeverityCritical, model.SeverityCritical,
		model.SeverityCritical,
	)
	got := Analyze(many, Standard)
	if got.Score != 0 {
		t.Errorf("score = %d, want floor 0", got.Score)
	}
	if got.Grade != "F" {
		t.Errorf("grade = %q, want F", got.Grade)
	}
}

func TestAnalyzeMonotonic(t *testing.T) {
	// Adding a finding never raises the score.
	findings := fs()
	prev := Analyze(findings, Standard).Score
	for _, s := range []model.Severity{model.SeverityLow, model.SeverityMedium, model.SeverityHigh, model.SeverityCritical} {
		findings = append(findings, model.Finding{Severity: s})
		cur := Analyze(findings, Standard).Score
		if cur > prev {
			t.Errorf("score rose from %d to %d after adding a %s finding", prev, cur, s)
		}
		prev = cur
	}
}

func TestGradeThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, "A"}, {90, "A"},
		{89, "B"}, {80, "B"},
		{79, "C"}, {65, "C"},
		{64, "D"}, {50, "D"},
		{49, "F"}, {0, "F"},
	}
	for _, c := range cases {
		if got := Grade(c.score); got != c.want {
			t.Errorf("Grade(%d) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(-10); got != 0 {
		t.Errorf("clamp(-10) = %d, want 0", got)
	}
	if got := clamp(50); got != 50 {
		t.Errorf("clamp(50) = %d, want 50", got)
	}
	if got := clamp(110); got != 100 {
		t.Errorf("clamp(110) = %d, want 100", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("STRICT"); got != Strict {
		t.Errorf("Normalize(STRICT) = %q, want strict", got)
	}
	if got := Normalize(" lenient "); got != Lenient {
		t.Errorf("Normalize(lenient) = %q, want lenient", got)
	}
	if got := Normalize("nonsense"); got != Standard {
		t.Errorf("Normalize(nonsense) = %q, want standard", got)
	}
	if got := Normalize(""); got != Standard {
		t.Errorf("Normalize() = %q, want standard", got)
	}
}

func TestPenaltiesCoverAllSeverities(t *testing.T) {
	severities := []model.Severity{
		model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow,
	}
	for _, p := range []Profile{Standard, Strict, Lenient} {
		table := Penalties(p)
		for _, s := range severities {
			if table[s] <= 0 {
				t.Errorf("profile %s: severity %s has no penalty", p, s)
			}
		}
	}
	// Strict is at least standard per severity, lenient at most.
	std, strict, lenient := Penalties(Standard), Penalties(Strict), Penalties(Lenient)
	for _, s := range severities {
		if strict[s] < std[s] {
			t.Errorf("strict penalty for %s (%d) is below standard (%d)", s, strict[s], std[s])
		}
		if lenient[s] > std[s] {
			t.Errorf("lenient penalty for %s (%d) exceeds standard (%d)", s, lenient[s], std[s])
		}
	}
}
