package output

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"compliance-autopilot/internal/model"
)

// RenderMarkdown builds the evidence document for a completed scan. The
// returned text is what gets stored on the report and written to disk, so
// it must be deterministic for a given report.
func RenderMarkdown(r *model.ScanReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Compliance Evidence Report\n\n")
	fmt.Fprintf(&b, "- Project: %s\n", r.Project)
	fmt.Fprintf(&b, "- Scan ID: %s\n", r.ScanID)
	fmt.Fprintf(&b, "- Generated: %s\n", r.EndedAt.UTC().Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(&b, "- Tool: %s %s\n\n", r.Tool.Name, r.Tool.Version)

	fmt.Fprintf(&b, "## Compliance Score: %d / 100 (Grade %s)\n\n", r.Score, r.Grade)
	fmt.Fprintf(&b, "Data completeness: %s\n\n", r.Completeness)
	if len(r.DegradedSurfaces) > 0 {
		degraded := append([]string(nil), r.DegradedSurfaces...)
		sort.Strings(degraded)
		fmt.Fprintf(&b, "Surfaces scanned with partial data: %s\n\n", strings.Join(degraded, ", "))
	}

	fmt.Fprintf(&b, "## Findings\n\n")
	if len(r.Findings) == 0 {
		fmt.Fprintf(&b, "No compliance violations detected.\n\n")
	} else {
		findings := sortedFindings(r.Findings)
		fmt.Fprintf(&b, "| Severity | Framework | Control | Title | Artifact |\n")
		fmt.Fprintf(&b, "|----------|-----------|---------|-------|----------|\n")
		for _, f := range findings {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				f.Severity, f.Framework, f.ControlID, f.Title, f.Artifact)
		}
		fmt.Fprintf(&b, "\n")
		for _, f := range findings {
			fmt.Fprintf(&b, "### [%s] %s %s: %s\n\n", strings.ToUpper(string(f.Severity)), f.Framework, f.ControlID, f.Title)
			fmt.Fprintf(&b, "- Finding ID: %s\n", f.ID)
			fmt.Fprintf(&b, "- Artifact: %s\n", f.Artifact)
			fmt.Fprintf(&b, "- Detail: %s\n", f.Description)
			fmt.Fprintf(&b, "- Remediation: %s\n\n", f.Remediation)
		}
	}

	if len(r.Remediation) > 0 {
		fmt.Fprintf(&b, "## Remediation Plan\n\n")
		for _, step := range r.Remediation {
			fmt.Fprintf(&b, "%d. [%s] %s (%s)\n", step.Priority, step.Severity, step.Action, step.ControlID)
		}
		fmt.Fprintf(&b, "\n")
	}

	if r.Narrative != "" {
		fmt.Fprintf(&b, "## Assessment Narrative\n\n%s\n\n", strings.TrimSpace(r.Narrative))
	}

	fmt.Fprintf(&b, "## Scan Log\n\n")
	for _, e := range r.AgentLog {
		fmt.Fprintf(&b, "- %s: %s (%s, %dms)\n", e.Stage, e.Action, e.Result, e.DurationMS)
	}

	return b.String()
}

// sortedFindings orders by severity (critical first), then control, then
// artifact, without mutating the input slice.
func sortedFindings(in []model.Finding) []model.Finding {
	out := make([]model.Finding, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() > out[j].Severity.Rank()
		}
		if out[i].ControlID != out[j].ControlID {
			return out[i].ControlID < out[j].ControlID
		}
		return out[i].Artifact < out[j].Artifact
	})
	return out
}

// WriteMarkdown writes the report's evidence document. The document is
// rendered once during the reporting stage and written here verbatim.
func WriteMarkdown(path string, r *model.ScanReport) error {
	doc := r.EvidenceDoc
	if doc == "" {
		doc = RenderMarkdown(r)
	}
	return os.WriteFile(path, []byte(doc), 0o644)
}
