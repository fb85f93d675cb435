package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"compliance-autopilot/internal/model"
)

// WriteRedactedJSON writes a copy of the report with project identifiers
// replaced, suitable for sharing with an external auditor.
func WriteRedactedJSON(path string, r *model.ScanReport) error {
	red := Redact(r)
	data, err := json.MarshalIndent(red, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteRedactedMarkdown renders the evidence document from the redacted
// report and writes it.
func WriteRedactedMarkdown(path string, r *model.ScanReport) error {
	red := Redact(r)
	red.EvidenceDoc = RenderMarkdown(red)
	return os.WriteFile(path, []byte(red.EvidenceDoc), 0o644)
}

// Redact returns a deep copy of the report with the project path and any
// artifact references to it replaced by an opaque token. Scores, findings,
// and the audit trail are preserved so the evidence stays verifiable.
func Redact(r *model.ScanReport) *model.ScanReport {
	// Deep copy via JSON round-trip
	data, _ := json.Marshal(r)
	var red model.ScanReport
	_ = json.Unmarshal(data, &red)

	token := fmt.Sprintf("project-%s", shortID(red.ScanID))
	project := red.Project
	red.Project = token

	mask := func(s string) string {
		if project == "" {
			return s
		}
		return strings.ReplaceAll(s, project, token)
	}
	for i := range red.Findings {
		red.Findings[i].Artifact = mask(red.Findings[i].Artifact)
		red.Findings[i].Description = mask(red.Findings[i].Description)
	}
	for i := range red.Remediation {
		red.Remediation[i].Artifact = mask(red.Remediation[i].Artifact)
		red.Remediation[i].Action = mask(red.Remediation[i].Action)
	}
	for i := range red.AgentLog {
		red.AgentLog[i].Action = mask(red.AgentLog[i].Action)
		red.AgentLog[i].Result = mask(red.AgentLog[i].Result)
	}
	red.Narrative = mask(red.Narrative)

	// The document embeds the project path throughout, so re-render it
	// from the redacted fields instead of string-patching the original.
	red.EvidenceDoc = RenderMarkdown(&red)
	return &red
}

func shortID(scanID string) string {
	if len(scanID) >= 8 {
		return scanID[:8]
	}
	return scanID
}
