package model

import "time"

// ScanReport is the terminal artifact of one pipeline run. It is assembled
// once by the orchestrator and immutable after being returned.
type ScanReport struct {
	ScanID          string          `json:"scanId"`
	Project         string          `json:"project"`
	StartedAt       time.Time       `json:"startedAt"`
	EndedAt         time.Time       `json:"endedAt"`
	DurationSeconds int             `json:"durationSeconds"`
	Score           int             `json:"score"`
	Grade           string          `json:"grade"`
	Completeness    Completeness    `json:"completeness"`
	Enriched        bool            `json:"enriched"`
	Findings        []Finding       `json:"findings"`
	Remediation     []Remediation   `json:"remediation,omitempty"`
	AgentLog        []AgentLogEntry `json:"agentLog"`
	// QueryStatus records the outcome of every data query the planner asked
	// for, including the reason when a query could not be answered.
	QueryStatus []QueryOutcome `json:"queryStatus"`
	// DegradedSurfaces lists surfaces whose rules could not fully evaluate
	// because required data was unavailable.
	DegradedSurfaces []string `json:"degradedSurfaces,omitempty"`
	// Narrative is the optional reasoning-service summary. Empty when
	// enrichment is disabled or failed.
	Narrative string `json:"narrative,omitempty"`
	// EvidenceDoc is the rendered evidence document. It must be written to
	// disk unaltered.
	EvidenceDoc string `json:"evidenceDoc"`
	Tool        Tool   `json:"tool"`
}

type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Completeness states whether every planned data query resolved.
type Completeness string

const (
	// CompletenessComplete means every planned query returned data.
	CompletenessComplete Completeness = "complete"
	// CompletenessPartial means at least one query returned data and at
	// least one did not.
	CompletenessPartial Completeness = "partial"
	// CompletenessIncomplete means no planned query returned data.
	CompletenessIncomplete Completeness = "incomplete"
)

// QueryOutcome is the per-query line item behind the completeness indicator.
type QueryOutcome struct {
	Query     string `json:"query"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// AgentLogEntry is one line of the append-only pipeline audit trail.
type AgentLogEntry struct {
	Stage      string    `json:"stage"`
	Action     string    `json:"action"`
	Result     string    `json:"result"`
	DurationMS int64     `json:"durationMs"`
	At         time.Time `json:"at"`
}

// Remediation is one prioritized remediation action derived from a finding.
type Remediation struct {
	Priority  int      `json:"priority"`
	Severity  Severity `json:"severity"`
	ControlID string   `json:"controlId"`
	Action    string   `json:"action"`
	Artifact  string   `json:"artifact,omitempty"`
}
