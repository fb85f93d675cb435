package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-autopilot/internal/model"
)

func reportFixture() *model.ScanReport {
	started := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return &model.ScanReport{
		ScanID:       "f81d4fae-7dec-11d0-a765-00a0c91e6bf6",
		Project:      "acme/payments",
		StartedAt:    started,
		EndedAt:      started.Add(9 * time.Second),
		Score:        77,
		Grade:        "C",
		Completeness: model.CompletenessPartial,
		Findings: []model.Finding{
			{
				ID: "soc2-cc7.2-deadbeef", Severity: model.SeverityHigh,
				Framework: model.FrameworkSOC2, ControlID: "CC7.2",
				Title:       "Default branch is protected",
				Description: `default branch "main" has no protection rule`,
				Remediation: "Add a protection rule for the default branch",
				Artifact:    "branch:main",
			},
			{
				ID: "soc2-cc6.1-cafebabe", Severity: model.SeverityCritical,
				Framework: model.FrameworkSOC2, ControlID: "CC6.1",
				Title:       "Merged changes require at least one approval",
				Description: "3 of 3 recent merge requests were merged without any approval",
				Remediation: "Configure merge request approval rules",
				Artifact:    "merge_requests:!1,!2,!3",
			},
		},
		Remediation: []model.Remediation{
			{Priority: 1, Severity: model.SeverityCritical, ControlID: "CC6.1", Action: "Configure merge request approval rules", Artifact: "merge_requests:!1,!2,!3"},
			{Priority: 2, Severity: model.SeverityHigh, ControlID: "CC7.2", Action: "Add a protection rule for the default branch", Artifact: "branch:main"},
		},
		AgentLog: []model.AgentLogEntry{
			{Stage: "planning", Action: "plan scan surfaces", Result: "selected 5 surface(s) for acme/payments", DurationMS: 1},
			{Stage: "scanning", Action: "collect project data", Result: "5/6 queries answered", DurationMS: 420},
		},
		DegradedSurfaces: []string{"audit_trail"},
		Tool:             model.Tool{Name: "compliance-autopilot", Version: "1.2.0"},
	}
}

func TestRenderMarkdownOrdering(t *testing.T) {
	doc := RenderMarkdown(reportFixture())

	// Critical rows come before high regardless of input order.
	crit := strings.Index(doc, "CC6.1")
	high := strings.Index(doc, "CC7.2")
	require.GreaterOrEqual(t, crit, 0)
	require.GreaterOrEqual(t, high, 0)
	assert.Less(t, crit, high)

	assert.Contains(t, doc, "## Compliance Score: 77 / 100 (Grade C)")
	assert.Contains(t, doc, "Data completeness: partial")
	assert.Contains(t, doc, "Surfaces scanned with partial data: audit_trail")
	assert.Contains(t, doc, "1. [critical] Configure merge request approval rules (CC6.1)")
	assert.Contains(t, doc, "- scanning: collect project data (5/6 queries answered, 420ms)")
}

func TestRenderMarkdownDeterministic(t *testing.T) {
	r := reportFixture()
	assert.Equal(t, RenderMarkdown(r), RenderMarkdown(r))
}

func TestRenderMarkdownNoFindings(t *testing.T) {
	r := reportFixture()
	r.Findings = nil
	r.Remediation = nil
	doc := RenderMarkdown(r)
	assert.Contains(t, doc, "No compliance violations detected.")
	assert.NotContains(t, doc, "## Remediation Plan")
}

func TestWriteMarkdownPreservesDocument(t *testing.T) {
	r := reportFixture()
	r.EvidenceDoc = RenderMarkdown(r)
	path := filepath.Join(t.TempDir(), "evidence.md")
	require.NoError(t, WriteMarkdown(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, r.EvidenceDoc, string(data))
}

func TestWriteJSONRoundTrip(t *testing.T) {
	r := reportFixture()
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteJSON(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got model.ScanReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, r.ScanID, got.ScanID)
	assert.Equal(t, r.Score, got.Score)
	assert.Len(t, got.Findings, 2)
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteCSV(dir, reportFixture()))

	for _, name := range []string{"findings.csv", "score.csv", "remediation.csv", "queries.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, "csv", name))
		require.NoError(t, err, name)
		// UTF-8 BOM for Excel
		assert.True(t, strings.HasPrefix(string(data), "\xEF\xBB\xBF"), name)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "csv", "findings.csv"))
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "CC6.1")
	assert.Contains(t, lines[2], "CC7.2")
}

func TestRedact(t *testing.T) {
	r := reportFixture()
	r.Narrative = "acme/payments shows approval drift."
	red := Redact(r)

	assert.NotEqual(t, r.Project, red.Project)
	assert.NotContains(t, red.Project, "acme")
	assert.NotContains(t, red.Narrative, "acme/payments")
	assert.NotContains(t, red.EvidenceDoc, "acme/payments")

	// Scores and finding identity survive redaction.
	assert.Equal(t, r.Score, red.Score)
	assert.Equal(t, r.Grade, red.Grade)
	assert.Len(t, red.Findings, len(r.Findings))
	assert.Equal(t, r.Findings[0].ID, red.Findings[0].ID)

	// The original is untouched.
	assert.Equal(t, "acme/payments", r.Project)
}

func TestWriteRedactedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redacted.json")
	require.NoError(t, WriteRedactedJSON(path, reportFixture()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "acme/payments")
}
