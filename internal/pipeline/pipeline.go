// Package pipeline drives one scan end to end through its four stages:
// planning, scanning, analysis, and reporting. Every stage transition is
// recorded in the report's audit log.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"compliance-autopilot/internal/catalog"
	"compliance-autopilot/internal/collect"
	"compliance-autopilot/internal/enrich"
	"compliance-autopilot/internal/model"
	"compliance-autopilot/internal/output"
	"compliance-autopilot/internal/plan"
	"compliance-autopilot/internal/remediation"
	"compliance-autopilot/internal/risk"
	"compliance-autopilot/internal/scan"
)

// Stage names the pipeline states in execution order.
type Stage string

const (
	StageIdle      Stage = "idle"
	StagePlanning  Stage = "planning"
	StageScanning  Stage = "scanning"
	StageAnalyzing Stage = "analyzing"
	StageReporting Stage = "reporting"
	StageDone      Stage = "done"
	StageError     Stage = "error"
)

// SnapshotSource provides project data for the scanning stage. The real
// implementation is collect.Collector; tests substitute a fixture source.
type SnapshotSource interface {
	BuildSnapshot(ctx context.Context, queries []collect.Query) *collect.Snapshot
}

// Narrator adds optional prose to the evidence document. The real
// implementation is enrich.Client.
type Narrator interface {
	Enabled() bool
	Narrative(ctx context.Context, s enrich.Summary) (string, error)
}

// Options configures one pipeline run.
type Options struct {
	Project string
	Catalog *catalog.Catalog
	Source  SnapshotSource
	// Narrator may be nil to disable enrichment entirely.
	Narrator Narrator
	// Scanner may carry extra registered rules; nil means the built-in
	// rule set.
	Scanner *scan.Scanner
	Profile  risk.Profile
	// Timeout bounds the whole run. Zero means no deadline; on expiry the
	// run still produces a report from whatever data arrived in time.
	Timeout time.Duration
	Quiet   bool
	Version string
}

// Runner executes the pipeline and tracks its current stage.
type Runner struct {
	opts  Options
	stage Stage
	log   []model.AgentLogEntry
}

func NewRunner(opts Options) *Runner {
	return &Runner{opts: opts, stage: StageIdle}
}

// Stage returns the stage the runner last entered.
func (r *Runner) Stage() Stage {
	return r.stage
}

func (r *Runner) logf(format string, args ...any) {
	if !r.opts.Quiet {
		log.Printf(format, args...)
	}
}

// record appends one audit entry for an action that started at t.
func (r *Runner) record(stage Stage, action, result string, t time.Time) {
	r.log = append(r.log, model.AgentLogEntry{
		Stage:      string(stage),
		Action:     action,
		Result:     result,
		DurationMS: time.Since(t).Milliseconds(),
		At:         t.UTC(),
	})
}

// Run drives the scan to completion. It returns an error only when the
// run could not start; degraded data and failed enrichment produce a
// report, not an error.
func (r *Runner) Run(ctx context.Context) (*model.ScanReport, error) {
	if r.opts.Project == "" {
		r.stage = StageError
		return nil, errors.New("pipeline: project is required")
	}
	if r.opts.Catalog == nil || r.opts.Catalog.Len() == 0 {
		r.stage = StageError
		return nil, errors.New("pipeline: control catalog is empty")
	}
	if r.opts.Source == nil {
		r.stage = StageError
		return nil, errors.New("pipeline: no snapshot source")
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	started := time.Now()
	report := &model.ScanReport{
		ScanID:    model.NewScanID(),
		Project:   r.opts.Project,
		StartedAt: started.UTC(),
		Tool:      model.Tool{Name: "compliance-autopilot", Version: r.opts.Version},
	}

	// Planning
	r.stage = StagePlanning
	t := time.Now()
	surfaces, summary := plan.Plan(r.opts.Project, r.opts.Catalog)
	scanner := r.opts.Scanner
	if scanner == nil {
		scanner = scan.New(r.opts.Catalog)
	}
	queries := scanner.QueriesFor(surfaces)
	r.record(StagePlanning, "plan scan surfaces", summary, t)
	r.logf("planning: %s", summary)

	// Scanning
	r.stage = StageScanning
	t = time.Now()
	snap := r.opts.Source.BuildSnapshot(ctx, queries)
	report.QueryStatus = queryStatus(snap, queries)
	r.record(StageScanning, "collect project data", collectSummary(report.QueryStatus), t)

	findings := make([]model.Finding, 0)
	seen := map[string]bool{}
	for _, surface := range surfaces {
		t = time.Now()
		res := scanner.Scan(surface, snap)
		for _, f := range res.Findings {
			if !seen[f.Key()] {
				seen[f.Key()] = true
				findings = append(findings, f)
			}
		}
		if res.Degraded {
			report.DegradedSurfaces = append(report.DegradedSurfaces, string(surface))
		}
		r.record(StageScanning, fmt.Sprintf("scan surface %s", surface), scanSummary(res), t)
	}
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Severity.Rank() != findings[j].Severity.Rank() {
			return findings[i].Severity.Rank() > findings[j].Severity.Rank()
		}
		if findings[i].ControlID != findings[j].ControlID {
			return findings[i].ControlID < findings[j].ControlID
		}
		return findings[i].Artifact < findings[j].Artifact
	})
	report.Findings = findings
	report.Completeness = completeness(report.QueryStatus)
	r.logf("scanning: %d findings, data %s", len(findings), report.Completeness)

	// Analysis
	r.stage = StageAnalyzing
	t = time.Now()
	res := risk.Analyze(findings, r.opts.Profile)
	report.Score = res.Score
	report.Grade = res.Grade
	report.Remediation = remediation.Generate(findings)
	r.record(StageAnalyzing, "compute compliance score",
		fmt.Sprintf("score %d grade %s (%s profile)", res.Score, res.Grade, r.opts.Profile), t)
	r.logf("analysis: score %d, grade %s", res.Score, res.Grade)

	// Reporting
	r.stage = StageReporting
	if r.opts.Narrator != nil && r.opts.Narrator.Enabled() {
		t = time.Now()
		narrative, err := r.opts.Narrator.Narrative(ctx, enrich.Summary{
			Project:  report.Project,
			Score:    report.Score,
			Grade:    report.Grade,
			Findings: report.Findings,
		})
		if err != nil {
			r.record(StageReporting, "enrich narrative", "failed: "+err.Error(), t)
			r.logf("enrichment unavailable, continuing without narrative: %v", err)
		} else {
			report.Narrative = narrative
			report.Enriched = true
			r.record(StageReporting, "enrich narrative", "ok", t)
		}
	}

	// The render entry is recorded before rendering so the document's own
	// log section and the JSON mirror carry the same entries.
	report.EndedAt = time.Now().UTC()
	report.DurationSeconds = int(time.Since(started).Seconds())
	r.record(StageReporting, "render evidence document", "ok", time.Now())
	report.AgentLog = r.log
	report.EvidenceDoc = output.RenderMarkdown(report)

	r.stage = StageDone
	return report, nil
}

// queryStatus flattens the snapshot's per-query results in canonical order.
func queryStatus(snap *collect.Snapshot, queries []collect.Query) []model.QueryOutcome {
	out := make([]model.QueryOutcome, 0, len(queries))
	for _, q := range queries {
		res, ok := snap.Results[q]
		if !ok {
			out = append(out, model.QueryOutcome{Query: string(q), Reason: string(collect.ReasonTransient)})
			continue
		}
		o := model.QueryOutcome{Query: string(q), Available: res.Available}
		if !res.Available {
			o.Reason = string(res.Reason)
		}
		out = append(out, o)
	}
	return out
}

func completeness(status []model.QueryOutcome) model.Completeness {
	if len(status) == 0 {
		return model.CompletenessComplete
	}
	avail := 0
	for _, q := range status {
		if q.Available {
			avail++
		}
	}
	switch avail {
	case len(status):
		return model.CompletenessComplete
	case 0:
		return model.CompletenessIncomplete
	default:
		return model.CompletenessPartial
	}
}

func collectSummary(status []model.QueryOutcome) string {
	avail := 0
	for _, q := range status {
		if q.Available {
			avail++
		}
	}
	return fmt.Sprintf("%d/%d queries answered", avail, len(status))
}

func scanSummary(res scan.SurfaceResult) string {
	s := fmt.Sprintf("%d findings", len(res.Findings))
	if res.Degraded {
		s += " (degraded)"
	}
	return s
}
