package scan

import (
	"log"

	"compliance-autopilot/internal/catalog"
	"compliance-autopilot/internal/collect"
	"compliance-autopilot/internal/model"
)

// Scanner applies registered rules to snapshots. Rules are data; the
// scanner itself contains no per-control logic.
type Scanner struct {
	cat   *catalog.Catalog
	rules []Rule
}

// New builds a scanner carrying the built-in rule set.
func New(cat *catalog.Catalog) *Scanner {
	return &Scanner{cat: cat, rules: defaultRules()}
}

// Register adds a rule. Registration order is evaluation order within a
// surface.
func (s *Scanner) Register(r Rule) {
	s.rules = append(s.rules, r)
}

// RulesFor returns the rules registered under one surface.
func (s *Scanner) RulesFor(surface model.Surface) []Rule {
	var out []Rule
	for _, r := range s.rules {
		if r.Surface == surface {
			out = append(out, r)
		}
	}
	return out
}

// QueriesFor returns the union of queries the rules under the given
// surfaces require, in canonical query order.
func (s *Scanner) QueriesFor(surfaces []model.Surface) []collect.Query {
	want := map[collect.Query]bool{}
	for _, surface := range surfaces {
		for _, r := range s.RulesFor(surface) {
			for _, q := range r.Requires {
				want[q] = true
			}
		}
	}
	var out []collect.Query
	for _, q := range collect.AllQueries() {
		if want[q] {
			out = append(out, q)
		}
	}
	return out
}

// SurfaceResult is the outcome of scanning one surface.
type SurfaceResult struct {
	Surface  model.Surface
	Findings []model.Finding
	// Degraded is true when at least one rule could not evaluate because a
	// required query was unavailable. A degraded surface never reports a
	// clean pass for the rules it skipped.
	Degraded       bool
	SkippedQueries []collect.Query
}

// Scan evaluates every rule under the surface against the snapshot.
// Rules whose required data is unavailable are skipped and the surface is
// marked degraded. Findings referencing a control the catalog does not
// know are dropped and logged; the scan continues without them.
func (s *Scanner) Scan(surface model.Surface, snap *collect.Snapshot) SurfaceResult {
	res := SurfaceResult{Surface: surface}
	skipped := map[collect.Query]bool{}

	for _, rule := range s.RulesFor(surface) {
		missing := false
		for _, q := range rule.Requires {
			if !snap.Available(q) {
				missing = true
				if !skipped[q] {
					skipped[q] = true
					res.SkippedQueries = append(res.SkippedQueries, q)
				}
			}
		}
		if missing {
			res.Degraded = true
			continue
		}

		ctrl, ok := s.cat.Lookup(rule.Framework, rule.ControlID)
		if !ok {
			log.Printf("scan: rule %s references unknown control %s/%s (dropping)",
				rule.ID, rule.Framework, rule.ControlID)
			continue
		}

		for _, v := range rule.Eval(snap) {
			res.Findings = append(res.Findings, model.Finding{
				ID:          model.FindingID(ctrl.Framework, ctrl.ControlID, v.Artifact),
				Severity:    ctrl.Severity,
				Framework:   ctrl.Framework,
				ControlID:   ctrl.ControlID,
				Title:       ctrl.Title,
				Description: v.Detail,
				Remediation: rule.Remediation,
				Artifact:    v.Artifact,
			})
		}
	}

	return res
}
