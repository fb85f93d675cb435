// Package scan evaluates catalog controls against a project snapshot.
// Detection logic lives in registered Rule values; adding a control means
// adding a rule here and a catalog entry, nothing else changes.
package scan

import (
	"fmt"
	"regexp"
	"strings"

	"compliance-autopilot/internal/collect"
	"compliance-autopilot/internal/model"
)

// Violation is one detected rule breach. Artifact discriminates the
// offending object(s); rules that flag many objects of the same kind
// aggregate them into a single violation.
type Violation struct {
	Artifact string
	Detail   string
}

// Rule is a pure predicate over snapshot facts, parameterized by the
// control it detects and a remediation template. Severity and title come
// from the catalog entry for (Framework, ControlID).
type Rule struct {
	ID        string
	Surface   model.Surface
	Framework model.Framework
	ControlID string
	// Requires lists the queries the rule needs. If any is unavailable the
	// rule does not evaluate and the surface is marked degraded.
	Requires    []collect.Query
	Remediation string
	Eval        func(*collect.Snapshot) []Violation
}

var secretKeyPattern = regexp.MustCompile(`(?i)(token|secret|key|password|passwd|credential)`)

// defaultRules returns the built-in rule set in registration order.
func defaultRules() []Rule {
	return []Rule{
		{
			ID:          "MR_UNAPPROVED",
			Surface:     model.SurfaceMergeApprovals,
			Framework:   model.FrameworkSOC2,
			ControlID:   "CC6.1",
			Requires:    []collect.Query{collect.QueryMergeRequests},
			Remediation: "Configure merge request approval rules requiring at least one approval before merge",
			Eval:        evalUnapprovedMerges,
		},
		{
			ID:          "MR_PIPELINE_NOT_REQUIRED",
			Surface:     model.SurfaceMergeApprovals,
			Framework:   model.FrameworkSOC2,
			ControlID:   "CC8.1",
			Requires:    []collect.Query{collect.QueryProjectSettings},
			Remediation: "Enable 'pipelines must succeed' in the project's merge request settings",
			Eval:        evalPipelineNotRequired,
		},
		{
			ID:          "BRANCH_UNPROTECTED",
			Surface:     model.SurfaceBranchProtection,
			Framework:   model.FrameworkSOC2,
			ControlID:   "CC7.2",
			Requires:    []collect.Query{collect.QueryBranchProtection},
			Remediation: "Add a protection rule for the default branch restricting who can push and merge",
			Eval:        evalDefaultBranchUnprotected,
		},
		{
			ID:          "BRANCH_FORCE_PUSH",
			Surface:     model.SurfaceBranchProtection,
			Framework:   model.FrameworkSOC2,
			ControlID:   "CC7.1",
			Requires:    []collect.Query{collect.QueryBranchProtection},
			Remediation: "Disable force pushes on protected branches",
			Eval:        evalForcePushAllowed,
		},
		{
			ID:          "CI_VAR_UNMASKED",
			Surface:     model.SurfacePipelineSecurity,
			Framework:   model.FrameworkSOC2,
			ControlID:   "CC6.7",
			Requires:    []collect.Query{collect.QueryCIVariables},
			Remediation: "Enable masking on secret-bearing CI/CD variables so values never appear in job logs",
			Eval:        evalUnmaskedSecrets,
		},
		{
			ID:          "CI_VAR_UNPROTECTED",
			Surface:     model.SurfacePipelineSecurity,
			Framework:   model.FrameworkGDPR,
			ControlID:   "Art.32",
			Requires:    []collect.Query{collect.QueryCIVariables},
			Remediation: "Mark secret-bearing CI/CD variables as protected so only protected refs can read them",
			Eval:        evalUnprotectedSecrets,
		},
		{
			ID:          "AUDIT_EVENTS_EMPTY",
			Surface:     model.SurfaceAuditTrail,
			Framework:   model.FrameworkHIPAA,
			ControlID:   "164.312(b)",
			Requires:    []collect.Query{collect.QueryAuditEvents},
			Remediation: "Verify audit event streaming is enabled for the project and its group",
			Eval:        evalNoAuditEvents,
		},
		{
			ID:          "DOC_PRIVACY_MISSING",
			Surface:     model.SurfaceDataDocumentation,
			Framework:   model.FrameworkGDPR,
			ControlID:   "Art.13",
			Requires:    []collect.Query{collect.QueryRepoFiles},
			Remediation: "Add a PRIVACY.md describing what personal data the project processes and why",
			Eval:        missingFileRule("PRIVACY.md"),
		},
		{
			ID:          "DOC_PROCESSING_RECORDS_MISSING",
			Surface:     model.SurfaceDataDocumentation,
			Framework:   model.FrameworkGDPR,
			ControlID:   "Art.30",
			Requires:    []collect.Query{collect.QueryRepoFiles},
			Remediation: "Add a docs/ or compliance/ directory recording processing activities",
			Eval:        evalNoProcessingRecords,
		},
		{
			ID:          "DOC_SECURITY_MISSING",
			Surface:     model.SurfaceDataDocumentation,
			Framework:   model.FrameworkHIPAA,
			ControlID:   "164.308(a)(1)",
			Requires:    []collect.Query{collect.QueryRepoFiles},
			Remediation: "Add a SECURITY.md documenting the security management process and reporting channel",
			Eval:        missingFileRule("SECURITY.md"),
		},
	}
}

func evalUnapprovedMerges(snap *collect.Snapshot) []Violation {
	var refs []string
	for _, mr := range snap.MergeRequests {
		if mr.ApproverCount == 0 {
			refs = append(refs, fmt.Sprintf("!%d", mr.IID))
		}
	}
	if len(refs) == 0 {
		return nil
	}
	return []Violation{{
		Artifact: "merge_requests:" + joinFirst(refs, 5),
		Detail: fmt.Sprintf("%d of %d recent merge requests were merged without any approval",
			len(refs), len(snap.MergeRequests)),
	}}
}

func evalPipelineNotRequired(snap *collect.Snapshot) []Violation {
	if snap.Settings == nil || snap.Settings.PipelineMustSucceed {
		return nil
	}
	return []Violation{{
		Artifact: "project_settings",
		Detail:   "merge requests can be merged without a passing pipeline",
	}}
}

func evalDefaultBranchUnprotected(snap *collect.Snapshot) []Violation {
	for _, b := range snap.Branches {
		if b.Name == snap.DefaultBranch {
			return nil
		}
	}
	return []Violation{{
		Artifact: "branch:" + snap.DefaultBranch,
		Detail:   fmt.Sprintf("default branch %q has no protection rule", snap.DefaultBranch),
	}}
}

func evalForcePushAllowed(snap *collect.Snapshot) []Violation {
	var names []string
	for _, b := range snap.Branches {
		if b.AllowForcePush {
			names = append(names, b.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return []Violation{{
		Artifact: "branches:" + joinFirst(names, 5),
		Detail:   fmt.Sprintf("%d protected branch(es) allow force pushes", len(names)),
	}}
}

func evalUnmaskedSecrets(snap *collect.Snapshot) []Violation {
	var keys []string
	for _, v := range snap.Variables {
		if secretKeyPattern.MatchString(v.Key) && !v.Masked {
			keys = append(keys, v.Key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return []Violation{{
		Artifact: "variables:" + joinFirst(keys, 5),
		Detail:   fmt.Sprintf("%d secret-bearing CI variable(s) are not masked in job logs", len(keys)),
	}}
}

func evalUnprotectedSecrets(snap *collect.Snapshot) []Violation {
	var keys []string
	for _, v := range snap.Variables {
		if secretKeyPattern.MatchString(v.Key) && !v.Protected {
			keys = append(keys, v.Key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return []Violation{{
		Artifact: "variables:" + joinFirst(keys, 5),
		Detail:   fmt.Sprintf("%d secret-bearing CI variable(s) are readable from unprotected refs", len(keys)),
	}}
}

func evalNoAuditEvents(snap *collect.Snapshot) []Violation {
	if len(snap.AuditEvents) > 0 {
		return nil
	}
	return []Violation{{
		Artifact: "audit_events",
		Detail:   "no audit events recorded for the project in the review window",
	}}
}

func evalNoProcessingRecords(snap *collect.Snapshot) []Violation {
	if snap.HasFile("docs/*") || snap.HasFile("compliance/*") {
		return nil
	}
	return []Violation{{
		Artifact: "docs/",
		Detail:   "no docs/ or compliance/ directory recording processing activities",
	}}
}

// missingFileRule builds an Eval that flags the absence of one repository
// file.
func missingFileRule(path string) func(*collect.Snapshot) []Violation {
	return func(snap *collect.Snapshot) []Violation {
		if snap.HasFile(path) {
			return nil
		}
		return []Violation{{
			Artifact: path,
			Detail:   fmt.Sprintf("repository has no %s", path),
		}}
	}
}

func joinFirst(ss []string, max int) string {
	if len(ss) > max {
		return strings.Join(ss[:max], ",") + "..."
	}
	return strings.Join(ss, ",")
}
