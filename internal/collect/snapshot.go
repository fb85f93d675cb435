// Package collect is the project data-acquisition layer. It fetches
// normalized facts about one project into a Snapshot, tolerating missing
// scopes and flaky endpoints by recording per-query unavailability instead
// of failing the scan.
package collect

import (
	"strings"
	"time"
)

// Query names the independent data queries a snapshot can hold.
type Query string

const (
	QueryProjectSettings  Query = "project_settings"
	QueryBranchProtection Query = "branch_protection"
	QueryMergeRequests    Query = "merge_requests"
	QueryCIVariables      Query = "ci_variables"
	QueryAuditEvents      Query = "audit_events"
	QueryRepoFiles        Query = "repo_files"
)

// AllQueries returns the full query set in canonical order.
func AllQueries() []Query {
	return []Query{
		QueryProjectSettings,
		QueryBranchProtection,
		QueryMergeRequests,
		QueryCIVariables,
		QueryAuditEvents,
		QueryRepoFiles,
	}
}

// requiresAuth marks queries that are never answerable from public data.
var requiresAuth = map[Query]bool{
	QueryCIVariables: true,
	QueryAuditEvents: true,
}

// Reason codes for an unavailable query.
type Reason string

const (
	ReasonAuthRequired Reason = "auth_required"
	ReasonForbidden    Reason = "forbidden"
	ReasonRateLimited  Reason = "rate_limited"
	ReasonNotFound     Reason = "not_found"
	ReasonTransient    Reason = "transient"
)

// QueryResult records whether one query resolved and why not when it
// did not.
type QueryResult struct {
	Available bool   `json:"available"`
	Reason    Reason `json:"reason,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Snapshot is the normalized, read-only fact set fetched for one project.
// Each field is written by exactly one fetch task during BuildSnapshot and
// never mutated afterward.
type Snapshot struct {
	Project       string    `json:"project"`
	DefaultBranch string    `json:"defaultBranch"`
	FetchedAt     time.Time `json:"fetchedAt"`

	Results map[Query]QueryResult `json:"results"`

	Settings      *ProjectSettings `json:"settings,omitempty"`
	Branches      []BranchRule     `json:"branches,omitempty"`
	MergeRequests []MergeRequest   `json:"mergeRequests,omitempty"`
	Variables     []CIVariable     `json:"variables,omitempty"`
	AuditEvents   []AuditEvent     `json:"auditEvents,omitempty"`
	Files         []RepoFile       `json:"files,omitempty"`
}

// ProjectSettings captures the merge and visibility configuration relevant
// to compliance rules.
type ProjectSettings struct {
	Visibility                string `json:"visibility"`
	MergeMethod               string `json:"mergeMethod"`
	PipelineMustSucceed       bool   `json:"pipelineMustSucceed"`
	DiscussionsMustResolve    bool   `json:"discussionsMustResolve"`
	ApprovalsBeforeMerge      int    `json:"approvalsBeforeMerge"`
	ContainerRegistryEnabled  bool   `json:"containerRegistryEnabled"`
	SecurityComplianceEnabled bool   `json:"securityComplianceEnabled"`
}

// BranchRule is one protected-branch rule.
type BranchRule struct {
	Name              string `json:"name"`
	AllowForcePush    bool   `json:"allowForcePush"`
	CodeOwnerApproval bool   `json:"codeOwnerApproval"`
}

// MergeRequest is the summarized merge-request approval history entry.
type MergeRequest struct {
	IID           int       `json:"iid"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Approvers     []string  `json:"approvers,omitempty"`
	ApproverCount int       `json:"approverCount"`
	MergedAt      time.Time `json:"mergedAt"`
	SourceBranch  string    `json:"sourceBranch"`
	TargetBranch  string    `json:"targetBranch"`
}

// CIVariable is one CI/CD variable's masking configuration. Values are
// never fetched.
type CIVariable struct {
	Key       string `json:"key"`
	Masked    bool   `json:"masked"`
	Protected bool   `json:"protected"`
	Scope     string `json:"scope,omitempty"`
}

// AuditEvent is one entry of the project audit-event history.
type AuditEvent struct {
	ID         int       `json:"id"`
	AuthorID   int       `json:"authorId"`
	EntityType string    `json:"entityType"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RepoFile is one repository file path kept in the inventory. Only paths
// and sizes are retained; rules check presence, not content.
type RepoFile struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

// Available reports whether the named query resolved.
func (s *Snapshot) Available(q Query) bool {
	r, ok := s.Results[q]
	return ok && r.Available
}

// HasFile reports whether a file exists in the inventory. A trailing "*"
// matches any path with the given prefix.
func (s *Snapshot) HasFile(path string) bool {
	if prefix, ok := strings.CutSuffix(path, "*"); ok {
		for _, f := range s.Files {
			if strings.HasPrefix(f.Path, prefix) {
				return true
			}
		}
		return false
	}
	for _, f := range s.Files {
		if f.Path == path {
			return true
		}
	}
	return false
}
