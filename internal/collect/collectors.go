package collect

import (
	"context"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

func (c *Collector) collectSettings(ctx context.Context, snap *Snapshot) QueryResult {
	var project *gitlab.Project
	res := fetch(ctx, func() (*gitlab.Response, error) {
		var resp *gitlab.Response
		var err error
		project, resp, err = c.api.API.Projects.GetProject(c.project, &gitlab.GetProjectOptions{}, gitlab.WithContext(ctx))
		return resp, err
	})
	if !res.Available {
		return res
	}

	if project.DefaultBranch != "" {
		snap.DefaultBranch = project.DefaultBranch
	}
	snap.Settings = &ProjectSettings{
		Visibility:                string(project.Visibility),
		MergeMethod:               string(project.MergeMethod),
		PipelineMustSucceed:       project.OnlyAllowMergeIfPipelineSucceeds,
		DiscussionsMustResolve:    project.OnlyAllowMergeIfAllDiscussionsAreResolved,
		ApprovalsBeforeMerge:      project.ApprovalsBeforeMerge,
		ContainerRegistryEnabled:  project.ContainerRegistryEnabled,
		SecurityComplianceEnabled: project.SecurityAndComplianceEnabled,
	}
	return res
}

func (c *Collector) collectBranchProtection(ctx context.Context, snap *Snapshot) QueryResult {
	var rules []*gitlab.ProtectedBranch
	res := fetch(ctx, func() (*gitlab.Response, error) {
		var resp *gitlab.Response
		var err error
		rules, resp, err = c.api.API.ProtectedBranches.ListProtectedBranches(c.project,
			&gitlab.ListProtectedBranchesOptions{ListOptions: gitlab.ListOptions{PerPage: 100}},
			gitlab.WithContext(ctx))
		return resp, err
	})
	if !res.Available {
		return res
	}

	branches := make([]BranchRule, 0, len(rules))
	for _, r := range rules {
		branches = append(branches, BranchRule{
			Name:              r.Name,
			AllowForcePush:    r.AllowForcePush,
			CodeOwnerApproval: r.CodeOwnerApprovalRequired,
		})
	}
	snap.Branches = branches
	return res
}

func (c *Collector) collectMergeRequests(ctx context.Context, snap *Snapshot) QueryResult {
	var mrs []*gitlab.BasicMergeRequest
	res := fetch(ctx, func() (*gitlab.Response, error) {
		var resp *gitlab.Response
		var err error
		mrs, resp, err = c.api.API.MergeRequests.ListProjectMergeRequests(c.project,
			&gitlab.ListProjectMergeRequestsOptions{
				State:       gitlab.Ptr("merged"),
				OrderBy:     gitlab.Ptr("updated_at"),
				Sort:        gitlab.Ptr("desc"),
				ListOptions: gitlab.ListOptions{PerPage: c.maxMergeRequests},
			},
			gitlab.WithContext(ctx))
		return resp, err
	})
	if !res.Available {
		return res
	}

	out := make([]MergeRequest, 0, len(mrs))
	for _, mr := range mrs {
		entry := MergeRequest{
			IID:          mr.IID,
			Title:        mr.Title,
			SourceBranch: mr.SourceBranch,
			TargetBranch: mr.TargetBranch,
		}
		if mr.Author != nil {
			entry.Author = mr.Author.Username
		}
		if mr.MergedAt != nil {
			entry.MergedAt = *mr.MergedAt
		}

		// Approval data is fetched per MR; a failure there degrades to zero
		// recorded approvers rather than failing the whole query, matching
		// how the approval endpoint behaves on older instances.
		if approvals, _, err := c.api.API.MergeRequestApprovals.GetConfiguration(c.project, mr.IID, gitlab.WithContext(ctx)); err == nil {
			for _, by := range approvals.ApprovedBy {
				if by.User != nil {
					entry.Approvers = append(entry.Approvers, by.User.Username)
				}
			}
			entry.ApproverCount = len(entry.Approvers)
		}

		out = append(out, entry)
	}
	snap.MergeRequests = out
	return res
}

func (c *Collector) collectVariables(ctx context.Context, snap *Snapshot) QueryResult {
	var vars []*gitlab.ProjectVariable
	res := fetch(ctx, func() (*gitlab.Response, error) {
		var resp *gitlab.Response
		var err error
		vars, resp, err = c.api.API.ProjectVariables.ListVariables(c.project,
			&gitlab.ListProjectVariablesOptions{PerPage: 100},
			gitlab.WithContext(ctx))
		return resp, err
	})
	if !res.Available {
		return res
	}

	out := make([]CIVariable, 0, len(vars))
	for _, v := range vars {
		out = append(out, CIVariable{
			Key:       v.Key,
			Masked:    v.Masked,
			Protected: v.Protected,
			Scope:     v.EnvironmentScope,
		})
	}
	snap.Variables = out
	return res
}

func (c *Collector) collectAuditEvents(ctx context.Context, snap *Snapshot) QueryResult {
	var events []*gitlab.AuditEvent
	res := fetch(ctx, func() (*gitlab.Response, error) {
		var resp *gitlab.Response
		var err error
		events, resp, err = c.api.API.AuditEvents.ListProjectAuditEvents(c.project,
			&gitlab.ListAuditEventsOptions{ListOptions: gitlab.ListOptions{PerPage: 100}},
			gitlab.WithContext(ctx))
		return resp, err
	})
	if !res.Available {
		return res
	}

	out := make([]AuditEvent, 0, len(events))
	for _, ev := range events {
		entry := AuditEvent{
			ID:         ev.ID,
			AuthorID:   ev.AuthorID,
			EntityType: ev.EntityType,
		}
		if ev.CreatedAt != nil {
			entry.CreatedAt = *ev.CreatedAt
		}
		out = append(out, entry)
	}
	snap.AuditEvents = out
	return res
}

func (c *Collector) collectFiles(ctx context.Context, snap *Snapshot) QueryResult {
	var nodes []*gitlab.TreeNode
	res := fetch(ctx, func() (*gitlab.Response, error) {
		var resp *gitlab.Response
		var err error
		nodes, resp, err = c.api.API.Repositories.ListTree(c.project,
			&gitlab.ListTreeOptions{
				Recursive:   gitlab.Ptr(true),
				ListOptions: gitlab.ListOptions{PerPage: 500},
			},
			gitlab.WithContext(ctx))
		return resp, err
	})
	if !res.Available {
		return res
	}

	var paths []string
	for _, n := range nodes {
		if n.Type != "blob" {
			continue
		}
		paths = append(paths, n.Path)
	}
	snap.Files = selectRelevant(paths, c.maxFiles)
	return res
}
