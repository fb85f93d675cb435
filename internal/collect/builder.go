package collect

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"compliance-autopilot/internal/gitlabapi"
)

// Collector fetches snapshots for one project.
type Collector struct {
	api     *gitlabapi.Client
	project string

	maxMergeRequests int
	maxFiles         int
	concurrency      int
}

// NewCollector builds a Collector for the given project handle.
// Concurrency bounds the number of in-flight queries.
func NewCollector(api *gitlabapi.Client, project string, concurrency int) *Collector {
	if concurrency < 1 {
		concurrency = 4
	}
	return &Collector{
		api:              api,
		project:          project,
		maxMergeRequests: 50,
		maxFiles:         200,
		concurrency:      concurrency,
	}
}

// BuildSnapshot runs the requested queries and assembles the snapshot.
// Queries run concurrently; each snapshot field and each Results key is
// written by exactly one task. Failures never abort other queries; they
// are recorded per query in Results.
func (c *Collector) BuildSnapshot(ctx context.Context, queries []Query) *Snapshot {
	snap := &Snapshot{
		Project:       c.project,
		DefaultBranch: "main",
		FetchedAt:     time.Now().UTC(),
		Results:       make(map[Query]QueryResult, len(queries)),
	}

	type runner func(context.Context, *Snapshot) QueryResult
	runners := map[Query]runner{
		QueryProjectSettings:  c.collectSettings,
		QueryBranchProtection: c.collectBranchProtection,
		QueryMergeRequests:    c.collectMergeRequests,
		QueryCIVariables:      c.collectVariables,
		QueryAuditEvents:      c.collectAuditEvents,
		QueryRepoFiles:        c.collectFiles,
	}

	// Settings resolve first so the default branch is known before the
	// remaining queries run.
	rest := make([]Query, 0, len(queries))
	for _, q := range dedupe(queries) {
		if q == QueryProjectSettings {
			snap.Results[q] = c.runQuery(ctx, q, runners[q], snap)
			continue
		}
		rest = append(rest, q)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, q := range rest {
		run, ok := runners[q]
		if !ok {
			continue
		}
		g.Go(func() error {
			res := c.runQuery(gctx, q, run, snap)
			mu.Lock()
			snap.Results[q] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return snap
}

// runQuery applies the auth gate before dispatching to the query runner.
func (c *Collector) runQuery(ctx context.Context, q Query, run func(context.Context, *Snapshot) QueryResult, snap *Snapshot) QueryResult {
	if requiresAuth[q] && !c.api.Authenticated {
		return QueryResult{Reason: ReasonAuthRequired, Detail: "no credential supplied"}
	}
	if err := ctx.Err(); err != nil {
		return QueryResult{Reason: ReasonTransient, Detail: err.Error()}
	}
	return run(ctx, snap)
}

func dedupe(queries []Query) []Query {
	seen := make(map[Query]bool, len(queries))
	out := make([]Query, 0, len(queries))
	for _, q := range queries {
		if !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	return out
}
