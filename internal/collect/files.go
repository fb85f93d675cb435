package collect

import (
	"sort"
	"strings"
)

// Repository trees can be huge; only the paths most relevant to compliance
// checks are kept in the snapshot.

var skipExtensions = []string{
	".png", ".jpg", ".gif", ".ico", ".woff", ".ttf", ".eot", ".svg",
	".min.js", ".min.css", ".lock", ".sum",
}

var highValueKeywords = []string{
	"security", "privacy", "compliance", "gdpr", "soc2", "hipaa", "audit",
	"incident", "breach", "dpia", "ropa", "governance", "policy",
	".gitlab-ci", "ci.yml", "pipeline", "workflow",
	"dockerfile", "docker-compose",
	"changelog", "code_of_conduct", "contributing",
	"renovate", "dependabot",
}

var infraKeywords = []string{
	"infrastructure", "terraform", "ansible", "helm", "k8s", "kubernetes",
	"iam", "rbac", "access", "auth", "tls", "ssl", "cert",
}

// relevance scores a path by compliance relevance; zero means skip.
func relevance(path string) float64 {
	lower := strings.ToLower(path)

	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return 0
		}
	}

	score := 0.1

	for _, kw := range highValueKeywords {
		if strings.Contains(lower, kw) {
			score += 2.0
			break
		}
	}
	for _, kw := range infraKeywords {
		if strings.Contains(lower, kw) {
			score += 1.5
			break
		}
	}
	if strings.HasPrefix(lower, "docs/") || strings.HasSuffix(lower, ".md") {
		score += 0.5
	}
	if !strings.Contains(path, "/") {
		score += 1.0
	}

	return score
}

// selectRelevant keeps the max highest-scoring paths, in a deterministic
// order (score descending, then path).
func selectRelevant(paths []string, max int) []RepoFile {
	type scored struct {
		path  string
		score float64
	}
	var keep []scored
	for _, p := range paths {
		if s := relevance(p); s > 0 {
			keep = append(keep, scored{path: p, score: s})
		}
	}
	sort.Slice(keep, func(i, j int) bool {
		if keep[i].score != keep[j].score {
			return keep[i].score > keep[j].score
		}
		return keep[i].path < keep[j].path
	})
	if max > 0 && len(keep) > max {
		keep = keep[:max]
	}

	out := make([]RepoFile, 0, len(keep))
	for _, s := range keep {
		out = append(out, RepoFile{Path: s.path})
	}
	return out
}
