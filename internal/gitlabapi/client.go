// Package gitlabapi builds the read-only GitLab API client used by the
// data-acquisition layer. The client never mutates the scanned project.
package gitlabapi

import (
	"fmt"
	"os"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// Client wraps the GitLab API client together with the fact of whether a
// credential was supplied, so collectors can short-circuit queries that are
// never answerable from public data.
type Client struct {
	API *gitlab.Client
	// Authenticated is true when a token was supplied. Queries that require
	// a credential return unavailable(auth_required) without a network call
	// when this is false.
	Authenticated bool
}

// pickToken chooses the credential to use.
// Priority:
//  1. explicit token (flag or inbound request)
//  2. GITLAB_TOKEN env
//  3. empty string (public data only)
func pickToken(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return strings.TrimSpace(explicit)
	}
	return strings.TrimSpace(os.Getenv("GITLAB_TOKEN"))
}

// pickBaseURL chooses the GitLab instance URL, defaulting to gitlab.com.
func pickBaseURL(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return strings.TrimSpace(explicit)
	}
	if env := strings.TrimSpace(os.Getenv("GITLAB_URL")); env != "" {
		return env
	}
	return "https://gitlab.com"
}

// NewClient builds a client for the given instance. Both arguments may be
// empty; env fallbacks and public access apply.
func NewClient(baseURL, token string) (*Client, error) {
	tok := pickToken(token)
	url := pickBaseURL(baseURL)

	api, err := gitlab.NewClient(tok, gitlab.WithBaseURL(url))
	if err != nil {
		return nil, fmt.Errorf("create gitlab client (url=%q): %w", url, err)
	}

	return &Client{API: api, Authenticated: tok != ""}, nil
}
