package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-autopilot/internal/model"
)

func summaryFixture() Summary {
	return Summary{
		Project: "acme/payments",
		Score:   77,
		Grade:   "C",
		Findings: []model.Finding{
			{ControlID: "CC6.1", Severity: model.SeverityCritical, Artifact: "merge_requests:!1"},
		},
	}
}

func TestEnabled(t *testing.T) {
	assert.False(t, NewClient("", "", "").Enabled())
	assert.False(t, NewClient("http://x", "", "").Enabled())
	assert.True(t, NewClient("http://x", "key", "").Enabled())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}

func TestNarrative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sonar-7", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "acme/payments")

		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "  The project shows approval-control drift.  "}}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "sonar-7")
	got, err := c.Narrative(context.Background(), summaryFixture())
	require.NoError(t, err)
	assert.Equal(t, "The project shows approval-control drift.", got)
}

func TestNarrativeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "sonar-7")
	_, err := c.Narrative(context.Background(), summaryFixture())
	assert.Error(t, err)
}

func TestNarrativeEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "sonar-7")
	_, err := c.Narrative(context.Background(), summaryFixture())
	assert.Error(t, err)
}

func TestNarrativeHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"choices": [{"message": {"content": "late"}}]}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, "secret", "sonar-7")
	_, err := c.Narrative(ctx, summaryFixture())
	assert.Error(t, err)
}

func TestNarrativeNotConfigured(t *testing.T) {
	c := NewClient("", "", "")
	_, err := c.Narrative(context.Background(), summaryFixture())
	assert.Error(t, err)
}
