// Package enrich adds narrative prose to the evidence document via a
// stateless text-completion call to an external reasoning service. The
// call is best-effort: any failure or timeout degrades to the templated
// document without narrative.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"compliance-autopilot/internal/model"
)

const defaultTimeout = 20 * time.Second

// Summary is the structured input the reasoning service receives.
type Summary struct {
	Project  string          `json:"project"`
	Score    int             `json:"score"`
	Grade    string          `json:"grade"`
	Findings []model.Finding `json:"findings"`
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

// NewClient builds an enrichment client. Empty arguments fall back to the
// REASONING_API_URL, REASONING_API_KEY and REASONING_MODEL env variables.
func NewClient(endpoint, apiKey, modelName string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("REASONING_API_URL")
	}
	if apiKey == "" {
		apiKey = os.Getenv("REASONING_API_KEY")
	}
	if modelName == "" {
		modelName = os.Getenv("REASONING_MODEL")
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		model:    modelName,
		http:     &http.Client{Timeout: defaultTimeout},
	}
}

// Enabled reports whether the client is configured to make calls at all.
func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != "" && c.apiKey != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Narrative asks the reasoning service for remediation prose covering the
// findings summary. Errors are returned for logging only; callers must
// treat them as a degraded-quality signal, never a scan failure.
func (c *Client) Narrative(ctx context.Context, s Summary) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("enrich: not configured")
	}

	prompt, err := buildPrompt(s)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("enrich: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("enrich: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("enrich: call reasoning service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("enrich: reasoning service returned %s", resp.Status)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("enrich: decode response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("enrich: empty completion")
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func buildPrompt(s Summary) (string, error) {
	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("enrich: encode summary: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are assisting a compliance audit. Given the following scan summary, ")
	b.WriteString("write a short narrative (3-5 paragraphs) explaining the overall posture, ")
	b.WriteString("the most urgent gaps, and the order in which to remediate them. ")
	b.WriteString("Do not invent findings that are not listed.\n\n")
	b.Write(payload)
	return b.String(), nil
}
