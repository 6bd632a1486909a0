// Package maintenance provides an HTTP client for the maintenance API used
// by scheduled jobs.
package maintenance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"dompet/internal/services"
)

// Client calls maintenance endpoints with an API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new maintenance API client.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// apiError mirrors the error envelope returned by the API.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ReconcileAll triggers a system-wide reconciliation run.
func (c *Client) ReconcileAll(ctx context.Context) (*services.ReconcileSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/maintenance/reconcile", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reconciling: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var body apiError
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error.Code != "" {
			return nil, fmt.Errorf("reconciling: unexpected status %d (%s)", resp.StatusCode, body.Error.Code)
		}
		return nil, fmt.Errorf("reconciling: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		Summary *services.ReconcileSummary `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding reconcile response: %w", err)
	}
	if result.Summary == nil {
		return nil, fmt.Errorf("decoding reconcile response: missing summary")
	}
	return result.Summary, nil
}
