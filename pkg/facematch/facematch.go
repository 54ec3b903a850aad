// Package facematch is the client for the face comparison sidecar that
// scores an ID document photo against a kiosk selfie. Verification is
// best-effort: the kiosk proceeds without a result when the service is
// unreachable.
package facematch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultThreshold is the similarity score at or above which two faces are
// considered the same person, unless overridden in settings.
const DefaultThreshold = 0.85

// Result is the outcome of one face comparison.
type Result struct {
	Match   bool    `json:"match"`
	Score   float64 `json:"score"`
	Message string  `json:"message,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Client talks to the face service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	threshold  float64
}

// New creates a face-match client. baseURL points at the sidecar, e.g.
// http://localhost:8000.
func New(baseURL string, threshold float64) *Client {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		threshold:  threshold,
	}
}

// Threshold returns the configured match threshold.
func (c *Client) Threshold() float64 { return c.threshold }

// Match compares a base64-encoded ID photo and selfie. The returned score
// is in [0,1]; Match applies the client's threshold on top of the service
// verdict so a configurable threshold wins over the sidecar default.
func (c *Client) Match(ctx context.Context, idImageB64, selfieB64 string) (*Result, error) {
	body, err := json.Marshal(map[string]string{
		"id_image": idImageB64,
		"selfie":   selfieB64,
	})
	if err != nil {
		return nil, fmt.Errorf("encode face match request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/match", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build face match request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("face service returned %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode face match response: %w", err)
	}
	result.Match = result.Score >= c.threshold
	return &result, nil
}

// Healthy pings the sidecar's health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
