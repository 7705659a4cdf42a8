// Package providerhttp implements filesearch.ProviderCallback over
// net/http: it POSTs a continuation payload to an upstream
// Responses-API-compatible endpoint and hands back its streaming body.
package providerhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"fsgateway/internal/filesearch"
)

// Client is a filesearch.ProviderCallback backed by a real HTTP upstream.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New returns a Client posting to baseURL + "/responses" with apiKey as a
// bearer token, matching the convention of
// internal/service/llm/providers' HTTP-based providers.
func New(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 0}, // streaming responses have no fixed read deadline
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Call POSTs payload (already marked stream: true by the
// ContinuationBuilder) and returns the response body as a
// filesearch.StreamingResponse.
func (c *Client) Call(ctx context.Context, payload map[string]any) (filesearch.StreamingResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal continuation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create continuation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call provider: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	return resp.Body, nil
}
