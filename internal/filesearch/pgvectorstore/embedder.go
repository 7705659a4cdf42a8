package pgvectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIEmbedder implements Embedder against the OpenAI-compatible
// embeddings endpoint, the same API shape pgvectorstore's own Postgres
// column (vector(1536)) is sized for.
type OpenAIEmbedder struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewOpenAIEmbedder targets text-embedding-3-small (1536 dimensions) at
// the default OpenAI endpoint.
func NewOpenAIEmbedder(apiKey string) *OpenAIEmbedder {
	return NewOpenAIEmbedderWithEndpoint(apiKey, "https://api.openai.com/v1/embeddings", "text-embedding-3-small")
}

// NewOpenAIEmbedderWithEndpoint targets a custom OpenAI-compatible
// embeddings endpoint (self-hosted, Azure, etc.).
func NewOpenAIEmbedderWithEndpoint(apiKey, endpoint, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Input: []string{text}, Model: e.model})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding API call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding API %d: %s", resp.StatusCode, respBody)
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(result.Data) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(result.Data))
	}

	vec := make([]float32, len(result.Data[0].Embedding))
	for i, v := range result.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}
