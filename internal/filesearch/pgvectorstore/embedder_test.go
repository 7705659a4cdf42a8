package pgvectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIEmbedder_Embed_Success(t *testing.T) {
	var gotAuth, gotModel string
	var gotInput []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req embeddingRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		gotInput = req.Input

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embeddingResponse{
			Data: []struct {
				Embedding []float64 `json:"embedding"`
			}{
				{Embedding: []float64{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedderWithEndpoint("sk-test", srv.URL, "text-embedding-3-small")
	vec, err := e.Embed(context.Background(), "refund policy")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotModel != "text-embedding-3-small" {
		t.Errorf("expected model forwarded, got %q", gotModel)
	}
	if len(gotInput) != 1 || gotInput[0] != "refund policy" {
		t.Errorf("expected single-string input, got %v", gotInput)
	}

	want := []float32{0.1, 0.2, 0.3}
	if len(vec) != len(want) {
		t.Fatalf("expected %d dims, got %d", len(want), len(vec))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("dim %d = %v, want %v", i, vec[i], want[i])
		}
	}
}

func TestOpenAIEmbedder_Embed_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid api key"))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedderWithEndpoint("bad-key", srv.URL, "text-embedding-3-small")
	_, err := e.Embed(context.Background(), "query")
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestOpenAIEmbedder_Embed_WrongEmbeddingCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedderWithEndpoint("sk-test", srv.URL, "text-embedding-3-small")
	_, err := e.Embed(context.Background(), "query")
	if err == nil {
		t.Fatal("expected error when response carries zero embeddings")
	}
}

func TestNewOpenAIEmbedder_DefaultsEndpointAndModel(t *testing.T) {
	e := NewOpenAIEmbedder("sk-test")
	if e.endpoint != "https://api.openai.com/v1/embeddings" {
		t.Errorf("unexpected default endpoint: %q", e.endpoint)
	}
	if e.model != "text-embedding-3-small" {
		t.Errorf("unexpected default model: %q", e.model)
	}
}
