package providerhttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Call_PostsToResponsesPathWithAuth(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data: {\"type\":\"response.completed\"}\n\n"))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test")
	stream, err := c.Call(context.Background(), map[string]any{"model": "gpt-5", "stream": true})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	defer stream.Close()

	if gotPath != "/responses" {
		t.Errorf("expected POST to /responses, got %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected json content type, got %q", gotContentType)
	}
	if gotBody["model"] != "gpt-5" {
		t.Errorf("expected payload forwarded, got %+v", gotBody)
	}

	body, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if !strings.Contains(string(body), "response.completed") {
		t.Errorf("expected streaming body forwarded, got %q", body)
	}
}

func TestClient_Call_ErrorStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test")
	_, err := c.Call(context.Background(), map[string]any{})
	if err == nil {
		t.Fatal("expected error on 5xx response")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestClient_Call_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL, "sk-test")
	_, err := c.Call(ctx, map[string]any{})
	if err == nil {
		t.Fatal("expected error when context is already cancelled")
	}
}
