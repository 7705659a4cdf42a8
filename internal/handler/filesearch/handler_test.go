package filesearch

import (
	"bufio"
	"bytes"
	"errors"
	"testing"
)

func TestExtractToolDefs_ReturnsOnlyMapEntries(t *testing.T) {
	payload := map[string]any{
		"tools": []any{
			map[string]any{"type": "file_search", "vector_store_ids": []any{"vs1"}},
			"not a map",
			map[string]any{"type": "function", "name": "get_weather"},
		},
	}
	defs := extractToolDefs(payload)
	if len(defs) != 2 {
		t.Fatalf("expected 2 defs, got %d", len(defs))
	}
	if defs[0]["type"] != "file_search" || defs[1]["name"] != "get_weather" {
		t.Errorf("unexpected defs: %+v", defs)
	}
}

func TestExtractToolDefs_NoToolsKeyReturnsNil(t *testing.T) {
	if defs := extractToolDefs(map[string]any{}); defs != nil {
		t.Errorf("expected nil, got %v", defs)
	}
}

func TestIncludeResultsRequested_True(t *testing.T) {
	payload := map[string]any{"include": []any{"file_search_call.results", "usage"}}
	if !includeResultsRequested(payload) {
		t.Error("expected true when file_search_call.results is present")
	}
}

func TestIncludeResultsRequested_FalseWhenAbsent(t *testing.T) {
	payload := map[string]any{"include": []any{"usage"}}
	if includeResultsRequested(payload) {
		t.Error("expected false when file_search_call.results is not requested")
	}
}

func TestIncludeResultsRequested_FalseWhenNoIncludeKey(t *testing.T) {
	if includeResultsRequested(map[string]any{}) {
		t.Error("expected false when include key is missing entirely")
	}
}

func TestWithStream_SetsStreamTrueWithoutMutatingOriginal(t *testing.T) {
	original := map[string]any{"model": "gpt-5"}
	out := withStream(original)

	if out["stream"] != true {
		t.Error("expected stream: true set on the copy")
	}
	if _, present := original["stream"]; present {
		t.Error("withStream must not mutate its input")
	}
	if out["model"] != "gpt-5" {
		t.Error("expected other fields preserved")
	}
}

func TestFiberSink_SendWritesAndFlushes(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	sink := fiberSink{w: w}

	if err := sink.Send([]byte("data: hello\n\n")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if buf.String() != "data: hello\n\n" {
		t.Errorf("expected flushed write, got %q", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func TestFiberSink_SendPropagatesWriteError(t *testing.T) {
	w := bufio.NewWriter(failingWriter{})
	sink := fiberSink{w: w}

	if err := sink.Send([]byte("data: hello\n\n")); err == nil {
		t.Fatal("expected error propagated from underlying writer")
	}
}
