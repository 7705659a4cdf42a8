package filesearch

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestStreamRewriter_SkipsWhenTrackerEmpty(t *testing.T) {
	tracker := NewCitationTracker()
	w := NewStreamRewriter(tracker)
	event := []byte("data: {\"type\":\"response.content_part.done\",\"part\":{\"type\":\"output_text\",\"text\":\"[Source 1]\"}}\n\n")

	got := w.Rewrite(event)
	if !bytes.Equal(got, event) {
		t.Errorf("expected pass-through when tracker is empty, got %q", got)
	}
}

func TestStreamRewriter_PassesThroughUnrelatedEvents(t *testing.T) {
	tracker := NewCitationTracker()
	tracker.Extend(SearchResponse{Results: []SearchResult{{FileID: "f1"}}})
	w := NewStreamRewriter(tracker)

	cases := [][]byte{
		[]byte("data: [DONE]\n\n"),
		[]byte("data: {\"type\":\"response.completed\"}\n\n"),
		[]byte(": heartbeat\n\n"),
	}
	for _, event := range cases {
		if got := w.Rewrite(event); !bytes.Equal(got, event) {
			t.Errorf("expected pass-through for %q, got %q", event, got)
		}
	}
}

func TestStreamRewriter_InjectsAnnotations(t *testing.T) {
	tracker := NewCitationTracker()
	tracker.Extend(SearchResponse{Results: []SearchResult{{FileID: "f1", Filename: "a.pdf"}}})
	w := NewStreamRewriter(tracker)

	event := []byte(`data: {"type":"response.content_part.done","part":{"type":"output_text","text":"Refunds apply [Source 1]."}}` + "\n\n")
	got := w.Rewrite(event)

	if bytes.Equal(got, event) {
		t.Fatal("expected the event to be rewritten")
	}
	if !strings.HasSuffix(string(got), "\n\n") {
		t.Error("expected terminator preserved")
	}

	payload, ok := extractDataPayload(got)
	if !ok {
		t.Fatal("expected rewritten event to still carry a data: payload")
	}
	var v map[string]any
	if err := json.Unmarshal(payload, &v); err != nil {
		t.Fatalf("rewritten payload is not valid JSON: %v", err)
	}
	part := v["part"].(map[string]any)
	annotations, ok := part["annotations"].([]any)
	if !ok || len(annotations) != 1 {
		t.Fatalf("expected 1 annotation, got %#v", part["annotations"])
	}
	ann := annotations[0].(map[string]any)
	if ann["file_id"] != "f1" || ann["filename"] != "a.pdf" {
		t.Errorf("unexpected annotation: %+v", ann)
	}
}

func TestStreamRewriter_NoCitationsStillSetsEmptyArray(t *testing.T) {
	tracker := NewCitationTracker()
	tracker.Extend(SearchResponse{Results: []SearchResult{{FileID: "f1"}}})
	w := NewStreamRewriter(tracker)

	event := []byte(`data: {"type":"response.content_part.done","part":{"type":"output_text","text":"no citations here"}}` + "\n\n")
	got := w.Rewrite(event)

	payload, _ := extractDataPayload(got)
	var v map[string]any
	json.Unmarshal(payload, &v)
	part := v["part"].(map[string]any)
	annotations, ok := part["annotations"].([]any)
	if !ok {
		t.Fatalf("expected annotations key present as an array, got %#v", part["annotations"])
	}
	if len(annotations) != 0 {
		t.Errorf("expected empty annotations array, got %v", annotations)
	}
}
