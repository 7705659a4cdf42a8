package filesearch

import (
	"encoding/json"
	"strings"
	"testing"
)

func decodeFrame(t *testing.T, frame []byte) map[string]any {
	t.Helper()
	s := string(frame)
	if !strings.HasPrefix(s, "data: ") || !strings.HasSuffix(s, "\n\n") {
		t.Fatalf("frame missing data:/terminator envelope: %q", s)
	}
	payload := strings.TrimSuffix(strings.TrimPrefix(s, "data: "), "\n\n")
	var v map[string]any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		t.Fatalf("frame payload is not valid JSON: %v", err)
	}
	return v
}

func TestLifecycleEmitter_SimpleFrames(t *testing.T) {
	e := NewLifecycleEmitter(false)

	inProgress := decodeFrame(t, e.InProgress(0, "item_1"))
	if inProgress["type"] != "response.file_search_call.in_progress" {
		t.Errorf("unexpected type: %v", inProgress["type"])
	}

	searching := decodeFrame(t, e.Searching(0, "item_1"))
	if searching["type"] != "response.file_search_call.searching" {
		t.Errorf("unexpected type: %v", searching["type"])
	}

	completed := decodeFrame(t, e.Completed(0, "item_1"))
	if completed["type"] != "response.file_search_call.completed" {
		t.Errorf("unexpected type: %v", completed["type"])
	}
	if completed["item_id"] != "item_1" {
		t.Errorf("unexpected item_id: %v", completed["item_id"])
	}
}

func TestLifecycleEmitter_OutputItemDoneWithoutResults(t *testing.T) {
	e := NewLifecycleEmitter(false)
	results := []SearchResult{{FileID: "f1", Filename: "a.pdf", Score: 0.9, Content: "chunk"}}

	frame := decodeFrame(t, e.OutputItemDone("item_1", "refund policy", results))
	if frame["type"] != "response.output_item.done" {
		t.Fatalf("unexpected type: %v", frame["type"])
	}
	item := frame["item"].(map[string]any)
	if item["type"] != "file_search_call" || item["status"] != "completed" {
		t.Errorf("unexpected item: %+v", item)
	}
	if _, present := item["results"]; present {
		t.Errorf("expected results omitted when includeResults is false, got %+v", item["results"])
	}
}

func TestLifecycleEmitter_OutputItemDoneWithResults(t *testing.T) {
	e := NewLifecycleEmitter(true)
	results := []SearchResult{{FileID: "f1", Filename: "a.pdf", Score: 0.9, Content: "chunk"}}

	frame := decodeFrame(t, e.OutputItemDone("item_1", "refund policy", results))
	item := frame["item"].(map[string]any)
	got, ok := item["results"].([]any)
	if !ok || len(got) != 1 {
		t.Fatalf("expected 1 result embedded, got %#v", item["results"])
	}
	r := got[0].(map[string]any)
	if r["file_id"] != "f1" {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestLifecycleEmitter_OutputItemDoneEmptyResultsPresentWhenEnabled(t *testing.T) {
	e := NewLifecycleEmitter(true)
	frame := decodeFrame(t, e.OutputItemDone("item_1", "q", nil))
	item := frame["item"].(map[string]any)
	got, ok := item["results"].([]any)
	if !ok {
		t.Fatalf("expected results key present (as empty array) when includeResults is true, got %#v", item["results"])
	}
	if len(got) != 0 {
		t.Errorf("expected empty results array, got %v", got)
	}
}
