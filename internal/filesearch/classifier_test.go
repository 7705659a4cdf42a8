package filesearch

import "testing"

func sseEvent(payload string) []byte {
	return []byte("data: " + payload + "\n\n")
}

func TestEventClassifier_FunctionCallShape(t *testing.T) {
	c := NewEventClassifier()
	event := sseEvent(`{"type":"function_call","name":"file_search","call_id":"call_1","arguments":"{\"query\":\"refund policy\"}"}`)

	calls, ok := c.Classify(event)
	if !ok {
		t.Fatal("expected classification hit")
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].ID != "call_1" || calls[0].Query != "refund policy" {
		t.Errorf("unexpected call: %+v", calls[0])
	}
}

func TestEventClassifier_ArgumentsDoneShape(t *testing.T) {
	c := NewEventClassifier()
	event := sseEvent(`{"type":"response.function_call_arguments.done","name":"file_search","item_id":"item_1","arguments":"{\"query\":\"pricing\",\"max_num_results\":5}"}`)

	calls, ok := c.Classify(event)
	if !ok {
		t.Fatal("expected classification hit")
	}
	if len(calls) != 1 || calls[0].ID != "item_1" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	if calls[0].MaxNumResults == nil || *calls[0].MaxNumResults != 5 {
		t.Errorf("expected max_num_results 5, got %+v", calls[0].MaxNumResults)
	}
}

func TestEventClassifier_OutputItemDoneShape(t *testing.T) {
	c := NewEventClassifier()
	event := sseEvent(`{"type":"response.output_item.done","item":{"type":"function_call","name":"file_search","id":"item_2","arguments":"{\"query\":\"onboarding\"}"}}`)

	calls, ok := c.Classify(event)
	if !ok {
		t.Fatal("expected classification hit")
	}
	if len(calls) != 1 || calls[0].ID != "item_2" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestEventClassifier_ChatCompletionsDeltaToolCalls(t *testing.T) {
	c := NewEventClassifier()
	event := sseEvent(`{"choices":[{"delta":{"tool_calls":[{"id":"tc_1","type":"function","function":{"name":"file_search","arguments":"{\"query\":\"invoice\"}"}}]}}]}`)

	calls, ok := c.Classify(event)
	if !ok {
		t.Fatal("expected classification hit")
	}
	if len(calls) != 1 || calls[0].ID != "tc_1" || calls[0].Query != "invoice" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestEventClassifier_OutputArrayEmbedded(t *testing.T) {
	c := NewEventClassifier()
	event := sseEvent(`{"output":[{"type":"function_call","name":"file_search","call_id":"call_3","arguments":"{\"query\":\"contract terms\"}"},{"type":"message","role":"assistant"}]}`)

	calls, ok := c.Classify(event)
	if !ok {
		t.Fatal("expected classification hit")
	}
	if len(calls) != 1 || calls[0].ID != "call_3" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestEventClassifier_IgnoresOtherToolNames(t *testing.T) {
	c := NewEventClassifier()
	event := sseEvent(`{"type":"function_call","name":"get_weather","call_id":"call_9","arguments":"{\"city\":\"nyc\"}"}`)

	if _, ok := c.Classify(event); ok {
		t.Error("expected classification miss for non-file_search tool")
	}
}

func TestEventClassifier_IgnoresDoneSentinel(t *testing.T) {
	c := NewEventClassifier()
	if _, ok := c.Classify(sseEvent("[DONE]")); ok {
		t.Error("expected classification miss for [DONE]")
	}
}

func TestEventClassifier_IgnoresMalformedJSON(t *testing.T) {
	c := NewEventClassifier()
	if _, ok := c.Classify([]byte("data: {not json\n\n")); ok {
		t.Error("expected classification miss for invalid JSON")
	}
}

func TestEventClassifier_MissingQueryIsAMiss(t *testing.T) {
	c := NewEventClassifier()
	event := sseEvent(`{"type":"function_call","name":"file_search","call_id":"call_1","arguments":"{}"}`)
	if _, ok := c.Classify(event); ok {
		t.Error("expected classification miss for empty query")
	}
}

func TestEventClassifier_NoDataLineIsAMiss(t *testing.T) {
	c := NewEventClassifier()
	if _, ok := c.Classify([]byte(": heartbeat\n\n")); ok {
		t.Error("expected classification miss for a comment-only event")
	}
}
