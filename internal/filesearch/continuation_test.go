package filesearch

import "testing"

func TestContinuationBuilder_StringInputWrapped(t *testing.T) {
	b := NewContinuationBuilder()
	original := map[string]any{
		"model": "gpt-5",
		"input": "what is the refund policy?",
		"tools": []any{map[string]any{"type": "file_search"}},
	}
	calls := []ToolCall{{ID: "call_1"}}
	results := []ToolResult{{FormattedContent: "[Source 1: a.pdf] ...\n\n"}}

	out := b.Build(original, calls, results, false)

	input, ok := out["input"].([]any)
	if !ok || len(input) != 2 {
		t.Fatalf("expected a 2-item input list, got %#v", out["input"])
	}
	msg, ok := input[0].(map[string]any)
	if !ok || msg["role"] != "user" {
		t.Fatalf("expected first item to be the wrapped user message, got %#v", input[0])
	}
	output, ok := input[1].(map[string]any)
	if !ok || output["type"] != "function_call_output" || output["call_id"] != "call_1" {
		t.Fatalf("unexpected function_call_output item: %#v", input[1])
	}
	if output["output"] != "[Source 1: a.pdf] ...\n\n" {
		t.Errorf("unexpected output content: %v", output["output"])
	}

	// Original must be untouched.
	if _, ok := original["input"].(string); !ok {
		t.Error("Build mutated the original payload's input field")
	}
}

func TestContinuationBuilder_ListInputAppended(t *testing.T) {
	b := NewContinuationBuilder()
	original := map[string]any{
		"input": []any{map[string]any{"type": "message", "role": "user"}},
	}
	calls := []ToolCall{{ID: "call_1"}}
	results := []ToolResult{{FormattedContent: "content"}}

	out := b.Build(original, calls, results, false)

	input := out["input"].([]any)
	if len(input) != 2 {
		t.Fatalf("expected 2 items, got %d", len(input))
	}
}

func TestContinuationBuilder_NilInputBecomesOutputsOnly(t *testing.T) {
	b := NewContinuationBuilder()
	original := map[string]any{}
	calls := []ToolCall{{ID: "call_1"}, {ID: "call_2"}}
	results := []ToolResult{{FormattedContent: "one"}, {FormattedContent: "two"}}

	out := b.Build(original, calls, results, false)

	input := out["input"].([]any)
	if len(input) != 2 {
		t.Fatalf("expected 2 output items, got %d", len(input))
	}
}

func TestContinuationBuilder_FinalStripsFileSearchTools(t *testing.T) {
	b := NewContinuationBuilder()
	original := map[string]any{
		"input": []any{},
		"tools": []any{
			map[string]any{"type": "file_search"},
			map[string]any{"type": "function", "name": "get_weather"},
		},
	}

	out := b.Build(original, nil, nil, true)

	tools, ok := out["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("expected 1 remaining tool, got %#v", out["tools"])
	}
}

func TestContinuationBuilder_FinalWithOnlyFileSearchToolsOmitsField(t *testing.T) {
	b := NewContinuationBuilder()
	original := map[string]any{
		"input": []any{},
		"tools": []any{map[string]any{"type": "file_search"}},
	}

	out := b.Build(original, nil, nil, true)

	if _, present := out["tools"]; present {
		t.Errorf("expected tools key absent, got %#v", out["tools"])
	}
}

func TestContinuationBuilder_NonFinalLeavesToolsUntouched(t *testing.T) {
	b := NewContinuationBuilder()
	original := map[string]any{
		"input": []any{},
		"tools": []any{map[string]any{"type": "file_search"}},
	}

	out := b.Build(original, nil, nil, false)

	tools, ok := out["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("expected file_search tool preserved on non-final turn, got %#v", out["tools"])
	}
}

func TestContinuationBuilder_SetsStreamTrue(t *testing.T) {
	b := NewContinuationBuilder()
	original := map[string]any{"input": []any{}, "stream": false}

	out := b.Build(original, nil, nil, false)

	if out["stream"] != true {
		t.Errorf("expected stream: true, got %v", out["stream"])
	}
}
