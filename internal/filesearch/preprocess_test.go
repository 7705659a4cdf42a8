package filesearch

import "testing"

func TestPreprocessToolDeclarations_RewritesFileSearch(t *testing.T) {
	payload := map[string]any{
		"model": "gpt-5",
		"tools": []any{
			map[string]any{"type": "file_search", "vector_store_ids": []any{"vs_1"}},
			map[string]any{"type": "function", "name": "get_weather"},
		},
	}

	out := PreprocessToolDeclarations(payload)

	tools := out["tools"].([]any)
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	rewritten := tools[0].(map[string]any)
	if rewritten["type"] != "function" || rewritten["name"] != "file_search" {
		t.Errorf("expected file_search rewritten to a function tool, got %+v", rewritten)
	}
	params := rewritten["parameters"].(map[string]any)
	props := params["properties"].(map[string]any)
	if _, ok := props["query"]; !ok {
		t.Error("expected rewritten tool to declare a query property")
	}

	other := tools[1].(map[string]any)
	if other["name"] != "get_weather" {
		t.Errorf("expected second tool untouched, got %+v", other)
	}
}

func TestPreprocessToolDeclarations_NoToolsIsNoop(t *testing.T) {
	payload := map[string]any{"model": "gpt-5"}
	out := PreprocessToolDeclarations(payload)
	if _, present := out["tools"]; present {
		t.Errorf("expected no tools key introduced, got %#v", out["tools"])
	}
}

func TestPreprocessToolDeclarations_DoesNotMutateOriginal(t *testing.T) {
	original := map[string]any{
		"tools": []any{map[string]any{"type": "file_search"}},
	}
	PreprocessToolDeclarations(original)

	tools := original["tools"].([]any)
	tm := tools[0].(map[string]any)
	if tm["type"] != "file_search" {
		t.Error("PreprocessToolDeclarations must not mutate its input")
	}
}
