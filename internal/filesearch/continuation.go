package filesearch

// ContinuationBuilder builds the next turn's request payload from the
// original request and the results of the tool calls dispatched this
// turn. It is pure: Build never mutates its inputs.
type ContinuationBuilder struct{}

// NewContinuationBuilder returns a builder. It holds no state.
func NewContinuationBuilder() *ContinuationBuilder {
	return &ContinuationBuilder{}
}

// Build clones original, appends one function_call_output item per
// (call, result) pair (in order), and — when final is true — strips every
// file_search tool declaration from tools, omitting the field entirely if
// nothing remains.
func (b *ContinuationBuilder) Build(original map[string]any, calls []ToolCall, results []ToolResult, final bool) map[string]any {
	out := cloneJSONMap(original)
	out["stream"] = true

	outputs := make([]any, 0, len(calls))
	for i, call := range calls {
		var content string
		if i < len(results) {
			content = results[i].FormattedContent
		}
		outputs = append(outputs, map[string]any{
			"type":    "function_call_output",
			"call_id": call.ID,
			"output":  content,
		})
	}

	out["input"] = appendFunctionCallOutputs(original["input"], outputs)

	if final {
		if kept := stripFileSearchTools(original["tools"]); len(kept) > 0 {
			out["tools"] = kept
		} else {
			delete(out, "tools")
		}
	}

	return out
}

// appendFunctionCallOutputs implements spec.md §4.7's input-shape
// handling: a string input is wrapped in one user message item before
// the outputs are appended; a list input is appended to as-is; an absent
// input becomes a list containing only the outputs.
func appendFunctionCallOutputs(input any, outputs []any) []any {
	switch v := input.(type) {
	case nil:
		return outputs
	case string:
		list := []any{
			map[string]any{
				"type": "message",
				"role": "user",
				"content": []any{
					map[string]any{"type": "input_text", "text": v},
				},
			},
		}
		return append(list, outputs...)
	case []any:
		list := append([]any(nil), v...)
		return append(list, outputs...)
	default:
		// Unrecognized shape — treat as absent rather than guess.
		return outputs
	}
}

// stripFileSearchTools removes every tool declaration of type
// file_search, returning nil (field-absent) if nothing remains.
func stripFileSearchTools(tools any) []any {
	list, ok := tools.([]any)
	if !ok {
		return nil
	}
	var kept []any
	for _, t := range list {
		tm, ok := t.(map[string]any)
		if !ok {
			kept = append(kept, t)
			continue
		}
		if tm["type"] == "file_search" {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// cloneJSONMap performs a shallow clone of a JSON-shaped map: top-level
// keys are copied to a fresh map, but nested structures are shared. This
// is sufficient for Build's purposes, since only "stream", "input", and
// "tools" are ever reassigned on the clone, never mutated in place.
func cloneJSONMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}
