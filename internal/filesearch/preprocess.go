package filesearch

// PreprocessToolDeclarations rewrites every tools[] entry of type
// "file_search" in payload into a generic function-tool declaration the
// upstream provider can actually execute, before the first turn is sent.
// It is a pure function: payload is not mutated, a new map is returned.
//
// This is the boundary described in spec.md §6; preprocessing itself is
// deliberately outside the interception engine's own state machine — it
// runs once, before the Orchestrator ever sees the request.
func PreprocessToolDeclarations(payload map[string]any) map[string]any {
	out := cloneJSONMap(payload)

	tools, ok := out["tools"].([]any)
	if !ok {
		return out
	}

	rewritten := make([]any, 0, len(tools))
	for _, t := range tools {
		tm, ok := t.(map[string]any)
		if !ok || tm["type"] != "file_search" {
			rewritten = append(rewritten, t)
			continue
		}
		rewritten = append(rewritten, fileSearchFunctionTool())
	}
	out["tools"] = rewritten
	return out
}

// fileSearchFunctionTool returns the generic function-tool declaration a
// file_search tool is rewritten into: required query:string, optional
// max_num_results:int in [1,50], score_threshold:number in [0,1], and
// filters:object.
func fileSearchFunctionTool() map[string]any {
	return map[string]any{
		"type": "function",
		"name": "file_search",
		"description": "Search local vector stores for relevant document chunks.",
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The natural-language search query.",
				},
				"max_num_results": map[string]any{
					"type":    "integer",
					"minimum": 1,
					"maximum": 50,
				},
				"score_threshold": map[string]any{
					"type":    "number",
					"minimum": 0,
					"maximum": 1,
				},
				"filters": map[string]any{
					"type": "object",
				},
			},
			"required": []any{"query"},
		},
	}
}
