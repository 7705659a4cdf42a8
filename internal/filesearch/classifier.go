package filesearch

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// doneSentinel is the SSE payload that closes an upstream stream.
const doneSentinel = "[DONE]"

// toolCallArgs is the JSON shape of a file_search tool call's arguments
// string, parsed once a matching event shape is recognized.
type toolCallArgs struct {
	Query          string          `json:"query"`
	MaxNumResults  *int            `json:"max_num_results"`
	ScoreThreshold *float64        `json:"score_threshold"`
	Filters        json.RawMessage `json:"filters"`
	RankingOptions json.RawMessage `json:"ranking_options"`
}

// EventClassifier decides whether a complete SSE event carries one or
// more file_search tool calls.
type EventClassifier struct{}

// NewEventClassifier returns a classifier. It holds no state — event
// classification is a pure function of the event bytes.
func NewEventClassifier() *EventClassifier {
	return &EventClassifier{}
}

// Classify extracts the data: payload from a complete SSE event and, if
// it recognizes a file_search tool-call shape, returns the detected
// calls. Any parse failure, type mismatch, or non-file_search function
// name yields (nil, false) — classification never fails the request,
// it only ever "misses".
func (c *EventClassifier) Classify(event []byte) ([]ToolCall, bool) {
	payload, ok := extractDataPayload(event)
	if !ok {
		return nil, false
	}
	if strings.TrimSpace(string(payload)) == doneSentinel {
		return nil, false
	}
	if !gjson.ValidBytes(payload) {
		return nil, false
	}

	root := gjson.ParseBytes(payload)
	typ := root.Get("type").String()

	switch typ {
	case "function_call":
		if call, ok := classifyFunctionCall(root); ok {
			return []ToolCall{call}, true
		}
		return nil, false

	case "response.function_call_arguments.done":
		if call, ok := classifyArgumentsDone(root); ok {
			return []ToolCall{call}, true
		}
		return nil, false

	case "response.output_item.done":
		item := root.Get("item")
		if item.Exists() {
			if call, ok := classifyFunctionCall(item); ok {
				return []ToolCall{call}, true
			}
		}
		return nil, false
	}

	// Rule 4: scan arrays for embedded function-call shapes.
	var calls []ToolCall
	if output := root.Get("output"); output.IsArray() {
		output.ForEach(func(_, item gjson.Result) bool {
			if call, ok := classifyFunctionCall(item); ok {
				calls = append(calls, call)
			}
			return true
		})
	}
	if tc := root.Get("delta.tool_calls"); tc.IsArray() {
		tc.ForEach(func(_, item gjson.Result) bool {
			if call, ok := classifyToolCallFragment(item); ok {
				calls = append(calls, call)
			}
			return true
		})
	}
	if choices := root.Get("choices"); choices.IsArray() {
		choices.ForEach(func(_, choice gjson.Result) bool {
			if tc := choice.Get("delta.tool_calls"); tc.IsArray() {
				tc.ForEach(func(_, item gjson.Result) bool {
					if call, ok := classifyToolCallFragment(item); ok {
						calls = append(calls, call)
					}
					return true
				})
			}
			return true
		})
	}
	if len(calls) > 0 {
		return calls, true
	}
	return nil, false
}

// classifyFunctionCall handles rule 1: { type: "function_call", name:
// "file_search", call_id|id, arguments: "<json-string>" }.
func classifyFunctionCall(node gjson.Result) (ToolCall, bool) {
	if node.Get("name").String() != "file_search" {
		return ToolCall{}, false
	}
	id := node.Get("call_id").String()
	if id == "" {
		id = node.Get("id").String()
	}
	if id == "" {
		return ToolCall{}, false
	}
	argsRaw := node.Get("arguments")
	return buildToolCall(id, argsRaw.String())
}

// classifyArgumentsDone handles rule 2: {
// type: "response.function_call_arguments.done", name: "file_search",
// item_id, arguments }.
func classifyArgumentsDone(node gjson.Result) (ToolCall, bool) {
	if node.Get("name").String() != "file_search" {
		return ToolCall{}, false
	}
	id := node.Get("item_id").String()
	if id == "" {
		return ToolCall{}, false
	}
	return buildToolCall(id, node.Get("arguments").String())
}

// classifyToolCallFragment handles the chat-completions-style delta
// shape embedded in rule 4: { id?, type: "function", function: { name,
// arguments } }.
func classifyToolCallFragment(node gjson.Result) (ToolCall, bool) {
	fn := node.Get("function")
	if !fn.Exists() {
		return ToolCall{}, false
	}
	if fn.Get("name").String() != "file_search" {
		return ToolCall{}, false
	}
	id := node.Get("id").String()
	if id == "" {
		return ToolCall{}, false
	}
	return buildToolCall(id, fn.Get("arguments").String())
}

// buildToolCall parses the arguments JSON string and assembles a
// ToolCall. A missing or empty query, or unparseable arguments, is a
// classification miss.
func buildToolCall(id, argsJSON string) (ToolCall, bool) {
	if argsJSON == "" {
		return ToolCall{}, false
	}
	var args toolCallArgs
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return ToolCall{}, false
	}
	if args.Query == "" {
		return ToolCall{}, false
	}

	call := ToolCall{
		ID:             id,
		Query:          args.Query,
		MaxNumResults:  args.MaxNumResults,
		ScoreThreshold: args.ScoreThreshold,
	}
	if len(args.Filters) > 0 {
		var f Filter
		if err := json.Unmarshal(args.Filters, &f); err == nil {
			call.Filters = &f
		}
	}
	if len(args.RankingOptions) > 0 {
		var ro any
		if err := json.Unmarshal(args.RankingOptions, &ro); err == nil {
			call.RankingOptions = ro
		}
	}

	// vector_store_ids is carried on the tool declaration, not the call
	// arguments, for the classic function_call shape; rule 2's inheriting
	// behavior is applied by the caller (the orchestrator), which has
	// access to the request's tool-definition list.
	return call, true
}

// extractDataPayload strips the leading "data:" line prefix from a raw
// SSE event and returns the JSON (or sentinel) bytes. Events with no
// data: line, or whose payload is not valid UTF-8 JSON text, are left to
// the caller to reject.
func extractDataPayload(event []byte) ([]byte, bool) {
	lines := bytes.Split(event, []byte("\n"))
	for _, line := range lines {
		line = bytes.TrimRight(line, "\r")
		if bytes.HasPrefix(line, []byte("data:")) {
			payload := bytes.TrimPrefix(line, []byte("data:"))
			payload = bytes.TrimSpace(payload)
			if len(payload) == 0 {
				continue
			}
			return payload, true
		}
	}
	return nil, false
}
