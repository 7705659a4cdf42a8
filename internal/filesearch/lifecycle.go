package filesearch

import "encoding/json"

// LifecycleEmitter synthesizes the four file_search_call event types the
// client expects to see for every detected tool call. For a given id the
// emitter methods must be called in the order InProgress → Searching →
// OutputItemDone → Completed; the orchestrator is responsible for
// honoring that order (see Orchestrator's Dispatch/Emit states).
type LifecycleEmitter struct {
	includeResults bool
}

// NewLifecycleEmitter returns an emitter. includeResults controls whether
// OutputItemDone embeds the results array (set when the request's
// include set contains file_search_call.results).
func NewLifecycleEmitter(includeResults bool) *LifecycleEmitter {
	return &LifecycleEmitter{includeResults: includeResults}
}

type lifecycleFrame struct {
	Type        string `json:"type"`
	OutputIndex int    `json:"output_index"`
	ItemID      string `json:"item_id"`
}

// InProgress emits response.file_search_call.in_progress for one tool
// call, before it is dispatched.
func (e *LifecycleEmitter) InProgress(outputIndex int, itemID string) []byte {
	return mustFrame(lifecycleFrame{"response.file_search_call.in_progress", outputIndex, itemID})
}

// Searching emits response.file_search_call.searching, at dispatch time.
func (e *LifecycleEmitter) Searching(outputIndex int, itemID string) []byte {
	return mustFrame(lifecycleFrame{"response.file_search_call.searching", outputIndex, itemID})
}

// Completed emits response.file_search_call.completed, after a
// successful result.
func (e *LifecycleEmitter) Completed(outputIndex int, itemID string) []byte {
	return mustFrame(lifecycleFrame{"response.file_search_call.completed", outputIndex, itemID})
}

type outputItemDoneContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outputItemDoneResult struct {
	FileID     string         `json:"file_id"`
	Filename   string         `json:"filename"`
	Score      float64        `json:"score"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Content    []outputItemDoneContent `json:"content"`
}

type outputItemDoneItem struct {
	Type    string                  `json:"type"`
	ID      string                  `json:"id"`
	Queries []string                `json:"queries"`
	Status  string                  `json:"status"`
	Results *[]outputItemDoneResult `json:"results,omitempty"`
}

type outputItemDoneFrame struct {
	Type        string              `json:"type"`
	OutputIndex int                 `json:"output_index"`
	Item        outputItemDoneItem  `json:"item"`
}

// OutputItemDone emits response.output_item.done wrapping a
// file_search_call item for the given tool call and its resolved
// results. The results array is only populated when the emitter was
// constructed with includeResults == true.
func (e *LifecycleEmitter) OutputItemDone(itemID, query string, results []SearchResult) []byte {
	item := outputItemDoneItem{
		Type:    "file_search_call",
		ID:      itemID,
		Queries: []string{query},
		Status:  "completed",
	}
	if e.includeResults {
		rs := make([]outputItemDoneResult, 0, len(results))
		for _, r := range results {
			rs = append(rs, outputItemDoneResult{
				FileID:     r.FileID,
				Filename:   r.Filename,
				Score:      r.Score,
				Attributes: r.Metadata,
				Content:    []outputItemDoneContent{{Type: "text", Text: r.Content}},
			})
		}
		item.Results = &rs
	}
	return mustFrame(outputItemDoneFrame{
		Type:        "response.output_item.done",
		OutputIndex: 0,
		Item:        item,
	})
}

// mustFrame marshals v into the wire convention "data: <json>\n\n". The
// frame types above are all built from plain strings/ints/slices and
// cannot fail to marshal.
func mustFrame(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("data: {}\n\n")
	}
	out := make([]byte, 0, len(b)+8)
	out = append(out, "data: "...)
	out = append(out, b...)
	out = append(out, '\n', '\n')
	return out
}
