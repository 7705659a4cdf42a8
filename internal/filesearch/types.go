// Package filesearch implements the file-search streaming interception
// engine: a full-duplex proxy that detects file_search tool calls inside
// a streaming Responses-API conversation, executes them against a local
// vector-store backend, and re-drives the model with the results.
package filesearch

import "context"

// ToolCall is a detected model request for a local search.
type ToolCall struct {
	ID             string   `json:"id"`
	Query          string   `json:"query"`
	VectorStoreIDs []string `json:"vector_store_ids"`
	MaxNumResults  *int     `json:"max_num_results,omitempty"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty"`
	Filters        *Filter  `json:"filters,omitempty"`
	RankingOptions any      `json:"ranking_options,omitempty"`
}

// FilterOp enumerates the comparison and compound operators a Filter
// node may carry.
type FilterOp string

const (
	FilterEq  FilterOp = "eq"
	FilterNe  FilterOp = "ne"
	FilterGt  FilterOp = "gt"
	FilterGte FilterOp = "gte"
	FilterLt  FilterOp = "lt"
	FilterLte FilterOp = "lte"
	FilterAnd FilterOp = "and"
	FilterOr  FilterOp = "or"
)

// Filter is a discriminated tree: a Comparison leaf (Key/Value set) or a
// Compound node (Children set). Exactly one shape is populated.
type Filter struct {
	Op       FilterOp `json:"op"`
	Key      string   `json:"key,omitempty"`
	Value    any      `json:"value,omitempty"`
	Children []Filter `json:"children,omitempty"`
}

// IsCompound reports whether f is an and/or node rather than a leaf
// comparison.
func (f Filter) IsCompound() bool {
	return f.Op == FilterAnd || f.Op == FilterOr
}

// SearchResult is one ranked chunk returned by the backend.
type SearchResult struct {
	FileID     string         `json:"file_id"`
	Filename   string         `json:"filename,omitempty"`
	ChunkIndex int            `json:"chunk_index"`
	Score      float64        `json:"score"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SearchResponse is the immutable result of one backend search call.
type SearchResponse struct {
	Query                string         `json:"query"`
	VectorStoresSearched int            `json:"vector_stores_searched"`
	Results              []SearchResult `json:"results"`
}

// ToolResult is the model-facing rendering of a completed search, bound
// to the tool-call id that requested it.
type ToolResult struct {
	ToolCallID           string         `json:"tool_call_id"`
	FormattedContent     string         `json:"formatted_content"`
	ResultCount          int            `json:"result_count"`
	VectorStoresSearched int            `json:"vector_stores_searched"`
	Raw                  SearchResponse `json:"raw"`
}

// AuthContext is passed through to the search backend unchanged; the
// core never inspects or enforces it.
type AuthContext struct {
	UserID            string
	OrgID             string
	ProjectID         string
	IdentityOrgIDs    []string
	IdentityProjectIDs []string
}

// SearchRequest is the backend-facing shape of a resolved ToolCall.
type SearchRequest struct {
	Query          string
	VectorStoreIDs []string
	MaxResults     int
	Threshold      float64
	FileIDs        []string
	Filters        *Filter
	RankingOptions any
}

// SearchBackend is the external vector-store search collaborator.
// Deliberately out of scope per the gateway's own design: the core only
// depends on this contract.
type SearchBackend interface {
	Search(ctx context.Context, req SearchRequest, auth AuthContext) (SearchResponse, error)
}

// ProviderCallback drives the next upstream turn. Deliberately out of
// scope: the core depends only on this contract.
type ProviderCallback interface {
	Call(ctx context.Context, payload map[string]any) (StreamingResponse, error)
}

// StreamingResponse is the minimal shape the orchestrator needs from a
// provider call: a readable byte stream of SSE events.
type StreamingResponse interface {
	Read(p []byte) (n int, err error)
	Close() error
}

// Config recognizes the options spec.md §6 defines.
type Config struct {
	Enabled              bool
	TimeoutSecs          uint
	MaxIterations        uint
	MaxResultsPerSearch  uint
	ScoreThreshold       float64
	MaxSearchResultChars uint
}

// RequestContext is the per-request immutable bundle the Orchestrator is
// constructed with.
type RequestContext struct {
	OriginalPayload map[string]any
	ToolDefinitions []map[string]any
	Auth            AuthContext
	Config          Config
	IncludeResults  bool
	Provider        ProviderCallback
}
