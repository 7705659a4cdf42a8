package filesearch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// QueryCache deduplicates identical searches within a single request. It
// is strictly task-local: created empty at request start, discarded when
// the request completes. Never shared across requests — search results
// are auth-scoped, and a cross-request cache would need careful
// key-scoping by auth context that this package deliberately does not
// attempt.
type QueryCache struct {
	entries map[string]ToolResult
}

// NewQueryCache returns an empty cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string]ToolResult)}
}

// Get returns the cached result for key, if present.
func (c *QueryCache) Get(key string) (ToolResult, bool) {
	r, ok := c.entries[key]
	return r, ok
}

// Insert stores result under key.
func (c *QueryCache) Insert(key string, result ToolResult) {
	c.entries[key] = result
}

// canonicalCacheFilter is the normalized, sortable projection of a
// Filter tree used only for cache-key construction.
type canonicalCacheFilter struct {
	Op       string                  `json:"op"`
	Key      string                  `json:"key,omitempty"`
	Value    string                  `json:"value,omitempty"`
	Children []canonicalCacheFilter  `json:"children,omitempty"`
}

// CacheKey produces the stable textual serialization of a tool call's
// search-relevant fields — deliberately excluding the tool-call id, so
// semantically identical calls in the same turn share one result.
func CacheKey(call ToolCall) string {
	ids := append([]string(nil), call.VectorStoreIDs...)
	sort.Strings(ids)

	type canonical struct {
		Query          string                 `json:"query"`
		VectorStoreIDs []string               `json:"vector_store_ids"`
		MaxNumResults  *int                   `json:"max_num_results,omitempty"`
		ScoreThreshold *float64               `json:"score_threshold,omitempty"`
		Filters        *canonicalCacheFilter  `json:"filters,omitempty"`
	}

	c := canonical{
		Query:          call.Query,
		VectorStoreIDs: ids,
		MaxNumResults:  call.MaxNumResults,
		ScoreThreshold: call.ScoreThreshold,
	}
	if call.Filters != nil {
		cf := canonicalizeFilter(*call.Filters)
		c.Filters = &cf
	}

	// json.Marshal sorts map keys but canonical is a struct with a fixed
	// field order, which is already stable; no extra sorting needed here
	// beyond the vector-store id slice and filter tree above.
	b, err := json.Marshal(c)
	if err != nil {
		// Marshal of a struct built entirely from strings/numbers/slices
		// cannot fail; fall back to the query alone rather than panic.
		b = []byte(call.Query)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// canonicalizeFilter normalizes a Filter tree for stable hashing: scalar
// values are coerced to their textual form (lossy for objects/nulls, as
// documented) and compound children are left in their given order —
// spec.md does not require child-order-insensitivity for and/or nodes.
func canonicalizeFilter(f Filter) canonicalCacheFilter {
	out := canonicalCacheFilter{Op: string(f.Op), Key: f.Key}
	if f.IsCompound() {
		for _, child := range f.Children {
			out.Children = append(out.Children, canonicalizeFilter(child))
		}
		return out
	}
	out.Value = coerceScalarToString(f.Value)
	return out
}

// coerceScalarToString renders a filter leaf value as stable text.
// Objects and nulls are lossily coerced to their JSON textual form, as
// documented in spec.md's filter-value-coercion design note.
func coerceScalarToString(v any) string {
	switch vv := v.(type) {
	case nil:
		return "null"
	case string:
		return vv
	default:
		b, err := json.Marshal(vv)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
