package filesearch

import "testing"

func TestCacheKey_IdenticalCallsMatch(t *testing.T) {
	a := ToolCall{ID: "call_1", Query: "refund policy", VectorStoreIDs: []string{"vs_2", "vs_1"}}
	b := ToolCall{ID: "call_2", Query: "refund policy", VectorStoreIDs: []string{"vs_1", "vs_2"}}

	if CacheKey(a) != CacheKey(b) {
		t.Error("expected identical cache keys regardless of tool-call id and vector-store-id order")
	}
}

func TestCacheKey_DifferentQueryDiffers(t *testing.T) {
	a := ToolCall{ID: "call_1", Query: "refund policy", VectorStoreIDs: []string{"vs_1"}}
	b := ToolCall{ID: "call_1", Query: "return policy", VectorStoreIDs: []string{"vs_1"}}

	if CacheKey(a) == CacheKey(b) {
		t.Error("expected different cache keys for different queries")
	}
}

func TestCacheKey_DifferentFiltersDiffer(t *testing.T) {
	f1 := Filter{Op: FilterEq, Key: "dept", Value: "eng"}
	f2 := Filter{Op: FilterEq, Key: "dept", Value: "sales"}
	a := ToolCall{Query: "q", VectorStoreIDs: []string{"vs_1"}, Filters: &f1}
	b := ToolCall{Query: "q", VectorStoreIDs: []string{"vs_1"}, Filters: &f2}

	if CacheKey(a) == CacheKey(b) {
		t.Error("expected different cache keys for different filter values")
	}
}

func TestCacheKey_MaxResultsAndThresholdAffectKey(t *testing.T) {
	n5, n10 := 5, 10
	a := ToolCall{Query: "q", VectorStoreIDs: []string{"vs_1"}, MaxNumResults: &n5}
	b := ToolCall{Query: "q", VectorStoreIDs: []string{"vs_1"}, MaxNumResults: &n10}

	if CacheKey(a) == CacheKey(b) {
		t.Error("expected different cache keys for different max_num_results")
	}

	t5, t7 := 0.5, 0.7
	c := ToolCall{Query: "q", VectorStoreIDs: []string{"vs_1"}, ScoreThreshold: &t5}
	d := ToolCall{Query: "q", VectorStoreIDs: []string{"vs_1"}, ScoreThreshold: &t7}

	if CacheKey(c) == CacheKey(d) {
		t.Error("expected different cache keys for different score_threshold")
	}
}

func TestQueryCache_GetInsert(t *testing.T) {
	c := NewQueryCache()
	key := "k1"
	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	result := ToolResult{FormattedContent: "content"}
	c.Insert(key, result)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after insert")
	}
	if got.FormattedContent != "content" {
		t.Errorf("unexpected cached result: %+v", got)
	}
}

func TestCoerceScalarToString(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"string", "eng", "eng"},
		{"number", float64(5), "5"},
		{"bool", true, "true"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := coerceScalarToString(tc.in); got != tc.want {
				t.Errorf("coerceScalarToString(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
