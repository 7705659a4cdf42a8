package filesearch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeBackend struct {
	resp    SearchResponse
	err     error
	delay   time.Duration
	lastReq SearchRequest
}

func (b *fakeBackend) Search(ctx context.Context, req SearchRequest, auth AuthContext) (SearchResponse, error) {
	b.lastReq = req
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return SearchResponse{}, ctx.Err()
		}
	}
	if b.err != nil {
		return SearchResponse{}, b.err
	}
	return b.resp, nil
}

const validVectorStoreID = "11111111-1111-1111-1111-111111111111"

func TestSearchExecutor_Execute_Success(t *testing.T) {
	backend := &fakeBackend{resp: SearchResponse{
		Query: "refund policy",
		Results: []SearchResult{
			{FileID: "f1", Filename: "a.pdf", Score: 0.92, Content: "Refunds within 30 days."},
		},
	}}
	cfg := Config{TimeoutSecs: 5, MaxResultsPerSearch: 10, MaxSearchResultChars: 8000}
	e := NewSearchExecutor(backend, cfg)

	call := ToolCall{ID: "call_1", Query: "refund policy", VectorStoreIDs: []string{validVectorStoreID}}
	result, err := e.Execute(context.Background(), call, AuthContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ToolCallID != "call_1" {
		t.Errorf("unexpected tool call id: %s", result.ToolCallID)
	}
	if !strings.Contains(result.FormattedContent, "Source 1") {
		t.Errorf("expected formatted content to include Source 1, got %q", result.FormattedContent)
	}
	if result.ResultCount != 1 {
		t.Errorf("expected result count 1, got %d", result.ResultCount)
	}
}

func TestSearchExecutor_Execute_NoValidVectorStoreIDs(t *testing.T) {
	e := NewSearchExecutor(&fakeBackend{}, Config{TimeoutSecs: 5})
	call := ToolCall{ID: "call_1", Query: "q", VectorStoreIDs: []string{"not-a-uuid"}}

	_, err := e.Execute(context.Background(), call, AuthContext{})
	if err == nil {
		t.Fatal("expected error for no valid vector store ids")
	}
	var fsErr *Error
	if !errors.As(err, &fsErr) || fsErr.Kind != KindSearchFailed {
		t.Errorf("expected KindSearchFailed, got %v", err)
	}
}

func TestSearchExecutor_Execute_Timeout(t *testing.T) {
	backend := &fakeBackend{delay: 50 * time.Millisecond}
	cfg := Config{TimeoutSecs: 0, MaxResultsPerSearch: 10}
	// TimeoutSecs 0 means the deadline is "now" -- force an immediate timeout
	// deterministically by wrapping the context instead of relying on a
	// real wall-clock race.
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	e := NewSearchExecutor(backend, cfg)
	call := ToolCall{ID: "call_1", Query: "q", VectorStoreIDs: []string{validVectorStoreID}}

	_, err := e.Execute(ctx, call, AuthContext{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var fsErr *Error
	if !errors.As(err, &fsErr) || fsErr.Kind != KindTimeout {
		t.Errorf("expected KindTimeout, got %v", err)
	}
}

func TestSearchExecutor_Execute_BackendError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused")}
	e := NewSearchExecutor(backend, Config{TimeoutSecs: 5, MaxResultsPerSearch: 10})
	call := ToolCall{ID: "call_1", Query: "q", VectorStoreIDs: []string{validVectorStoreID}}

	_, err := e.Execute(context.Background(), call, AuthContext{})
	if err == nil {
		t.Fatal("expected error")
	}
	var fsErr *Error
	if !errors.As(err, &fsErr) || fsErr.Kind != KindSearchFailed {
		t.Errorf("expected KindSearchFailed, got %v", err)
	}
}

func TestSearchExecutor_MaxNumResultsOverridesConfigDefault(t *testing.T) {
	backend := &fakeBackend{resp: SearchResponse{}}
	cfg := Config{TimeoutSecs: 5, MaxResultsPerSearch: 10}
	e := NewSearchExecutor(backend, cfg)

	higher := 100
	call := ToolCall{ID: "call_1", Query: "q", VectorStoreIDs: []string{validVectorStoreID}, MaxNumResults: &higher}
	if _, err := e.Execute(context.Background(), call, AuthContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.lastReq.MaxResults != 100 {
		t.Errorf("expected the call's higher max_num_results to override the config default, got %d", backend.lastReq.MaxResults)
	}
}

func TestSearchExecutor_MaxNumResultsCanLowerConfigDefault(t *testing.T) {
	backend := &fakeBackend{resp: SearchResponse{}}
	cfg := Config{TimeoutSecs: 5, MaxResultsPerSearch: 10}
	e := NewSearchExecutor(backend, cfg)

	lower := 3
	call := ToolCall{ID: "call_1", Query: "q", VectorStoreIDs: []string{validVectorStoreID}, MaxNumResults: &lower}
	if _, err := e.Execute(context.Background(), call, AuthContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.lastReq.MaxResults != 3 {
		t.Errorf("expected the call's lower max_num_results honored, got %d", backend.lastReq.MaxResults)
	}
}

func TestSearchExecutor_NilOrZeroMaxNumResultsUsesConfigDefault(t *testing.T) {
	backend := &fakeBackend{resp: SearchResponse{}}
	cfg := Config{TimeoutSecs: 5, MaxResultsPerSearch: 10}
	e := NewSearchExecutor(backend, cfg)

	call := ToolCall{ID: "call_1", Query: "q", VectorStoreIDs: []string{validVectorStoreID}}
	if _, err := e.Execute(context.Background(), call, AuthContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.lastReq.MaxResults != 10 {
		t.Errorf("expected the config default when the call sets no override, got %d", backend.lastReq.MaxResults)
	}

	zero := 0
	call2 := ToolCall{ID: "call_2", Query: "q", VectorStoreIDs: []string{validVectorStoreID}, MaxNumResults: &zero}
	if _, err := e.Execute(context.Background(), call2, AuthContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.lastReq.MaxResults != 10 {
		t.Errorf("expected a zero override treated as absent, got %d", backend.lastReq.MaxResults)
	}
}

func TestFormatSearchResults_TruncatesOnWholeResultBoundary(t *testing.T) {
	results := []SearchResult{
		{FileID: "f1", Filename: "a.pdf", Content: strings.Repeat("a", 20)},
		{FileID: "f2", Filename: "b.pdf", Content: strings.Repeat("b", 20)},
	}
	// Budget fits the first block plus the omission notice, but not both
	// result blocks together.
	content, included := formatSearchResults(results, 130)
	if included != 1 {
		t.Fatalf("expected 1 result included under a tight budget, got %d", included)
	}
	if strings.Contains(content, "bbbbb") {
		t.Error("truncation must not include a partial second result")
	}
	if !strings.Contains(content, "omitted") {
		t.Error("expected a truncation notice")
	}
	if len(content) > 130 {
		t.Errorf("expected the rendered block including notice to fit within budget, got %d bytes", len(content))
	}
}

func TestFormatSearchResults_NoticeNeverPushesBlockOverBudget(t *testing.T) {
	results := make([]SearchResult, 10)
	for i := range results {
		results[i] = SearchResult{FileID: "f", Filename: "x.pdf", Content: strings.Repeat("x", 30)}
	}
	// Budgets large enough to fit the omission notice itself — a budget
	// smaller than the notice's own rendered length can't avoid
	// exceeding it no matter where the notice is accounted for.
	for _, budget := range []int{80, 120, 200, 300, 500} {
		content, _ := formatSearchResults(results, budget)
		if len(content) > budget {
			t.Errorf("budget %d: rendered block is %d bytes, exceeds budget", budget, len(content))
		}
	}
}

func TestFormatSearchResults_NoResults(t *testing.T) {
	content, included := formatSearchResults(nil, 1000)
	if included != 0 {
		t.Errorf("expected 0 included, got %d", included)
	}
	if content == "" {
		t.Error("expected a no-results message")
	}
}

func TestFormatSearchResults_UnlimitedBudget(t *testing.T) {
	results := make([]SearchResult, 5)
	for i := range results {
		results[i] = SearchResult{FileID: "f", Content: strings.Repeat("x", 1000)}
	}
	_, included := formatSearchResults(results, 0)
	if included != 5 {
		t.Errorf("expected all 5 results included with budget<=0, got %d", included)
	}
}

func TestFilterValidUUIDs(t *testing.T) {
	ids := []string{validVectorStoreID, "not-a-uuid", "22222222-2222-2222-2222-222222222222"}
	got := filterValidUUIDs(ids)
	if len(got) != 2 {
		t.Fatalf("expected 2 valid UUIDs, got %d: %v", len(got), got)
	}
}
