package filesearch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SearchExecutor calls the search backend under a hard per-search
// deadline and formats the response for the model.
type SearchExecutor struct {
	backend SearchBackend
	cfg     Config
}

// NewSearchExecutor returns an executor bound to backend and cfg.
func NewSearchExecutor(backend SearchBackend, cfg Config) *SearchExecutor {
	return &SearchExecutor{backend: backend, cfg: cfg}
}

// Execute resolves a ToolCall into a ToolResult, enforcing
// config.timeout_secs as a hard deadline.
func (e *SearchExecutor) Execute(ctx context.Context, call ToolCall, auth AuthContext) (ToolResult, error) {
	validIDs := filterValidUUIDs(call.VectorStoreIDs)
	if len(validIDs) == 0 {
		return ToolResult{}, newError(KindSearchFailed, "no valid vector store IDs", nil)
	}

	maxResults := int(e.cfg.MaxResultsPerSearch)
	if call.MaxNumResults != nil && *call.MaxNumResults > 0 {
		maxResults = *call.MaxNumResults
	}
	threshold := e.cfg.ScoreThreshold
	if call.ScoreThreshold != nil {
		threshold = *call.ScoreThreshold
	}

	req := SearchRequest{
		Query:          call.Query,
		VectorStoreIDs: validIDs,
		MaxResults:     maxResults,
		Threshold:      threshold,
		Filters:        call.Filters,
		RankingOptions: call.RankingOptions,
	}

	timeout := time.Duration(e.cfg.TimeoutSecs) * time.Second
	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type searchOutcome struct {
		resp SearchResponse
		err  error
	}
	done := make(chan searchOutcome, 1)
	go func() {
		resp, err := e.backend.Search(searchCtx, req, auth)
		done <- searchOutcome{resp, err}
	}()

	select {
	case <-searchCtx.Done():
		return ToolResult{}, newError(KindTimeout, "search backend deadline exceeded", searchCtx.Err())
	case out := <-done:
		if out.err != nil {
			if searchCtx.Err() != nil {
				return ToolResult{}, newError(KindTimeout, "search backend deadline exceeded", searchCtx.Err())
			}
			return ToolResult{}, newError(KindSearchFailed, "search backend error", out.err)
		}
		return e.format(call.ID, out.resp), nil
	}
}

func (e *SearchExecutor) format(toolCallID string, resp SearchResponse) ToolResult {
	content, includedCount := formatSearchResults(resp.Results, int(e.cfg.MaxSearchResultChars))
	return ToolResult{
		ToolCallID:           toolCallID,
		FormattedContent:     content,
		ResultCount:          includedCount,
		VectorStoresSearched: resp.VectorStoresSearched,
		Raw:                  resp,
	}
}

// formatSearchResults renders the [Source N: ...] block fed back to the
// model, truncating on a whole-result boundary (never mid-result) to
// budget characters, and returns the number of results actually
// included.
func formatSearchResults(results []SearchResult, budget int) (string, int) {
	if len(results) == 0 {
		return "No results found for this search.", 0
	}

	unlimited := budget <= 0
	noticeReserve := 0
	if !unlimited {
		// Reserve room for the worst-case omission notice up front so
		// appending it never pushes the block back over budget.
		noticeReserve = len(fmt.Sprintf("\n[%d of %d results omitted: character budget exceeded]\n", len(results), len(results)))
	}

	var b strings.Builder
	included := 0
	truncated := false

	for i, r := range results {
		block := formatOneResult(i+1, r)
		if !unlimited && b.Len()+len(block) > budget-noticeReserve {
			truncated = true
			break
		}
		b.WriteString(block)
		included++
	}

	if truncated {
		b.WriteString(fmt.Sprintf("\n[%d of %d results omitted: character budget exceeded]\n", len(results)-included, len(results)))
	}

	return b.String(), included
}

func formatOneResult(sourceNumber int, r SearchResult) string {
	filename := r.Filename
	if filename == "" {
		filename = "unknown"
	}
	pct := r.Score * 100
	return fmt.Sprintf("[Source %d: %s (file_id: %s)] relevance: %.1f%%\n%s\n\n", sourceNumber, filename, r.FileID, pct, r.Content)
}

// filterValidUUIDs returns the subset of ids that parse as UUIDs,
// preserving order.
func filterValidUUIDs(ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}
