package filesearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeStream struct {
	r *bytes.Reader
}

func newFakeStream(data string) *fakeStream {
	return &fakeStream{r: bytes.NewReader([]byte(data))}
}

func (f *fakeStream) Read(p []byte) (int, error) { return f.r.Read(p) }
func (f *fakeStream) Close() error                { return nil }

type fakeSink struct {
	mu     sync.Mutex
	events [][]byte
}

func (s *fakeSink) Send(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]byte(nil), b...)
	s.events = append(s.events, cp)
	return nil
}

func (s *fakeSink) all() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.events...)
}

type fakeProvider struct {
	mu           sync.Mutex
	calls        int
	next         StreamingResponse
	err          error
	lastPayloads []map[string]any
}

func (p *fakeProvider) Call(ctx context.Context, payload map[string]any) (StreamingResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastPayloads = append(p.lastPayloads, payload)
	if p.err != nil {
		return nil, p.err
	}
	return p.next, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *fakeProvider) payloadAt(i int) map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastPayloads[i]
}

type countingBackend struct {
	mu       sync.Mutex
	searches int
	resp     SearchResponse
	err      error
	delay    time.Duration
}

func (b *countingBackend) Search(ctx context.Context, req SearchRequest, auth AuthContext) (SearchResponse, error) {
	b.mu.Lock()
	b.searches++
	b.mu.Unlock()
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

func (b *countingBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.searches
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func toolDefsWithVectorStore() []map[string]any {
	return []map[string]any{
		{"type": "file_search", "vector_store_ids": []any{validVectorStoreID}},
	}
}

func functionCallEvent(callID, query string) string {
	args, _ := json.Marshal(map[string]string{"query": query})
	event := map[string]any{
		"type":     "function_call",
		"name":     "file_search",
		"call_id":  callID,
		"arguments": string(args),
	}
	payload, _ := json.Marshal(event)
	return "data: " + string(payload) + "\n\n"
}

func TestOrchestrator_PassThroughNoToolCalls(t *testing.T) {
	initial := newFakeStream("data: {\"type\":\"response.completed\"}\n\ndata: [DONE]\n\n")
	reqCtx := RequestContext{Config: Config{MaxIterations: 5}}
	orch := NewOrchestrator(reqCtx, &countingBackend{}, nil, discardLogger())

	sink := &fakeSink{}
	stats, err := orch.Run(context.Background(), initial, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TerminationReason != "completed" {
		t.Errorf("expected completed, got %q", stats.TerminationReason)
	}
	events := sink.all()
	if len(events) != 2 {
		t.Fatalf("expected 2 forwarded events, got %d", len(events))
	}
	if !bytes.Contains(events[0], []byte("response.completed")) {
		t.Errorf("unexpected first event: %q", events[0])
	}
	if !bytes.Contains(events[1], []byte("[DONE]")) {
		t.Errorf("unexpected second event: %q", events[1])
	}
}

func TestOrchestrator_ToolCallSuccessThenCompletes(t *testing.T) {
	initial := newFakeStream(functionCallEvent("call_1", "refund policy"))
	backend := &countingBackend{resp: SearchResponse{
		Query:   "refund policy",
		Results: []SearchResult{{FileID: "f1", Filename: "a.pdf", Score: 0.9, Content: "Refunds within 30 days."}},
	}}
	provider := &fakeProvider{next: newFakeStream("data: {\"type\":\"response.completed\"}\n\ndata: [DONE]\n\n")}

	reqCtx := RequestContext{
		Config:          Config{MaxIterations: 5, TimeoutSecs: 5, MaxResultsPerSearch: 10, MaxSearchResultChars: 8000},
		ToolDefinitions: toolDefsWithVectorStore(),
		Provider:        provider,
	}
	orch := NewOrchestrator(reqCtx, backend, nil, discardLogger())

	sink := &fakeSink{}
	stats, err := orch.Run(context.Background(), initial, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TerminationReason != "completed" {
		t.Errorf("expected completed, got %q", stats.TerminationReason)
	}
	if stats.SearchesExecuted != 1 {
		t.Errorf("expected 1 search executed, got %d", stats.SearchesExecuted)
	}
	if provider.callCount() != 1 {
		t.Errorf("expected 1 continuation call, got %d", provider.callCount())
	}

	events := sink.all()
	var types []string
	for _, e := range events {
		payload, ok := extractDataPayload(e)
		if !ok {
			continue
		}
		var v map[string]any
		if json.Unmarshal(payload, &v) == nil {
			if typ, ok := v["type"].(string); ok {
				types = append(types, typ)
			}
		}
	}
	wantPrefix := []string{
		"response.file_search_call.in_progress",
		"response.file_search_call.searching",
		"response.output_item.done",
		"response.file_search_call.completed",
		"response.completed",
	}
	if len(types) < len(wantPrefix) {
		t.Fatalf("expected at least %d typed events, got %d: %v", len(wantPrefix), len(types), types)
	}
	for i, want := range wantPrefix {
		if types[i] != want {
			t.Errorf("event %d: got type %q, want %q (full sequence: %v)", i, types[i], want, types)
		}
	}
}

func TestOrchestrator_NoProviderForwardsRaw(t *testing.T) {
	raw := functionCallEvent("call_1", "refund policy")
	initial := newFakeStream(raw)

	reqCtx := RequestContext{
		Config:          Config{MaxIterations: 5},
		ToolDefinitions: toolDefsWithVectorStore(),
		Provider:        nil,
	}
	orch := NewOrchestrator(reqCtx, &countingBackend{}, nil, discardLogger())

	sink := &fakeSink{}
	stats, err := orch.Run(context.Background(), initial, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TerminationReason != "no_callback" {
		t.Errorf("expected no_callback, got %q", stats.TerminationReason)
	}
	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 forwarded raw event, got %d", len(events))
	}
	if string(events[0]) != raw {
		t.Errorf("expected raw event forwarded verbatim, got %q", events[0])
	}
}

func TestOrchestrator_SearchFailureForwardsRawAndReportsError(t *testing.T) {
	raw := functionCallEvent("call_1", "refund policy")
	initial := newFakeStream(raw)
	backend := &countingBackend{err: errors.New("connection refused")}
	provider := &fakeProvider{}

	reqCtx := RequestContext{
		Config:          Config{MaxIterations: 5, TimeoutSecs: 5, MaxResultsPerSearch: 10},
		ToolDefinitions: toolDefsWithVectorStore(),
		Provider:        provider,
	}
	orch := NewOrchestrator(reqCtx, backend, nil, discardLogger())

	sink := &fakeSink{}
	stats, err := orch.Run(context.Background(), initial, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TerminationReason != "error" {
		t.Errorf("expected error, got %q", stats.TerminationReason)
	}
	events := sink.all()
	found := false
	for _, e := range events {
		if string(e) == raw {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the original tool-call event forwarded raw among %q", events)
	}
	if provider.callCount() != 0 {
		t.Error("expected no continuation call after a dispatch failure")
	}
}

func TestOrchestrator_SearchTimeoutReportsTimeout(t *testing.T) {
	raw := functionCallEvent("call_1", "refund policy")
	initial := newFakeStream(raw)
	backend := &countingBackend{delay: 50 * time.Millisecond}

	reqCtx := RequestContext{
		Config:          Config{MaxIterations: 5, TimeoutSecs: 0, MaxResultsPerSearch: 10},
		ToolDefinitions: toolDefsWithVectorStore(),
		Provider:        &fakeProvider{},
	}
	orch := NewOrchestrator(reqCtx, backend, nil, discardLogger())

	sink := &fakeSink{}
	stats, err := orch.Run(context.Background(), initial, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TerminationReason != "timeout" {
		t.Errorf("expected timeout, got %q", stats.TerminationReason)
	}
}

// At MaxIterations the turn still dispatches its tool calls normally —
// only the continuation it builds has file_search stripped from tools,
// so the model can't ask for yet another search next turn.
func TestOrchestrator_AtIterationLimitStillDispatchesAndStripsTools(t *testing.T) {
	raw1 := functionCallEvent("call_1", "refund policy")
	raw2 := functionCallEvent("call_2", "shipping policy")
	initial := newFakeStream(raw1)
	backend := &countingBackend{resp: SearchResponse{Results: []SearchResult{{FileID: "f1"}}}}
	provider := &fakeProvider{next: newFakeStream(raw2)}

	reqCtx := RequestContext{
		OriginalPayload: map[string]any{
			"model": "gpt-5",
			"tools": []any{map[string]any{"type": "file_search", "vector_store_ids": []any{validVectorStoreID}}},
		},
		Config:          Config{MaxIterations: 1, TimeoutSecs: 5, MaxResultsPerSearch: 10},
		ToolDefinitions: toolDefsWithVectorStore(),
		Provider:        provider,
	}
	orch := NewOrchestrator(reqCtx, backend, nil, discardLogger())

	sink := &fakeSink{}
	stats, err := orch.Run(context.Background(), initial, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.SearchesExecuted != 1 {
		t.Errorf("expected the limit turn to still dispatch its search, got %d executed", stats.SearchesExecuted)
	}
	if provider.callCount() != 1 {
		t.Fatalf("expected exactly 1 continuation call, got %d", provider.callCount())
	}

	built := provider.payloadAt(0)
	if _, present := built["tools"]; present {
		t.Errorf("expected tools stripped from the continuation built at the iteration limit, got %+v", built["tools"])
	}

	// The turn after the limit is forwarded raw, without classification:
	// call_2's raw bytes should appear on the wire untouched.
	var sawRawCall2 bool
	for _, e := range sink.all() {
		if bytes.Equal(e, []byte(raw2)) {
			sawRawCall2 = true
		}
	}
	if !sawRawCall2 {
		t.Error("expected the post-limit turn's function-call event forwarded verbatim")
	}
	if stats.Iterations != 2 {
		t.Errorf("expected 2 iterations (limit turn + forwarded turn), got %d", stats.Iterations)
	}
	if stats.TerminationReason != "completed" {
		t.Errorf("expected completed once the forwarded turn's stream ends, got %q", stats.TerminationReason)
	}
}

// Past the limit, every event is forwarded raw without classification at
// all, so a turn that never reaches the limit is untouched by this path.
func TestOrchestrator_PastIterationLimitForwardsRawWithoutDispatch(t *testing.T) {
	raw := functionCallEvent("call_1", "refund policy")
	initial := newFakeStream(raw)
	backend := &countingBackend{}

	reqCtx := RequestContext{
		Config:          Config{MaxIterations: 0},
		ToolDefinitions: toolDefsWithVectorStore(),
		Provider:        &fakeProvider{},
	}
	orch := NewOrchestrator(reqCtx, backend, nil, discardLogger())

	sink := &fakeSink{}
	stats, err := orch.Run(context.Background(), initial, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Iterations != 1 {
		t.Errorf("expected exactly 1 iteration, got %d", stats.Iterations)
	}
	if backend.count() != 0 {
		t.Errorf("expected no search dispatched once past the iteration limit, got %d", backend.count())
	}
	if stats.TerminationReason != "completed" {
		t.Errorf("expected completed, got %q", stats.TerminationReason)
	}
	events := sink.all()
	if len(events) != 1 || string(events[0]) != raw {
		t.Errorf("expected the function-call event forwarded verbatim without classification, got %q", events)
	}
}

func TestOrchestrator_DuplicateQueriesDedupeViaCache(t *testing.T) {
	raw := functionCallEvent("call_1", "refund policy") + functionCallEvent("call_2", "refund policy")
	initial := newFakeStream(raw)
	backend := &countingBackend{resp: SearchResponse{Results: []SearchResult{{FileID: "f1"}}}}
	provider := &fakeProvider{next: newFakeStream("data: [DONE]\n\n")}

	reqCtx := RequestContext{
		Config:          Config{MaxIterations: 5, TimeoutSecs: 5, MaxResultsPerSearch: 10},
		ToolDefinitions: toolDefsWithVectorStore(),
		Provider:        provider,
	}
	orch := NewOrchestrator(reqCtx, backend, nil, discardLogger())

	sink := &fakeSink{}
	stats, err := orch.Run(context.Background(), initial, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.count() != 1 {
		t.Errorf("expected the backend to be called once for two identical queries, got %d", backend.count())
	}
	if stats.CacheHits != 1 {
		t.Errorf("expected 1 cache hit, got %d", stats.CacheHits)
	}
	if stats.SearchesExecuted != 1 {
		t.Errorf("expected 1 executed search, got %d", stats.SearchesExecuted)
	}
}

func TestOrchestrator_ClientDisconnectStopsCleanly(t *testing.T) {
	initial := newFakeStream("data: {\"type\":\"response.completed\"}\n\ndata: [DONE]\n\n")
	reqCtx := RequestContext{Config: Config{MaxIterations: 5}}
	orch := NewOrchestrator(reqCtx, &countingBackend{}, nil, discardLogger())

	failingSink := sinkFunc(func(b []byte) error { return errors.New("write: broken pipe") })
	stats, err := orch.Run(context.Background(), initial, failingSink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TerminationReason != "error" {
		t.Errorf("expected error termination on disconnect, got %q", stats.TerminationReason)
	}
}

type sinkFunc func([]byte) error

func (f sinkFunc) Send(b []byte) error { return f(b) }

func TestResolveToolDefVectorStoreIDs(t *testing.T) {
	defs := []map[string]any{
		{"type": "function", "name": "get_weather"},
		{"type": "file_search", "vector_store_ids": []any{"vs_1", "vs_2"}},
	}
	ids := resolveToolDefVectorStoreIDs(defs)
	if len(ids) != 2 || ids[0] != "vs_1" || ids[1] != "vs_2" {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestResolveToolDefVectorStoreIDs_NoFileSearchDef(t *testing.T) {
	defs := []map[string]any{{"type": "function", "name": "get_weather"}}
	if ids := resolveToolDefVectorStoreIDs(defs); ids != nil {
		t.Errorf("expected nil, got %v", ids)
	}
}
