package filesearch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Sink is the downstream writer the Orchestrator streams SSE bytes to.
// An error return signals the client disconnected (or the write
// otherwise failed); the Orchestrator treats this as cause to terminate
// the whole task silently, dropping any remaining work.
type Sink interface {
	Send(b []byte) error
}

// Stats summarizes how one request's orchestration ended. Useful for the
// MetricsSink and for tests asserting on terminal state without scraping
// the emitted byte stream.
type Stats struct {
	Iterations        int
	SearchesExecuted  int
	CacheHits         int
	TerminationReason string // "completed", "no_callback", "error", "timeout"
}

// Orchestrator drives one client request end to end: reading upstream
// SSE, detecting tool calls, dispatching searches in parallel, emitting
// synthetic lifecycle events, rewriting citations into pass-through
// events, and pumping continuation turns until a terminal turn or the
// iteration budget is exhausted.
//
// One Orchestrator instance is built per request; none of its owned
// state (QueryCache, CitationTracker) is shared across requests.
type Orchestrator struct {
	reqCtx     RequestContext
	classifier *EventClassifier
	executor   *SearchExecutor
	builder    *ContinuationBuilder
	lifecycle  *LifecycleEmitter
	tracker    *CitationTracker
	cache      *QueryCache
	rewriter   *StreamRewriter
	metrics    MetricsSink
	logger     *slog.Logger
}

// NewOrchestrator builds an Orchestrator for one request.
func NewOrchestrator(reqCtx RequestContext, backend SearchBackend, metrics MetricsSink, logger *slog.Logger) *Orchestrator {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	tracker := NewCitationTracker()
	return &Orchestrator{
		reqCtx:     reqCtx,
		classifier: NewEventClassifier(),
		executor:   NewSearchExecutor(backend, reqCtx.Config),
		builder:    NewContinuationBuilder(),
		lifecycle:  NewLifecycleEmitter(reqCtx.IncludeResults),
		tracker:    tracker,
		cache:      NewQueryCache(),
		rewriter:   NewStreamRewriter(tracker),
		metrics:    metrics,
		logger:     logger,
	}
}

// pendingCall bundles a detected ToolCall with the raw bytes of the event
// it was detected in, so those bytes can be forwarded verbatim if the
// turn has to bail out before completing (no callback, search failure,
// continuation failure).
type pendingCall struct {
	call      ToolCall
	rawEvent  []byte
	outputIdx int
}

// Run drives the full state machine described in the engine's design,
// streaming bytes to sink as they're ready. It returns once the request
// reaches a terminal turn, the iteration budget is exhausted, or the
// client disconnects.
func (o *Orchestrator) Run(ctx context.Context, initial StreamingResponse, sink Sink) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sendCh := make(chan []byte, 32)
	disconnected := make(chan struct{})
	go func() {
		for b := range sendCh {
			if err := sink.Send(b); err != nil {
				cancel()
				close(disconnected)
				for range sendCh {
					// drain without writing so producers relying on
					// send() unblock instead of hanging forever.
				}
				return
			}
		}
	}()
	send := func(b []byte) bool {
		select {
		case sendCh <- b:
			return true
		case <-ctx.Done():
			return false
		}
	}
	defer close(sendCh)

	stats := Stats{}
	currentStream := initial
	vectorStoreIDs := resolveToolDefVectorStoreIDs(o.reqCtx.ToolDefinitions)

	for {
		stats.Iterations++
		iteration := uint(stats.Iterations)
		// Two distinct thresholds: a turn at the limit still dispatches its
		// tool calls and strips file_search from the continuation it
		// builds (stripFinal); only a turn past the limit is forwarded
		// raw without classification at all (atLimit).
		atLimit := iteration > o.reqCtx.Config.MaxIterations
		stripFinal := iteration == o.reqCtx.Config.MaxIterations

		framer := NewSseFramer()
		var batch []pendingCall
		outputIdx := 0

		readErr := o.readTurn(ctx, currentStream, framer, atLimit, send, func(event []byte) {
			calls, ok := o.classifier.Classify(event)
			if !ok {
				if !send(o.rewriter.Rewrite(event)) {
					return
				}
				return
			}
			for _, c := range calls {
				if len(c.VectorStoreIDs) == 0 {
					c.VectorStoreIDs = vectorStoreIDs
				}
				batch = append(batch, pendingCall{call: c, rawEvent: event, outputIdx: outputIdx})
				outputIdx++
			}
		})
		currentStream.Close()

		if readErr == errDisconnected {
			stats.TerminationReason = "error"
			return stats, nil
		}

		partial := framer.TakePartial()
		if len(partial) > 0 {
			if !(len(batch) > 0 && o.reqCtx.Provider != nil) {
				if !send(partial) {
					stats.TerminationReason = "error"
					return stats, nil
				}
			}
		}

		// Decide
		if len(batch) == 0 {
			stats.TerminationReason = "completed"
			o.metrics.Terminated("completed")
			return stats, nil
		}
		if o.reqCtx.Provider == nil {
			if !forwardRaw(batch, send) {
				stats.TerminationReason = "error"
				return stats, nil
			}
			stats.TerminationReason = "no_callback"
			o.metrics.Terminated("no_callback")
			return stats, nil
		}

		// Dispatch
		for _, pc := range batch {
			if !send(o.lifecycle.InProgress(pc.outputIdx, pc.call.ID)) {
				stats.TerminationReason = "error"
				return stats, nil
			}
		}

		results, failed, failKind := o.dispatch(ctx, batch, send, &stats)
		if failed {
			forwardRaw(batch, send)
			reason := "error"
			if failKind == KindTimeout {
				reason = "timeout"
			}
			stats.TerminationReason = reason
			o.metrics.Terminated(reason)
			return stats, nil
		}

		// Emit
		calls := make([]ToolCall, len(batch))
		for i, pc := range batch {
			calls[i] = pc.call
		}
		for i, pc := range batch {
			res := results[i]
			o.tracker.Extend(res.Raw)
			if !send(o.lifecycle.OutputItemDone(pc.call.ID, pc.call.Query, res.Raw.Results)) {
				stats.TerminationReason = "error"
				return stats, nil
			}
			if !send(o.lifecycle.Completed(pc.outputIdx, pc.call.ID)) {
				stats.TerminationReason = "error"
				return stats, nil
			}
		}

		// Continue
		payload := o.builder.Build(o.reqCtx.OriginalPayload, calls, results, stripFinal)
		next, err := o.reqCtx.Provider.Call(ctx, payload)
		if err != nil {
			forwardRaw(batch, send)
			stats.TerminationReason = "error"
			o.metrics.Terminated("error")
			return stats, nil
		}
		currentStream = next
	}
}

var errDisconnected = newError(KindProviderError, "client disconnected", nil)

// readTurn pumps chunks from stream into framer until the stream ends.
// When atLimit is true every complete event is rewritten and forwarded
// directly, without classification — this turn is past the iteration
// budget and its continuation, if any, was already built with
// file_search stripped, so no further tool call is expected. Otherwise
// each event is handed to onEvent, which classifies it and either
// withholds it (tool call detected) or rewrites and forwards it.
func (o *Orchestrator) readTurn(ctx context.Context, stream StreamingResponse, framer *SseFramer, atLimit bool, send func([]byte) bool, onEvent func([]byte)) error {
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return errDisconnected
		default:
		}

		n, err := stream.Read(buf)
		if n > 0 {
			framer.Append(buf[:n])
			for _, ev := range framer.DrainEvents() {
				if atLimit {
					if !send(o.rewriter.Rewrite(ev)) {
						return errDisconnected
					}
					continue
				}
				onEvent(ev)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			o.logger.Warn("filesearch: upstream read error", "error", err)
			return nil
		}
	}
}

// dispatch runs the search futures for one batch in parallel, preserving
// order, and reports whether any failed along with the Kind of the first
// failure (used to pick the right termination metric — a timed-out
// search reports "timeout", anything else reports "error"). Calls that
// share a cache key (identical query/filters/vector-store-ids within the
// same batch, not just across turns) are collapsed into a single backend
// invocation, whose result is then fanned out to every sharing index.
func (o *Orchestrator) dispatch(ctx context.Context, batch []pendingCall, send func([]byte) bool, stats *Stats) ([]ToolResult, bool, Kind) {
	results := make([]ToolResult, len(batch))
	failedKinds := make([]Kind, len(batch))
	groups := make(map[string][]int)

	for i, pc := range batch {
		if !send(o.lifecycle.Searching(pc.outputIdx, pc.call.ID)) {
			failedKinds[i] = KindProviderError
			continue
		}

		key := CacheKey(pc.call)
		if cached, ok := o.cache.Get(key); ok {
			o.metrics.CacheResult(true)
			stats.CacheHits++
			rebound := cached
			rebound.ToolCallID = pc.call.ID
			results[i] = rebound
			continue
		}
		if len(groups[key]) > 0 {
			// An earlier call in this batch already owns the backend
			// invocation for this key; this call is served from it.
			o.metrics.CacheResult(true)
			stats.CacheHits++
		} else {
			o.metrics.CacheResult(false)
		}
		groups[key] = append(groups[key], i)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for key, indices := range groups {
		wg.Add(1)
		go func(key string, indices []int) {
			defer wg.Done()
			pc := batch[indices[0]]
			start := time.Now()
			res, err := o.executor.Execute(ctx, pc.call, o.reqCtx.Auth)
			o.metrics.SearchLatency(time.Since(start).Seconds())
			if err != nil {
				o.logger.Warn("filesearch: search failed", "tool_call_id", pc.call.ID, "error", err)
				kind := KindSearchFailed
				if fsErr, ok := err.(*Error); ok {
					kind = fsErr.Kind
				}
				mu.Lock()
				for _, idx := range indices {
					failedKinds[idx] = kind
				}
				mu.Unlock()
				return
			}
			mu.Lock()
			o.cache.Insert(key, res)
			for _, idx := range indices {
				rebound := res
				rebound.ToolCallID = batch[idx].call.ID
				results[idx] = rebound
			}
			stats.SearchesExecuted++
			mu.Unlock()
		}(key, indices)
	}

	wg.Wait()

	for _, k := range failedKinds {
		if k != "" {
			return nil, true, k
		}
	}
	return results, false, ""
}

// forwardRaw sends every pending call's original raw event bytes, in
// order. It returns false if the client disconnected partway through.
func forwardRaw(batch []pendingCall, send func([]byte) bool) bool {
	for _, pc := range batch {
		if !send(pc.rawEvent) {
			return false
		}
	}
	return true
}

// resolveToolDefVectorStoreIDs scans the request's original tool
// definitions for a file_search declaration's configured vector-store
// ids — the source of truth every detected ToolCall inherits from,
// since the wire event itself never carries them (see spec's §4.2 rule
// 2 commentary).
func resolveToolDefVectorStoreIDs(defs []map[string]any) []string {
	for _, def := range defs {
		if def["type"] != "file_search" {
			continue
		}
		raw, ok := def["vector_store_ids"]
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			continue
		}
		ids := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok {
				ids = append(ids, s)
			}
		}
		return ids
	}
	return nil
}
