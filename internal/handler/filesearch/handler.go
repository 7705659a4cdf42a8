// Package filesearch (handler) wires the interception engine to an HTTP
// endpoint, in the same streaming style as internal/handler/sse_handler.go.
package filesearch

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"fsgateway/internal/filesearch"
)

// AuthResolver resolves the request's already-authenticated identity
// into the auth context the core passes through to the search backend.
// Authentication itself is out of scope for this package — by the time a
// request reaches Handler, it has already passed through the existing
// JWT/JWKS middleware.
type AuthResolver func(c *fiber.Ctx) filesearch.AuthContext

// Handler exposes the interception engine as POST /api/llm/responses.
type Handler struct {
	backend  filesearch.SearchBackend
	provider filesearch.ProviderCallback
	metrics  filesearch.MetricsSink
	cfg      filesearch.Config
	resolve  AuthResolver
	logger   *slog.Logger
}

// New builds a Handler. metrics may be nil (defaults to NoopMetrics
// inside the Orchestrator).
func New(backend filesearch.SearchBackend, provider filesearch.ProviderCallback, metrics filesearch.MetricsSink, cfg filesearch.Config, resolve AuthResolver, logger *slog.Logger) *Handler {
	return &Handler{backend: backend, provider: provider, metrics: metrics, cfg: cfg, resolve: resolve, logger: logger}
}

// fiberSink adapts a fiber body-stream writer to filesearch.Sink: each
// Send is one write-then-flush, and a flush error (client disconnect) is
// surfaced as the Sink error the Orchestrator treats as a hard stop.
type fiberSink struct {
	w *bufio.Writer
}

func (s fiberSink) Send(b []byte) error {
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	return s.w.Flush()
}

// StreamResponses handles POST /api/llm/responses: it decodes the
// client's Responses-API request, preprocesses file_search tool
// declarations, calls the upstream provider for the first turn, then
// drives the Orchestrator, streaming every emitted or forwarded byte
// straight to the client.
func (h *Handler) StreamResponses(c *fiber.Ctx) error {
	var payload map[string]any
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if !h.cfg.Enabled {
		// NotConfigured: skip interception entirely, pass the stream
		// through unchanged. Still performed via the Orchestrator with a
		// MaxIterations of 1 and no classification would be more
		// elaborate than necessary — instead, a disabled gateway simply
		// proxies the first upstream response's bytes as they arrive.
		return h.passthroughOnly(c, payload)
	}

	toolDefs := extractToolDefs(payload)
	payload = filesearch.PreprocessToolDeclarations(payload)

	auth := filesearch.AuthContext{}
	if h.resolve != nil {
		auth = h.resolve(c)
	}

	initial, err := h.provider.Call(c.Context(), withStream(payload))
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "upstream provider call failed")
	}

	reqCtx := filesearch.RequestContext{
		OriginalPayload: payload,
		ToolDefinitions: toolDefs,
		Auth:            auth,
		Config:          h.cfg,
		IncludeResults:  includeResultsRequested(payload),
		Provider:        h.provider,
	}
	orch := filesearch.NewOrchestrator(reqCtx, h.backend, h.metrics, h.logger)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Status(fiber.StatusOK).Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		stats, err := orch.Run(context.Background(), initial, fiberSink{w: w})
		if err != nil {
			h.logger.Error("filesearch orchestrator error", "error", err)
			return
		}
		h.logger.Debug("filesearch request complete",
			"iterations", stats.Iterations,
			"searches_executed", stats.SearchesExecuted,
			"cache_hits", stats.CacheHits,
			"termination_reason", stats.TerminationReason,
		)
	})

	return nil
}

// passthroughOnly streams the upstream provider's response verbatim,
// with no interception at all — the NotConfigured policy from the
// engine's error-handling design.
func (h *Handler) passthroughOnly(c *fiber.Ctx, payload map[string]any) error {
	resp, err := h.provider.Call(c.Context(), withStream(payload))
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "upstream provider call failed")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Status(fiber.StatusOK).Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer resp.Close()
		buf := make([]byte, 32*1024)
		for {
			n, readErr := resp.Read(buf)
			if n > 0 {
				if _, err := w.Write(buf[:n]); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
			if readErr != nil {
				return
			}
		}
	})
	return nil
}

func withStream(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["stream"] = true
	return out
}

// extractToolDefs pulls the original tools[] list (before preprocessing
// rewrote file_search entries) into the shape RequestContext expects.
func extractToolDefs(payload map[string]any) []map[string]any {
	tools, ok := payload["tools"].([]any)
	if !ok {
		return nil
	}
	defs := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		if tm, ok := t.(map[string]any); ok {
			defs = append(defs, tm)
		}
	}
	return defs
}

// includeResultsRequested reports whether the client's include set asked
// for file_search_call.results.
func includeResultsRequested(payload map[string]any) bool {
	include, ok := payload["include"].([]any)
	if !ok {
		return false
	}
	for _, v := range include {
		if s, ok := v.(string); ok && s == "file_search_call.results" {
			return true
		}
	}
	return false
}
