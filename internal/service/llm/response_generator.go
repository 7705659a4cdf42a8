package llm

import (
	"context"
	"log/slog"
)

// ResponseGenerator handles LLM response generation and streaming
// Phase 2: LLM Integration - Currently contains stub methods
type ResponseGenerator struct {
	logger *slog.Logger
}

// NewResponseGenerator creates a new response generator
func NewResponseGenerator(logger *slog.Logger) *ResponseGenerator {
	return &ResponseGenerator{
		logger: logger,
	}
}

// GenerateMockResponse generates a mock LLM response for a user turn
//
// Phase 2 TODO:
// 1. Fetch conversation path using GetTurnPath(ctx, userTurnID)
// 2. Build LLM context from conversation history
// 3. Create assistant turn with status="streaming"
// 4. Generate mock response word-by-word (every 0.1s for testing)
// 5. Append content blocks as chunks are generated
// 6. Update turn status to "complete" when done
// 7. Notify SSE stream of new content (if connected)
//
// Streaming behavior:
// - Stream chunks every ~0.1 seconds
// - Support cancellation via context or explicit call to CancelGeneration
// - Handle errors gracefully (set turn status to "error")
//
// Example mock response:
//   "The protagonist demonstrates growth through several key moments..."
//   (streamed word-by-word)
func (g *ResponseGenerator) GenerateMockResponse(ctx context.Context, userTurnID string) error {
	g.logger.Info("TODO: Generate mock LLM response (Phase 2)",
		"user_turn_id", userTurnID,
	)

	// TODO: Implement mock response generation with streaming
	// For now, this is a no-op stub

	return nil
}

// CancelGeneration cancels an ongoing LLM response generation
//
// Phase 2 TODO:
// 1. Stop the response generation goroutine
// 2. Update assistant turn status to "cancelled"
// 3. Close SSE stream connection (if active)
// 4. Return any partially generated content
//
// Cancellation should be graceful:
// - Complete current word/chunk before stopping
// - Save partial response to database
// - Allow user to continue from cancelled point or branch
func (g *ResponseGenerator) CancelGeneration(turnID string) error {
	g.logger.Info("TODO: Cancel LLM generation (Phase 2)",
		"turn_id", turnID,
	)

	// TODO: Implement cancellation logic

	return nil
}

// Phase 2 Implementation Notes:
//
// Architecture:
// - ResponseGenerator should be wired into CreateTurn handler
// - When user creates turn, trigger GenerateMockResponse asynchronously
// - Stream responses via SSE endpoint (GET /api/turns/:id/stream)
// - Store active streams in a concurrent-safe map
//
// Mock Response Format:
// - Generate thinking block first (if enabled)
// - Then generate text response block
// - Stream both as content_block_delta events
//
// Real LLM Integration (Future Phase 3):
// - Replace mock generator with real LLM client (Anthropic/OpenAI)
// - Handle tool use blocks (tool_use, tool_result)
// - Support extended thinking (signature field)
// - Add retry logic and error handling
