package filesearch

import (
	"bytes"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// StreamRewriter inspects pass-through SSE events and, when one carries
// a response.content_part.done event for an output_text part, rewrites
// its part.annotations field to carry citation annotations resolved from
// the running CitationTracker. Every other event — including [DONE],
// non-JSON payloads, and any other event type — is forwarded
// byte-for-byte. If the tracker is empty, rewriting is skipped entirely
// and the event passes through untouched, since no citation could
// possibly resolve yet.
type StreamRewriter struct {
	tracker *CitationTracker
}

// NewStreamRewriter builds a rewriter bound to tracker. The tracker is
// shared (and mutated) by the orchestrator across the whole request; the
// rewriter only ever reads from it.
func NewStreamRewriter(tracker *CitationTracker) *StreamRewriter {
	return &StreamRewriter{tracker: tracker}
}

// Rewrite returns the event to forward downstream, rewritten if
// applicable. It never fails: any condition that prevents rewriting
// simply falls through to byte-for-byte pass-through.
func (w *StreamRewriter) Rewrite(event []byte) []byte {
	if w.tracker.Len() == 0 {
		return event
	}

	payload, ok := extractDataPayload(event)
	if !ok {
		return event
	}
	if !gjson.ValidBytes(payload) {
		return event
	}

	root := gjson.ParseBytes(payload)
	if root.Get("type").String() != "response.content_part.done" {
		return event
	}
	part := root.Get("part")
	if part.Get("type").String() != "output_text" {
		return event
	}
	text := part.Get("text")
	if !text.Exists() {
		return event
	}

	citations := w.tracker.ScanCitations(text.String())
	// sjson needs a concrete value it can marshal; an empty (nil) slice
	// should still become `[]`, not be omitted, so the rewritten event's
	// shape matches the wire contract exactly.
	if citations == nil {
		citations = []FileCitation{}
	}

	patched, err := sjson.SetBytes(append([]byte(nil), payload...), "part.annotations", citations)
	if err != nil {
		return event
	}

	return rebuildDataEvent(event, patched)
}

// rebuildDataEvent replaces the data: line's payload in an SSE event with
// newPayload, preserving any other lines and the original terminator
// bytes exactly.
func rebuildDataEvent(original, newPayload []byte) []byte {
	body := bytes.TrimRight(original, "\r\n")
	terminator := original[len(body):]

	lines := bytes.Split(body, []byte("\n"))
	var out bytes.Buffer
	replaced := false
	for i, line := range lines {
		trimmed := bytes.TrimRight(line, "\r")
		if !replaced && bytes.HasPrefix(trimmed, []byte("data:")) {
			out.WriteString("data: ")
			out.Write(newPayload)
			replaced = true
		} else {
			out.Write(line)
		}
		if i != len(lines)-1 {
			out.WriteByte('\n')
		}
	}
	out.Write(terminator)
	return out.Bytes()
}
