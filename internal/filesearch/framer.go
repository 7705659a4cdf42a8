package filesearch

import "bytes"

// SseFramer turns an arbitrary byte stream into a sequence of complete
// SSE events. An event is a byte sequence terminated by "\n\n" or
// "\r\n\r\n"; the terminator is included in the returned event. The
// framer never looks inside an event — it has no opinion on what SSE is,
// only where one frame ends and the next begins.
//
// It tolerates events split at any byte boundary, including mid-
// terminator: a chunk boundary that lands between the '\r' and the final
// '\n' of "\r\n\r\n" is handled correctly because drainEvents only
// commits to a terminator once it has seen it in full.
type SseFramer struct {
	buf []byte
}

// NewSseFramer returns an empty framer.
func NewSseFramer() *SseFramer {
	return &SseFramer{}
}

// Append adds bytes to the framer's internal buffer. It never fails.
func (f *SseFramer) Append(b []byte) {
	f.buf = append(f.buf, b...)
}

// DrainEvents returns every complete event currently present, in order,
// and removes them from the internal buffer. Each returned slice is a
// copy — safe to retain across the next Append/DrainEvents call.
func (f *SseFramer) DrainEvents() [][]byte {
	var events [][]byte
	start := 0
	for {
		idx, termLen := findTerminator(f.buf[start:])
		if idx < 0 {
			break
		}
		end := start + idx + termLen
		event := make([]byte, end-start)
		copy(event, f.buf[start:end])
		events = append(events, event)
		start = end
	}
	if start > 0 {
		remaining := len(f.buf) - start
		copy(f.buf, f.buf[start:])
		f.buf = f.buf[:remaining]
	}
	return events
}

// TakePartial returns any trailing incomplete data currently buffered and
// clears it.
func (f *SseFramer) TakePartial() []byte {
	if len(f.buf) == 0 {
		return nil
	}
	partial := make([]byte, len(f.buf))
	copy(partial, f.buf)
	f.buf = f.buf[:0]
	return partial
}

// findTerminator reports the byte offset and length of the first "\n\n"
// or "\r\n\r\n" found in b, or (-1, 0) if neither is present. When both
// could match at the same position ("\r\n\n\n" type ambiguity does not
// arise in well-formed SSE, but if it did) the longer terminator wins by
// virtue of \r\n\r\n being checked first at that position.
func findTerminator(b []byte) (int, int) {
	lf := bytes.Index(b, []byte("\n\n"))
	crlf := bytes.Index(b, []byte("\r\n\r\n"))
	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case lf < 0:
		return crlf, 4
	case crlf < 0:
		return lf, 2
	case crlf <= lf:
		return crlf, 4
	default:
		return lf, 2
	}
}
