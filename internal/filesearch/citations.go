package filesearch

import (
	"sort"
)

// sourceEntry is what the CitationTracker remembers about one assigned
// source number.
type sourceEntry struct {
	FileID   string
	Filename string
}

// CitationTracker accumulates source-number → (file_id, filename) across
// every turn of one request. Earlier entries are never overwritten.
// Numbering restarts at 1 within each batch passed to Extend, but the
// global source numbers it hands out are monotonically increasing across
// the whole request — see SPEC_FULL.md's CitationTracker section for the
// resolved open question this implements.
type CitationTracker struct {
	bySource []sourceEntry // index 0 == source 1
}

// NewCitationTracker returns an empty tracker.
func NewCitationTracker() *CitationTracker {
	return &CitationTracker{}
}

// Len reports how many sources have been assigned so far.
func (t *CitationTracker) Len() int {
	return len(t.bySource)
}

// Extend appends one SearchResponse's results as a fresh batch, assigning
// each a contiguous run of global source numbers starting at Len()+1. It
// returns those numbers in result order, matching the [Source N] numbers
// the same results were given in the ToolResult's formatted content.
func (t *CitationTracker) Extend(resp SearchResponse) []int {
	assigned := make([]int, 0, len(resp.Results))
	for _, r := range resp.Results {
		t.bySource = append(t.bySource, sourceEntry{FileID: r.FileID, Filename: r.Filename})
		assigned = append(assigned, len(t.bySource))
	}
	return assigned
}

// Resolve returns the (file_id, filename) for a 1-based source number, if
// known.
func (t *CitationTracker) Resolve(sourceNumber int) (fileID, filename string, ok bool) {
	if sourceNumber < 1 || sourceNumber > len(t.bySource) {
		return "", "", false
	}
	e := t.bySource[sourceNumber-1]
	return e.FileID, e.Filename, true
}

// FileCitation is the downstream annotation attached to a text part.
type FileCitation struct {
	Type     string `json:"type"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Index    int    `json:"index"`
}

// ScanCitations scans text for the pattern: opening bracket, optional
// whitespace, "source" (case-insensitive), optional whitespace, one or
// more decimal digits, optional whitespace, closing bracket. For each
// match that resolves to a known source it emits one FileCitation with
// Index equal to the byte offset of the opening bracket. Unknown source
// numbers produce no annotation. Results are sorted by Index (they are
// already produced in that order by the single left-to-right scan, but
// sorting documents the guarantee explicitly).
func (t *CitationTracker) ScanCitations(text string) []FileCitation {
	var out []FileCitation
	b := []byte(text)
	i := 0
	for i < len(b) {
		if b[i] != '[' {
			i++
			continue
		}
		start := i
		j := i + 1
		j = skipSpaces(b, j)
		if !hasWordAt(b, j, "source") {
			i++
			continue
		}
		j += len("source")
		j = skipSpaces(b, j)
		digitsStart := j
		for j < len(b) && b[j] >= '0' && b[j] <= '9' {
			j++
		}
		if j == digitsStart {
			i++
			continue
		}
		numStr := string(b[digitsStart:j])
		j = skipSpaces(b, j)
		if j >= len(b) || b[j] != ']' {
			i++
			continue
		}
		// Full match: start..j (inclusive of ']').
		n := parsePositiveInt(numStr)
		if n > 0 {
			if fileID, filename, ok := t.Resolve(n); ok {
				out = append(out, FileCitation{
					Type:     "file_citation",
					FileID:   fileID,
					Filename: filename,
					Index:    start,
				})
			}
		}
		i = j + 1
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out
}

func skipSpaces(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return i
}

// hasWordAt reports whether b[i:] starts with word, matched
// case-insensitively.
func hasWordAt(b []byte, i int, word string) bool {
	if i+len(word) > len(b) {
		return false
	}
	for k := 0; k < len(word); k++ {
		c := b[i+k]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != word[k] {
			return false
		}
	}
	return true
}

func parsePositiveInt(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
		if n > 1<<30 {
			return 1 << 30
		}
	}
	return n
}
