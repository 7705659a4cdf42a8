package filesearch

import "testing"

func TestCitationTracker_ExtendAssignsMonotonicNumbers(t *testing.T) {
	tr := NewCitationTracker()

	first := tr.Extend(SearchResponse{Results: []SearchResult{
		{FileID: "f1", Filename: "a.pdf"},
		{FileID: "f2", Filename: "b.pdf"},
	}})
	if len(first) != 2 || first[0] != 1 || first[1] != 2 {
		t.Fatalf("expected [1 2], got %v", first)
	}

	second := tr.Extend(SearchResponse{Results: []SearchResult{
		{FileID: "f3", Filename: "c.pdf"},
	}})
	if len(second) != 1 || second[0] != 3 {
		t.Fatalf("expected [3] continuing the global sequence, got %v", second)
	}

	if tr.Len() != 3 {
		t.Errorf("expected Len() == 3, got %d", tr.Len())
	}
}

func TestCitationTracker_Resolve(t *testing.T) {
	tr := NewCitationTracker()
	tr.Extend(SearchResponse{Results: []SearchResult{{FileID: "f1", Filename: "a.pdf"}}})

	fileID, filename, ok := tr.Resolve(1)
	if !ok || fileID != "f1" || filename != "a.pdf" {
		t.Errorf("unexpected resolve: %q %q %v", fileID, filename, ok)
	}

	if _, _, ok := tr.Resolve(0); ok {
		t.Error("expected Resolve(0) to miss")
	}
	if _, _, ok := tr.Resolve(2); ok {
		t.Error("expected Resolve(2) to miss on a single-entry tracker")
	}
}

func TestScanCitations_BasicMatch(t *testing.T) {
	tr := NewCitationTracker()
	tr.Extend(SearchResponse{Results: []SearchResult{{FileID: "f1", Filename: "a.pdf"}}})

	cites := tr.ScanCitations("Refunds are processed within 30 days [Source 1].")
	if len(cites) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(cites))
	}
	if cites[0].FileID != "f1" || cites[0].Filename != "a.pdf" {
		t.Errorf("unexpected citation: %+v", cites[0])
	}
	want := len("Refunds are processed within 30 days ")
	if cites[0].Index != want {
		t.Errorf("expected index %d, got %d", want, cites[0].Index)
	}
}

func TestScanCitations_CaseAndWhitespaceTolerant(t *testing.T) {
	tr := NewCitationTracker()
	tr.Extend(SearchResponse{Results: []SearchResult{{FileID: "f1"}}})

	variants := []string{
		"[SOURCE 1]",
		"[source 1]",
		"[ Source   1 ]",
		"[Source1]",
	}
	for _, v := range variants {
		t.Run(v, func(t *testing.T) {
			cites := tr.ScanCitations(v)
			if len(cites) != 1 {
				t.Errorf("expected 1 citation for %q, got %d", v, len(cites))
			}
		})
	}
}

func TestScanCitations_UnknownSourceIsSkipped(t *testing.T) {
	tr := NewCitationTracker()
	tr.Extend(SearchResponse{Results: []SearchResult{{FileID: "f1"}}})

	cites := tr.ScanCitations("See [Source 99] for details.")
	if len(cites) != 0 {
		t.Errorf("expected 0 citations for unresolvable source, got %d", len(cites))
	}
}

func TestScanCitations_NonMatchingBracketsIgnored(t *testing.T) {
	tr := NewCitationTracker()
	tr.Extend(SearchResponse{Results: []SearchResult{{FileID: "f1"}}})

	cites := tr.ScanCitations("This is [not a citation] and neither is [Source].")
	if len(cites) != 0 {
		t.Errorf("expected 0 citations, got %d", len(cites))
	}
}

func TestScanCitations_OrderedByIndex(t *testing.T) {
	tr := NewCitationTracker()
	tr.Extend(SearchResponse{Results: []SearchResult{{FileID: "f1"}, {FileID: "f2"}}})

	cites := tr.ScanCitations("First [Source 2] then [Source 1].")
	if len(cites) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(cites))
	}
	if cites[0].Index > cites[1].Index {
		t.Error("expected citations sorted by byte index")
	}
	if cites[0].FileID != "f2" || cites[1].FileID != "f1" {
		t.Errorf("unexpected citation order: %+v", cites)
	}
}

func TestScanCitations_MultiByteTextBeforeMarker(t *testing.T) {
	tr := NewCitationTracker()
	tr.Extend(SearchResponse{Results: []SearchResult{{FileID: "f1"}}})

	text := "Café menu details [Source 1]."
	cites := tr.ScanCitations(text)
	if len(cites) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(cites))
	}
	if text[cites[0].Index] != '[' {
		t.Errorf("expected byte Index to point at '[', got byte %q", text[cites[0].Index])
	}
}
