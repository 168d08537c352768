package s2v

import (
	"tsvr/fingerprint"
	"testing"
)

// buildSimpleTree wires Doc -> Page -> Group regions, where the Group region
// holds one Text record carrying two glyphs at spans 1 (byteLen 1) and 3
// (byteLen 2), matching spec's S6 scenario. A fourth region is allocated but
// never ingested.
func buildSimpleTree(t *testing.T) *Tree {
	t.Helper()
	tr := New()

	doc := tr.Start() // 1
	page := tr.Start() // 2
	group := tr.Start() // 3
	tr.Start()          // 4

	tr.PushSpan(SourceRegion{Region: doc, Idx: 0, Kind: KindPage, ChildRegion: page})
	tr.PushSpan(SourceRegion{Region: page, Idx: 0, Kind: KindGroup, ChildRegion: group})
	tr.PushSpan(SourceRegion{Region: group, Idx: 0, Kind: KindText, Glyphs: []SpanGlyph{
		{Span: 1, ByteLen: 1},
		{Span: 3, ByteLen: 2},
	}, Fingerprint: fingerprint.Fingerprint{Lo: 42}})

	return tr
}

func TestQueryElementPathsFindsTextLeaf(t *testing.T) {
	tr := buildSimpleTree(t)
	paths := tr.QueryElementPaths(3) // offset 3 falls in the second glyph's range [3,5)
	if len(paths) != 1 {
		t.Fatalf("expected exactly one path, got %d", len(paths))
	}
	path := paths[0]
	last := path[len(path)-1]
	if last.Kind != PointCharIndex || last.Index != 1 {
		t.Fatalf("expected path to end at CharIndex 1, got %+v", last)
	}
	// Page, Group, Text, CharIndex
	if len(path) != 4 {
		t.Fatalf("expected a 4-element path (Page,Group,Text,CharIndex), got %d: %+v", len(path), path)
	}
	if path[0].Kind != PointPage || path[1].Kind != PointGroup || path[2].Kind != PointText {
		t.Fatalf("unexpected path shape: %+v", path)
	}
}

func TestQueryRoundTripsSpanRange(t *testing.T) {
	tr := buildSimpleTree(t)
	paths := tr.QueryElementPaths(1)
	if len(paths) != 1 {
		t.Fatalf("expected one path for span 1, got %d", len(paths))
	}

	start, end, err := tr.Query(paths[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != 1 || end != 2 {
		t.Fatalf("expected span range [1,2), got [%d,%d)", start, end)
	}
}

func TestQueryMismatchedKindFailsTyped(t *testing.T) {
	tr := buildSimpleTree(t)
	_, _, err := tr.Query([]ElementPoint{{Kind: PointImage}})
	if err == nil {
		t.Fatalf("expected a typed error for mismatched kind")
	}
	qerr, ok := err.(*QueryError)
	if !ok {
		t.Fatalf("expected *QueryError, got %T", err)
	}
	if qerr.Expected != PointImage {
		t.Fatalf("expected Expected=PointImage, got %v", qerr.Expected)
	}
}

func TestQueryElementPathsUnknownSpanReturnsNil(t *testing.T) {
	tr := buildSimpleTree(t)
	if paths := tr.QueryElementPaths(999); paths != nil {
		t.Fatalf("expected nil for an unknown span, got %+v", paths)
	}
}
