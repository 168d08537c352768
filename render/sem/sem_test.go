package sem

import (
	"testing"

	"tsvr/glyph"
	"tsvr/vecir"
)

func TestTextSpanMeasuresWidthFromGlyphAdvances(t *testing.T) {
	shape := vecir.TextShape{EmSize: 12}
	content := vecir.TextContent{
		UTF8: "hi",
		Glyphs: []vecir.GlyphInstance{
			{XOffset: 0, XAdvance: 6, Glyph: glyph.GlyphRef{Idx: 1}},
			{XOffset: 6, XAdvance: 7, Glyph: glyph.GlyphRef{Idx: 2}},
		},
	}
	span := TextSpan(vecir.Point{X: 10, Y: 20}, shape, content)
	if span.W != 13 {
		t.Fatalf("expected width 13, got %v", span.W)
	}
	if span.X != 10 || span.Y != 20 {
		t.Fatalf("expected span positioned at the text origin, got (%v,%v)", span.X, span.Y)
	}
	if span.Fallback {
		t.Fatalf("expected a real text span, not a fallback")
	}
}

func TestFallbackSpansCoverWholePageWhenNoText(t *testing.T) {
	spans := FallbackSpans(vecir.Size{X: 100, Y: 100}, nil)
	if len(spans) != 1 || !spans[0].Fallback {
		t.Fatalf("expected one full-page fallback span, got %+v", spans)
	}
}

func TestFallbackSpansFillGapsAroundText(t *testing.T) {
	text := Span{X: 10, Y: 10, W: 20, H: 10}
	spans := FallbackSpans(vecir.Size{X: 100, Y: 50}, []Span{text})
	for _, s := range spans {
		if !s.Fallback {
			t.Fatalf("expected only fallback spans in the result, got %+v", s)
		}
	}
	if len(spans) == 0 {
		t.Fatalf("expected at least one fallback span around the text block")
	}
}

func TestCompressorAssignsMonotonicLabels(t *testing.T) {
	c := NewCompressor()
	c.Add(5)
	c.Add(1)
	c.Add(3)
	c.Add(1) // duplicate, should not add a new label
	c.Finalize()

	if c.Len() != 3 {
		t.Fatalf("expected 3 distinct labels, got %d", c.Len())
	}
	if c.Label(1) != 0 || c.Label(3) != 1 || c.Label(5) != 2 {
		t.Fatalf("expected sorted monotonic labels, got 1=%d 3=%d 5=%d", c.Label(1), c.Label(3), c.Label(5))
	}
}

func TestCompressorPanicsOnUnregisteredLookup(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for an unregistered value")
		}
	}()
	c := NewCompressor()
	c.Add(1)
	c.Finalize()
	c.Label(99)
}
