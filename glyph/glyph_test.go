package glyph

import "testing"

func TestBuildFontDedup(t *testing.T) {
	b := NewBuilder()
	f := Font{Family: "Sans", Weight: 400, UnitsPerEm: 1000}
	r1 := b.BuildFont(f)
	r2 := b.BuildFont(f)
	if r1 != r2 {
		t.Fatalf("expected same ref for identical font, got %v != %v", r1, r2)
	}
	other := b.BuildFont(Font{Family: "Sans", Weight: 700, UnitsPerEm: 1000})
	if other == r1 {
		t.Fatalf("expected distinct ref for distinct font")
	}
	if b.FontCount() != 2 {
		t.Fatalf("expected 2 fonts, got %d", b.FontCount())
	}
}

func TestBuildGlyphDedup(t *testing.T) {
	b := NewBuilder()
	font := b.BuildFont(Font{Family: "Serif"})
	g1 := b.BuildGlyph(font, Glyph{Index: 12})
	g2 := b.BuildGlyph(font, Glyph{Index: 12})
	if g1 != g2 {
		t.Fatalf("expected dedup of identical glyph")
	}
	g3 := b.BuildGlyph(font, Glyph{Index: 13})
	if g3 == g1 {
		t.Fatalf("expected distinct glyph ref for distinct index")
	}
}

func TestFinalizeDelta(t *testing.T) {
	b := NewBuilder()
	font := b.BuildFont(Font{Family: "Mono"})
	b.BuildGlyph(font, Glyph{Index: 1})

	fonts, glyphs := b.FinalizeDelta()
	if len(fonts) != 1 || len(glyphs) != 1 {
		t.Fatalf("expected first delta to contain the one font/glyph, got %d/%d", len(fonts), len(glyphs))
	}

	fonts, glyphs = b.FinalizeDelta()
	if len(fonts) != 0 || len(glyphs) != 0 {
		t.Fatalf("expected empty delta when nothing new was added, got %d/%d", len(fonts), len(glyphs))
	}

	b.BuildGlyph(font, Glyph{Index: 2})
	fonts, glyphs = b.FinalizeDelta()
	if len(fonts) != 0 || len(glyphs) != 1 {
		t.Fatalf("expected delta with only the new glyph, got %d/%d", len(fonts), len(glyphs))
	}
}

func TestFinalizeReturnsEverything(t *testing.T) {
	b := NewBuilder()
	font := b.BuildFont(Font{Family: "X"})
	b.BuildGlyph(font, Glyph{Index: 1})
	b.BuildGlyph(font, Glyph{Index: 2})

	fonts, glyphs := b.Finalize()
	if len(fonts) != 1 || len(glyphs) != 2 {
		t.Fatalf("expected 1 font/2 glyphs, got %d/%d", len(fonts), len(glyphs))
	}
}
