// Package glyph interns fonts and glyph references across a single IR
// build, so a font or glyph description is stored at most once regardless
// of how many text runs reference it.
package glyph

import (
	"sync"
)

// FontRef indexes into a build's font table.
type FontRef int

// Font describes a font face well enough to deduplicate and to recover its
// family/style for rendering; rasterization itself is out of scope.
type Font struct {
	Family   string
	Weight   int
	Italic   bool
	Stretch  int
	UnitsPerEm uint16
}

// keyFor builds a stable string key for map lookups, independent of
// Fingerprint (interning keys are structural, not content-addressed).
func keyFor(f Font) string {
	return f.Family + "\x00" +
		itoa(f.Weight) + "\x00" +
		boolStr(f.Italic) + "\x00" +
		itoa(f.Stretch) + "\x00" +
		itoa(int(f.UnitsPerEm))
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Glyph is a single glyph reference within a font, identified by its glyph
// index alone.
type Glyph struct {
	Index uint32
}

// GlyphRef identifies an interned glyph: which font, and the glyph's index
// into that build's glyph table.
type GlyphRef struct {
	Font FontRef
	Idx  int
}

type glyphKey struct {
	font FontRef
	idx  uint32
}

// Entry pairs an interned glyph with the font it belongs to, the shape that
// Module/IncrFontPack serialization expects.
type Entry struct {
	Font  FontRef
	Glyph Glyph
}

// Builder interns fonts and glyphs across a build. It is append-only within
// a compilation: growing the tables never invalidates a previously returned
// FontRef/GlyphRef.
type Builder struct {
	mu sync.Mutex

	fonts     []Font
	fontIndex map[string]FontRef

	glyphs     []Entry
	glyphIndex map[glyphKey]int

	fontBase  int // incremental_base for fonts
	glyphBase int // incremental_base for glyphs
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		fontIndex:  make(map[string]FontRef),
		glyphIndex: make(map[glyphKey]int),
	}
}

// BuildFont interns font, returning its existing ref if already seen.
func (b *Builder) BuildFont(font Font) FontRef {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := keyFor(font)
	if ref, ok := b.fontIndex[k]; ok {
		return ref
	}
	ref := FontRef(len(b.fonts))
	b.fonts = append(b.fonts, font)
	b.fontIndex[k] = ref
	return ref
}

// BuildGlyph interns (font, glyph), returning its existing ref if already
// seen under that font.
func (b *Builder) BuildGlyph(font FontRef, g Glyph) GlyphRef {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := glyphKey{font: font, idx: g.Index}
	if idx, ok := b.glyphIndex[k]; ok {
		return GlyphRef{Font: font, Idx: idx}
	}
	idx := len(b.glyphs)
	b.glyphs = append(b.glyphs, Entry{Font: font, Glyph: g})
	b.glyphIndex[k] = idx
	return GlyphRef{Font: font, Idx: idx}
}

// Finalize returns the complete font and glyph tables, for a non-incremental
// build.
func (b *Builder) Finalize() ([]Font, []Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fonts := append([]Font(nil), b.fonts...)
	glyphs := append([]Entry(nil), b.glyphs...)
	return fonts, glyphs
}

// FinalizeDelta returns only the fonts/glyphs appended since the last call
// (or since construction), then advances the incremental bases so the next
// call ships only what's new after that.
func (b *Builder) FinalizeDelta() ([]Font, []Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	newFonts := append([]Font(nil), b.fonts[b.fontBase:]...)
	newGlyphs := append([]Entry(nil), b.glyphs[b.glyphBase:]...)
	b.fontBase = len(b.fonts)
	b.glyphBase = len(b.glyphs)
	return newFonts, newGlyphs
}

// FontCount and GlyphCount report the current table sizes, mostly useful
// for tests and debug dumps.
func (b *Builder) FontCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.fonts)
}

func (b *Builder) GlyphCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.glyphs)
}
