// Package sem produces the semantics overlay: an HTML layer of invisible,
// selectable text blocks aligned to the glyphs the SVG/canvas surfaces draw,
// so that text selection and screen readers see real content.
package sem

import (
	"sort"

	"tsvr/vecir"
)

// Span is one overlay element: an absolutely-positioned box carrying either
// real text (aligned to a Text item's glyph run) or an invisible fallback
// spacer covering a gap between text blocks.
type Span struct {
	X, Y, W, H vecir.Scalar

	FontSize   vecir.Scalar
	LineHeight vecir.Scalar
	// ScaleX is the horizontal transform needed to stretch the span's
	// natural-width rendering of Text to the measured glyph-advance width W.
	ScaleX float64

	Text     string
	Fallback bool
}

// defaultLineHeightRatio mirrors common browser default line-box sizing;
// the spec leaves the exact ratio unspecified so this picks a conventional
// CSS default.
const defaultLineHeightRatio = 1.2

// TextSpan builds the overlay span for one Text item, positioned at pos
// (the item's origin after all ancestor transforms have been applied).
func TextSpan(pos vecir.Point, shape vecir.TextShape, content vecir.TextContent) Span {
	var advance vecir.Scalar
	for _, g := range content.Glyphs {
		advance += g.XAdvance
	}

	scaleX := 1.0
	if natural := float64(shape.EmSize) * float64(len([]rune(content.UTF8))) * 0.5; natural > 0 {
		scaleX = float64(advance) / natural
	}

	return Span{
		X:          pos.X,
		Y:          pos.Y,
		W:          advance,
		H:          shape.EmSize,
		FontSize:   shape.EmSize,
		LineHeight: vecir.Scalar(float64(shape.EmSize) * defaultLineHeightRatio),
		ScaleX:     scaleX,
		Text:       content.UTF8,
	}
}

// FallbackSpans fills parts of pageSize outside the spans in occupied with
// invisible spacer spans, so a cursor drag across non-text regions (images,
// shapes, whitespace) still selects contiguously instead of jumping between
// text blocks. It emits full-width bands above, between and below rows of
// spans, and for each span a strip from the page's left edge to the span's
// X; the area to the right of a span is not covered.
func FallbackSpans(pageSize vecir.Size, occupied []Span) []Span {
	if len(occupied) == 0 {
		return []Span{{X: 0, Y: 0, W: pageSize.X, H: pageSize.Y, Fallback: true}}
	}

	rows := append([]Span(nil), occupied...)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Y != rows[j].Y {
			return rows[i].Y < rows[j].Y
		}
		return rows[i].X < rows[j].X
	})

	var out []Span
	cursorY := vecir.Scalar(0)
	for _, r := range rows {
		if r.Y > cursorY {
			out = append(out, Span{X: 0, Y: cursorY, W: pageSize.X, H: r.Y - cursorY, Fallback: true})
		}
		if r.X > 0 {
			out = append(out, Span{X: 0, Y: r.Y, W: r.X, H: r.H, Fallback: true})
		}
		rowBottom := r.Y + r.H
		if rowBottom > cursorY {
			cursorY = rowBottom
		}
	}
	if cursorY < pageSize.Y {
		out = append(out, Span{X: 0, Y: cursorY, W: pageSize.X, H: pageSize.Y - cursorY, Fallback: true})
	}
	return out
}

// Compressor maps distinct rect-edge coordinate values to a monotonically
// increasing integer label, so downstream layout comparisons (e.g. "does
// this span start before that one") reduce to integer comparisons instead
// of float equality/epsilon games.
type Compressor struct {
	seen   map[vecir.Scalar]struct{}
	sorted []vecir.Scalar
	labels map[vecir.Scalar]int
	final  bool
}

// NewCompressor returns an empty coordinate compressor.
func NewCompressor() *Compressor {
	return &Compressor{seen: make(map[vecir.Scalar]struct{})}
}

// Add registers v as a coordinate value to be labeled. Must be called
// before Finalize.
func (c *Compressor) Add(v vecir.Scalar) {
	if c.final {
		panic("sem: Add called after Finalize")
	}
	if _, ok := c.seen[v]; ok {
		return
	}
	c.seen[v] = struct{}{}
	c.sorted = append(c.sorted, v)
}

// Finalize sorts the registered values and assigns each a label in
// increasing order. Must be called once, after all Add calls.
func (c *Compressor) Finalize() {
	sort.Slice(c.sorted, func(i, j int) bool { return c.sorted[i] < c.sorted[j] })
	c.labels = make(map[vecir.Scalar]int, len(c.sorted))
	for i, v := range c.sorted {
		c.labels[v] = i
	}
	c.final = true
}

// Label returns v's integer label. Panics if v was never Add-ed or
// Finalize hasn't run yet.
func (c *Compressor) Label(v vecir.Scalar) int {
	if !c.final {
		panic("sem: Label called before Finalize")
	}
	l, ok := c.labels[v]
	if !ok {
		panic("sem: Label called on an unregistered value")
	}
	return l
}

// Len reports the number of distinct labeled values.
func (c *Compressor) Len() int { return len(c.sorted) }
