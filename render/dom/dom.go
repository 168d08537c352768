// Package dom maintains one incremental DOM page per IR page: a raster
// canvas, an SVG tree, and a semantics overlay, repainted only where content
// actually changed.
package dom

import (
	"fmt"

	"github.com/gosimple/slug"

	"tsvr/vecir"
)

// Rect is an axis-aligned box in page-local points.
type Rect struct {
	X, Y, W, H vecir.Scalar
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Union returns the smallest rect containing both r and o.
func (r Rect) Union(o Rect) Rect {
	x0, y0 := minS(r.X, o.X), minS(r.Y, o.Y)
	x1, y1 := maxS(r.X+r.W, o.X+o.W), maxS(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func minS(a, b vecir.Scalar) vecir.Scalar {
	if a < b {
		return a
	}
	return b
}
func maxS(a, b vecir.Scalar) vecir.Scalar {
	if a > b {
		return a
	}
	return b
}

// RenderState fingerprints a prior canvas paint, so a subsequent repaint of
// the identical (content, pixel_per_pt) pair can be skipped entirely.
type RenderState struct {
	Content     vecir.Page
	PixelPerPt  float64
	initialized bool
}

func (s RenderState) matches(content vecir.Page, pixelPerPt float64) bool {
	return s.initialized && s.Content.Content == content.Content && s.PixelPerPt == pixelPerPt
}

// Page is one DOM page: its three sibling surfaces plus the dirty-tracking
// state that drives incremental repaint.
type Page struct {
	Bounds Rect

	SvgVisible    bool
	CanvasPainted bool

	svgStub    bool // true while the svg subtree has been swapped for a stub <g>
	lastRender RenderState
	damage     *Rect // accumulated damage since the last canvas paint, nil if none
}

// NewPage returns a page covering bounds, with nothing painted yet.
func NewPage(bounds Rect) *Page {
	return &Page{Bounds: bounds}
}

// MarkDamage records that the sub-items within r changed since the last
// canvas paint, growing the accumulated damage rectangle.
func (p *Page) MarkDamage(r Rect) {
	if p.damage == nil {
		d := r
		p.damage = &d
		return
	}
	u := p.damage.Union(r)
	p.damage = &u
}

// Relayout resets incremental state after a size or content change: the
// canvas's cached render state is cleared and any pending damage discarded,
// since the next paint must cover the whole page anyway.
func (p *Page) Relayout(bounds Rect) {
	p.Bounds = bounds
	p.lastRender = RenderState{}
	p.damage = nil
	p.CanvasPainted = false
}

// PaintResult describes one frame's repaint decision for a page.
type PaintResult struct {
	// SvgStubbed is true if the page's svg subtree was swapped for an
	// invisible stub because it doesn't intersect the viewport.
	SvgStubbed bool
	// FullRepaint is true if the whole page canvas was repainted (no prior
	// render matched); false means only Damage was clip-rendered.
	FullRepaint bool
	// Damage is the rectangle that was clip-rendered, valid only when
	// FullRepaint is false.
	Damage Rect
}

// Paint runs one frame's repaint pipeline for p against viewport, given the
// page's current content and pixel density. It implements, in order:
// viewport-intersection culling, canvas repaint (full or damage-clipped),
// and dirty-flag propagation.
func (p *Page) Paint(viewport Rect, content vecir.Page, pixelPerPt float64) PaintResult {
	var res PaintResult

	if !p.Bounds.Intersects(viewport) {
		p.svgStub = true
		p.SvgVisible = false
		res.SvgStubbed = true
		return res
	}
	if p.svgStub {
		p.svgStub = false
	}
	p.SvgVisible = true

	if !p.lastRender.matches(content, pixelPerPt) {
		res.FullRepaint = true
		p.lastRender = RenderState{Content: content, PixelPerPt: pixelPerPt, initialized: true}
		p.damage = nil
		p.CanvasPainted = true
		return res
	}

	if p.damage != nil {
		res.Damage = *p.damage
		p.damage = nil
	}
	p.CanvasPainted = true
	return res
}

// ClipVar renders a damage rectangle as the CSS custom properties the
// teacher's canvas layer reads to clip-paint just that band.
func ClipVar(r Rect) map[string]string {
	return map[string]string{
		"--reflexo-clip-lo-x": fnum(r.X),
		"--reflexo-clip-lo-y": fnum(r.Y),
		"--reflexo-clip-hi-x": fnum(r.X + r.W),
		"--reflexo-clip-hi-y": fnum(r.Y + r.H),
	}
}

func fnum(v vecir.Scalar) string {
	return fmt.Sprintf("%g", float64(v))
}

// FontLayerClass derives the same stable, CSS-safe class fragment the SVG
// backend uses for a font family, so a canvas fallback layer painted for a
// page can be scoped with a matching selector (e.g. to swap in a web font
// before the next full repaint).
func FontLayerClass(family string) string {
	if family == "" {
		return "font-unknown"
	}
	return "font-" + slug.Make(family)
}
