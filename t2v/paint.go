package t2v

import (
	"context"

	"tsvr/doc"
	"tsvr/fingerprint"
	"tsvr/vecir"
)

// paintScale carries whatever natural-extent context is available at a
// lowerPaint call site: a shape's bounding box, or a text run's font
// metrics. Exactly one half is populated, matching the shape/text call
// sites below.
type paintScale struct {
	bbox   vecir.Size
	upem   uint16
	emSize vecir.Scalar
}

// shapeScale is the paintScale for a shape fill/stroke, keyed on its
// bounding box.
func shapeScale(bbox vecir.Size) paintScale { return paintScale{bbox: bbox} }

// textScale is the paintScale for a text run's fill/stroke, keyed on the
// font's units-per-em and the run's em size.
func textScale(upem uint16, emSize vecir.Scalar) paintScale {
	return paintScale{upem: upem, emSize: emSize}
}

// lowerPaint resolves an input Paint's own transform per RelativeTo and
// stores any embedded pattern/gradient as its own interior item, wrapped in
// an ItemItem carrying that resolved transform when it isn't the identity.
// Returns a vecir.Paint that carries a solid color or a `@<fingerprint>`
// reference (to either the bare Pattern/Gradient item or its transform
// wrapper).
func (b *Builder) lowerPaint(p doc.Paint, scale paintScale, isText bool) vecir.Paint {
	switch p.Kind {
	case doc.PaintSourcePattern:
		fp := b.lowerPattern(*p.Pattern)
		return vecir.Paint{Kind: vecir.PaintPattern, Ref: b.wrapPaintTransform(fp, p, scale, isText)}
	case doc.PaintSourceGradient:
		fp := b.lowerGradient(*p.Gradient)
		return vecir.Paint{Kind: vecir.PaintGradient, Ref: b.wrapPaintTransform(fp, p, scale, isText)}
	default:
		return vecir.Paint{Kind: vecir.PaintSolid, Color: p.Color}
	}
}

// wrapPaintTransform resolves p's own transform and, when it isn't the
// identity, stores an ItemItem{TransformMatrix} wrapping fp — the same
// "wrap the interned pattern/gradient in a separate transform node"
// construction the upstream pass uses (there: a dedicated ColorTransform
// item; here: the existing ItemItem/ItemTransform affine wrapper already
// used for Group transforms and clips, reused rather than duplicated).
func (b *Builder) wrapPaintTransform(fp fingerprint.Fingerprint, p doc.Paint, scale paintScale, isText bool) fingerprint.Fingerprint {
	m := resolvePaintTransform(p, scale, isText)
	if m.IsIdentity() {
		return fp
	}
	return b.Store(vecir.ItemItem{
		Transform: vecir.ItemTransform{Kind: vecir.TransformMatrix, Matrix: m},
		Child:     fp,
	})
}

// resolvePaintTransform resolves a Paint's own transform against RelativeTo,
// the bounding box or text metrics in scale, and p's own declared Transform.
//
// Text always resolves to the upem/em-size scale with a Y-flip
// (ir::Transform::from_scale(upem/size, -upem/size) upstream), regardless of
// RelativeTo or paint kind: upstream's paint_transform folds that scale in
// unconditionally for text, either returning it directly or post-concatting
// it onto whatever the RelativeTo branch produced.
//
// For shapes, only RelativeToBoundingBox gradients get a non-identity
// transform (the shape's own bbox scale, zero-guarded the same way
// FixSize is). RelativeToBoundingBox patterns resolve to identity upstream
// too (a pattern's tile is already sized in absolute units, so "relative to
// its own bounding box" needs no extra scaling). RelativeToSelf (frame-
// relative) is approximated as identity for both kinds: upstream resolves it
// against the accumulated inverse transform of the containing frame
// (state.inv_transform()/state.body_inv_transform()), and this builder has
// no such transform stack across nested frames — see DESIGN.md.
func resolvePaintTransform(p doc.Paint, scale paintScale, isText bool) vecir.Matrix {
	var m vecir.Matrix
	switch {
	case isText:
		m = textScaleMatrix(scale.upem, scale.emSize)
	case p.RelativeTo == vecir.RelativeToBoundingBox && p.Kind == doc.PaintSourceGradient:
		size := vecir.FixSize(scale.bbox)
		m = vecir.Matrix{A: float64(size.X), D: float64(size.Y)}
	default:
		m = vecir.Identity
	}
	// The zero Matrix (an omitted field in JSON-decoded input) is treated
	// the same as an explicit Identity: an all-zero transform is never a
	// meaningful paint transform, and the collaborator interface (doc.go)
	// shouldn't have to spell out Identity's {A:1,D:1} on every paint that
	// has no transform of its own.
	if p.Transform != (vecir.Matrix{}) && !p.Transform.IsIdentity() {
		m = m.Mul(p.Transform)
	}
	return m
}

func textScaleMatrix(upem uint16, emSize vecir.Scalar) vecir.Matrix {
	if emSize == 0 {
		return vecir.Identity
	}
	s := float64(upem) / float64(emSize)
	return vecir.Matrix{A: s, D: -s}
}

func (b *Builder) lowerPattern(p doc.PatternSource) fingerprint.Fingerprint {
	return b.StoreCached(p, func() vecir.VecItem {
		frameFP, _ := b.lowerFrameItems(context.Background(), p.Frame, nil)
		return vecir.PatternItem{
			Frame:   frameFP,
			Size:    p.Size,
			Spacing: p.Spacing,
		}
	})
}

func (b *Builder) lowerGradient(g doc.GradientSource) fingerprint.Fingerprint {
	return b.StoreCached(g, func() vecir.VecItem {
		return vecir.GradientItem{
			Stops:     g.Stops,
			AntiAlias: g.AntiAlias,
			Space:     g.Space,
			Kind:      g.Kind,
		}
	})
}
