package t2v

import (
	"testing"

	"tsvr/doc"
	"tsvr/vecir"
)

func TestResolvePaintTransformShapeBoundingBoxGradient(t *testing.T) {
	p := doc.Paint{Kind: doc.PaintSourceGradient, RelativeTo: vecir.RelativeToBoundingBox}
	m := resolvePaintTransform(p, shapeScale(vecir.Size{X: 20, Y: 40}), false)
	if m.A != 20 || m.D != 40 {
		t.Fatalf("expected bbox scale (20,40), got %+v", m)
	}
}

func TestResolvePaintTransformShapeBoundingBoxPatternIsIdentity(t *testing.T) {
	p := doc.Paint{Kind: doc.PaintSourcePattern, RelativeTo: vecir.RelativeToBoundingBox}
	m := resolvePaintTransform(p, shapeScale(vecir.Size{X: 20, Y: 40}), false)
	if !m.IsIdentity() {
		t.Fatalf("expected identity for a bbox-relative pattern, got %+v", m)
	}
}

func TestResolvePaintTransformSelfRelativeApproximatesIdentity(t *testing.T) {
	p := doc.Paint{Kind: doc.PaintSourceGradient, RelativeTo: vecir.RelativeToSelf}
	m := resolvePaintTransform(p, shapeScale(vecir.Size{X: 20, Y: 40}), false)
	if !m.IsIdentity() {
		t.Fatalf("expected the frame-relative approximation to be identity, got %+v", m)
	}
}

func TestResolvePaintTransformTextAlwaysGetsScale(t *testing.T) {
	for _, rel := range []vecir.RelativeTo{vecir.RelativeToSelf, vecir.RelativeToBoundingBox} {
		p := doc.Paint{Kind: doc.PaintSourceGradient, RelativeTo: rel}
		m := resolvePaintTransform(p, textScale(1000, 10), true)
		if m.A != 100 || m.D != -100 {
			t.Fatalf("expected the upem/em-size Y-flip scale regardless of RelativeTo=%v, got %+v", rel, m)
		}
	}
}

func TestResolvePaintTransformComposesExplicitTransform(t *testing.T) {
	p := doc.Paint{
		Kind:       doc.PaintSourceGradient,
		RelativeTo: vecir.RelativeToSelf,
		Transform:  vecir.Matrix{A: 1, D: 1, E: 5},
	}
	m := resolvePaintTransform(p, shapeScale(vecir.Size{}), false)
	if m.E != 5 {
		t.Fatalf("expected the paint's own declared transform to survive composition, got %+v", m)
	}
}

func TestLowerPaintSolidNeedsNoWrap(t *testing.T) {
	b := newTestBuilder(2)
	paint := b.lowerPaint(doc.Paint{Kind: doc.PaintSourceSolid, Color: vecir.Color32{R: 255, A: 255}}, shapeScale(vecir.Size{X: 10, Y: 10}), false)
	if paint.Kind != vecir.PaintSolid {
		t.Fatalf("expected a solid paint, got %+v", paint)
	}
}

func TestLowerPaintGradientWrapsWithResolvedTransform(t *testing.T) {
	b := newTestBuilder(2)
	paint := b.lowerPaint(doc.Paint{
		Kind:       doc.PaintSourceGradient,
		Gradient:   &doc.GradientSource{Stops: []vecir.GradientStop{{Offset: 0}, {Offset: 1}}},
		RelativeTo: vecir.RelativeToBoundingBox,
	}, shapeScale(vecir.Size{X: 10, Y: 20}), false)

	item, ok := b.Get(paint.Ref)
	if !ok {
		t.Fatalf("expected the paint ref to resolve to a stored item")
	}
	wrap, ok := item.(vecir.ItemItem)
	if !ok {
		t.Fatalf("expected a bbox-relative gradient to be wrapped in an ItemItem, got %T", item)
	}
	if wrap.Transform.Matrix.A != 10 || wrap.Transform.Matrix.D != 20 {
		t.Fatalf("expected the wrap's matrix to carry the bbox scale, got %+v", wrap.Transform.Matrix)
	}
	child, _ := b.Get(wrap.Child)
	if _, ok := child.(vecir.GradientItem); !ok {
		t.Fatalf("expected the wrap's child to be the bare GradientItem")
	}
}

func TestLowerPaintGradientSelfRelativeSkipsWrap(t *testing.T) {
	b := newTestBuilder(2)
	paint := b.lowerPaint(doc.Paint{
		Kind:       doc.PaintSourceGradient,
		Gradient:   &doc.GradientSource{Stops: []vecir.GradientStop{{Offset: 0}, {Offset: 1}}},
		RelativeTo: vecir.RelativeToSelf,
	}, shapeScale(vecir.Size{X: 10, Y: 20}), false)

	ref, _ := b.Get(paint.Ref)
	if _, ok := ref.(vecir.GradientItem); !ok {
		t.Fatalf("expected an identity-resolved transform to skip the ItemItem wrap entirely")
	}
}
