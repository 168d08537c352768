package doc

import "tsvr/fingerprint"

// EncodeStable implementations below give the expensive-to-lower input
// nodes (shapes, text runs, images, patterns) a structural identity of
// their own, computed over the un-lowered input fields. This is what lets
// Builder.StoreCached recognize "the same upstream node" and skip calling
// build again, even before the lowered VecItem's own content fingerprint is
// known (see t2v.structuralKey).

func encodeMatrix(e *fingerprint.Encoder, m [6]float64) {
	for _, v := range m {
		e.WriteFloat64(v)
	}
}

func (p Paint) EncodeStable(e *fingerprint.Encoder) {
	e.WriteInt(int(p.Kind))
	switch p.Kind {
	case PaintSourcePattern:
		if p.Pattern != nil {
			p.Pattern.EncodeStable(e)
		}
	case PaintSourceGradient:
		if p.Gradient != nil {
			p.Gradient.EncodeStable(e)
		}
	default:
		e.WriteUint64(uint64(p.Color.R)<<24 | uint64(p.Color.G)<<16 | uint64(p.Color.B)<<8 | uint64(p.Color.A))
	}
	e.WriteInt(int(p.RelativeTo))
	encodeMatrix(e, [6]float64{p.Transform.A, p.Transform.B, p.Transform.C, p.Transform.D, p.Transform.E, p.Transform.F})
}

func (g GradientSource) EncodeStable(e *fingerprint.Encoder) {
	e.WriteInt(len(g.Stops))
	for _, s := range g.Stops {
		e.WriteFloat64(float64(s.Offset))
		e.WriteUint64(uint64(s.Color.R)<<24 | uint64(s.Color.G)<<16 | uint64(s.Color.B)<<8 | uint64(s.Color.A))
	}
	e.WriteBool(g.AntiAlias)
	e.WriteInt(int(g.Space))
	e.WriteInt(int(g.Kind))
}

func (p PatternSource) EncodeStable(e *fingerprint.Encoder) {
	p.Frame.EncodeStable(e)
	e.WriteFloat64(float64(p.Size.X))
	e.WriteFloat64(float64(p.Size.Y))
	e.WriteFloat64(float64(p.Spacing.X))
	e.WriteFloat64(float64(p.Spacing.Y))
}

func (f Frame) EncodeStable(e *fingerprint.Encoder) {
	e.WriteFloat64(float64(f.Size.X))
	e.WriteFloat64(float64(f.Size.Y))
	e.WriteInt(len(f.Items))
	for _, it := range f.Items {
		it.EncodeStable(e)
	}
}

func (it FrameItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteFloat64(float64(it.Pos.X))
	e.WriteFloat64(float64(it.Pos.Y))
	e.WriteInt(int(it.Kind))
	e.WriteUint64(it.Span.ID)
	switch it.Kind {
	case FiGroup:
		if it.Group != nil {
			it.Group.EncodeStable(e)
		}
	case FiText:
		if it.Text != nil {
			it.Text.EncodeStable(e)
		}
	case FiShape:
		if it.Shape != nil {
			it.Shape.EncodeStable(e)
		}
	case FiImage:
		if it.Image != nil {
			it.Image.EncodeStable(e)
		}
	case FiLink:
		if it.Link != nil {
			e.WriteString(it.Link.Href)
			e.WriteFloat64(float64(it.Link.Size.X))
			e.WriteFloat64(float64(it.Link.Size.Y))
		}
	case FiTagStart, FiTagEnd:
		e.WriteString(it.Tag)
	}
}

func (g GroupFrame) EncodeStable(e *fingerprint.Encoder) {
	g.Frame.EncodeStable(e)
	encodeMatrix(e, [6]float64{g.Transform.A, g.Transform.B, g.Transform.C, g.Transform.D, g.Transform.E, g.Transform.F})
	if g.Clip != nil {
		e.WriteBool(true)
		g.Clip.EncodeStable(e)
	} else {
		e.WriteBool(false)
	}
}

// EncodeStable gives ShapeItem a structural key distinct from the
// vecir.PathItem/ClipPathItem its lowering eventually produces.
func (s ShapeItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteInt(int(s.Kind))
	e.WriteFloat64(float64(s.Line.X))
	e.WriteFloat64(float64(s.Line.Y))
	e.WriteFloat64(float64(s.Rect.X))
	e.WriteFloat64(float64(s.Rect.Y))
	e.WriteInt(len(s.Curve))
	for _, seg := range s.Curve {
		e.WriteInt(int(seg.Kind))
		e.WriteFloat64(float64(seg.P.X))
		e.WriteFloat64(float64(seg.P.Y))
		e.WriteFloat64(float64(seg.C1.X))
		e.WriteFloat64(float64(seg.C1.Y))
		e.WriteFloat64(float64(seg.C2.X))
		e.WriteFloat64(float64(seg.C2.Y))
		e.WriteFloat64(float64(seg.P2.X))
		e.WriteFloat64(float64(seg.P2.Y))
	}
	if s.Fill != nil {
		e.WriteBool(true)
		s.Fill.EncodeStable(e)
	} else {
		e.WriteBool(false)
	}
	if s.Stroke != nil {
		e.WriteBool(true)
		s.Stroke.EncodeStable(e)
	} else {
		e.WriteBool(false)
	}
}

func (s StrokeStyle) EncodeStable(e *fingerprint.Encoder) {
	s.Paint.EncodeStable(e)
	e.WriteFloat64(float64(s.Width))
	e.WriteInt(len(s.Dash))
	for _, d := range s.Dash {
		e.WriteFloat64(float64(d))
	}
	e.WriteFloat64(float64(s.DashOffset))
	e.WriteInt(int(s.Cap))
	e.WriteInt(int(s.Join))
	e.WriteFloat64(s.MiterLimit)
}

// EncodeStable gives TextRun a structural key: the shaped glyph run plus
// font/fill/stroke, so a structurally-unchanged run (even one rebuilt at a
// different frame position, which isn't part of this key) can skip
// re-lowering on an incremental rebuild.
func (t TextRun) EncodeStable(e *fingerprint.Encoder) {
	e.WriteString(t.Font.Family)
	e.WriteInt(t.Font.Weight)
	e.WriteBool(t.Font.Italic)
	e.WriteInt(t.Font.Stretch)
	e.WriteInt(int(t.Font.UnitsPerEm))
	e.WriteFloat64(float64(t.EmSize))
	e.WriteInt(int(t.Dir))
	e.WriteInt(len(t.Glyphs))
	for _, g := range t.Glyphs {
		e.WriteFloat64(float64(g.XOffset))
		e.WriteFloat64(float64(g.XAdvance))
		e.WriteUint64(uint64(g.Index))
		e.WriteUint64(g.Span.ID)
		e.WriteInt(int(g.ByteLen))
	}
	e.WriteString(t.Text)
	if t.Fill != nil {
		e.WriteBool(true)
		t.Fill.EncodeStable(e)
	} else {
		e.WriteBool(false)
	}
	if t.Stroke != nil {
		e.WriteBool(true)
		t.Stroke.EncodeStable(e)
	} else {
		e.WriteBool(false)
	}
}

// EncodeStable gives ImageRef a structural key over its raw bytes, so an
// unchanged embedded image skips re-decoding (the expensive part of
// lowerImage) across incremental rebuilds.
func (i ImageRef) EncodeStable(e *fingerprint.Encoder) {
	e.WriteBytes(i.Data)
	e.WriteFloat64(float64(i.Size.X))
	e.WriteFloat64(float64(i.Size.Y))
	e.WriteString(i.Alt)
}
