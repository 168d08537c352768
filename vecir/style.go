package vecir

import (
	"tsvr/fingerprint"
	"tsvr/glyph"
)

// Direction is the writing direction of a Text item.
// ENUM(ltr, rtl, ttb, btt)
type Direction int

const (
	DirLTR Direction = iota
	DirRTL
	DirTTB
	DirBTT
)

func (d Direction) String() string {
	switch d {
	case DirLTR:
		return "ltr"
	case DirRTL:
		return "rtl"
	case DirTTB:
		return "ttb"
	case DirBTT:
		return "btt"
	default:
		return "ltr"
	}
}

// PaintKind tags a Paint's variant.
type PaintKind int

const (
	PaintSolid PaintKind = iota
	PaintPattern
	PaintGradient
)

// Paint is either a solid color, or a reference to an interior Pattern or
// Gradient item, addressed by content fingerprint and rendered as a
// `@<svgid>` url string by the backends.
type Paint struct {
	Kind  PaintKind
	Color Color32       // valid when Kind == PaintSolid
	Ref   fingerprint.Fingerprint // valid when Kind == PaintPattern|PaintGradient
}

// RelativeTo controls how a Paint's own transform is resolved: against the
// shape's bounding box, or against the containing "self" frame.
type RelativeTo int

const (
	RelativeToSelf RelativeTo = iota
	RelativeToBoundingBox
)

func (p Paint) EncodeStable(e *fingerprint.Encoder) {
	e.WriteInt(int(p.Kind))
	switch p.Kind {
	case PaintSolid:
		encodeColor(e, p.Color)
	default:
		e.WriteFingerprint(p.Ref)
	}
}

// LineCap is the SVG/PostScript stroke cap style.
type LineCap int

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// LineJoin is the SVG/PostScript stroke join style.
type LineJoin int

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// FillRule selects how self-intersecting paths are filled.
type FillRule int

const (
	FillNonZero FillRule = iota
	FillEvenOdd
)

// PathStyleKind tags a single directive within an ordered PathStyle list.
type PathStyleKind int

const (
	StyleFill PathStyleKind = iota
	StyleStroke
	StyleStrokeWidth
	StyleStrokeDash
	StyleStrokeCap
	StyleStrokeJoin
	StyleStrokeMiterLimit
	StyleFillRule
)

// PathStyle is one fill/stroke/dash/cap/join/miter/fill-rule directive.
// A Path or Text item carries these as an ordered list; order is preserved
// because later directives may refine earlier ones (e.g. stroke color then
// stroke width).
type PathStyle struct {
	Kind        PathStyleKind
	Paint       Paint     // StyleFill, StyleStroke
	Width       Scalar    // StyleStrokeWidth
	Dash        []Scalar  // StyleStrokeDash
	DashOffset  Scalar    // StyleStrokeDash
	Cap         LineCap   // StyleStrokeCap
	Join        LineJoin  // StyleStrokeJoin
	MiterLimit  float64   // StyleStrokeMiterLimit
	FillRule    FillRule  // StyleFillRule
}

func (s PathStyle) EncodeStable(e *fingerprint.Encoder) {
	e.WriteInt(int(s.Kind))
	switch s.Kind {
	case StyleFill, StyleStroke:
		s.Paint.EncodeStable(e)
	case StyleStrokeWidth:
		encodeScalar(e, s.Width)
	case StyleStrokeDash:
		e.WriteInt(len(s.Dash))
		for _, d := range s.Dash {
			encodeScalar(e, d)
		}
		encodeScalar(e, s.DashOffset)
	case StyleStrokeCap:
		e.WriteInt(int(s.Cap))
	case StyleStrokeJoin:
		e.WriteInt(int(s.Join))
	case StyleStrokeMiterLimit:
		e.WriteFloat64(s.MiterLimit)
	case StyleFillRule:
		e.WriteInt(int(s.FillRule))
	}
}

func encodeStyles(e *fingerprint.Encoder, styles []PathStyle) {
	e.WriteInt(len(styles))
	for _, s := range styles {
		s.EncodeStable(e)
	}
}

// TextShape carries everything a Text item needs beyond its glyph run: the
// font, its rendered size, writing direction, and paint styles.
type TextShape struct {
	Font    glyph.FontRef
	EmSize  Scalar
	Dir     Direction
	Styles  []PathStyle
}

func (s TextShape) EncodeStable(e *fingerprint.Encoder) {
	e.WriteInt(int(s.Font))
	encodeScalar(e, s.EmSize)
	e.WriteInt(int(s.Dir))
	encodeStyles(e, s.Styles)
}

// GlyphInstance is one positioned glyph within a Text item's content.
type GlyphInstance struct {
	XOffset  Scalar
	XAdvance Scalar
	Glyph    glyph.GlyphRef
}

// TextContent is a Text item's content: the original UTF-8 string (kept for
// text extraction/search) plus the positioned glyph run.
type TextContent struct {
	UTF8   string
	Glyphs []GlyphInstance
}

func (c TextContent) EncodeStable(e *fingerprint.Encoder) {
	e.WriteString(c.UTF8)
	e.WriteInt(len(c.Glyphs))
	for _, g := range c.Glyphs {
		encodeScalar(e, g.XOffset)
		encodeScalar(e, g.XAdvance)
		e.WriteInt(int(g.Glyph.Font))
		e.WriteInt(g.Glyph.Idx)
	}
}

// GradientKind distinguishes linear/radial/conic gradients.
type GradientKind int

const (
	GradientLinear GradientKind = iota
	GradientRadial
	GradientConic
)

// ColorSpace is the interpolation space used when sampling gradient stops.
type ColorSpace int

const (
	SpaceSRGB ColorSpace = iota
	SpaceLinearRGB
	SpaceOKLab
	SpaceHSL
	SpaceHSV
)

// GradientStop is one color stop along a gradient's parameter axis.
type GradientStop struct {
	Color  Color32
	Offset Scalar // 0..1
}
