package vecir

import "tsvr/fingerprint"

// Kind tags a VecItem's variant.
type Kind int

const (
	KindNone Kind = iota
	KindLink
	KindImage
	KindPath
	KindText
	KindGroup
	KindItem
	KindPattern
	KindGradient
	KindColorTransform
	KindContentHint
	KindHtml
	KindSizedRawHtml
)

// VecItem is the tagged-variant heart of the IR. Concrete types below
// implement it; callers type-switch on Kind() or use a type switch on the
// concrete type directly.
type VecItem interface {
	fingerprint.Hashable
	ItemKind() Kind
}

// NoneItem is the sentinel for a tombstoned entry; it is never stored as a
// rendered item, only returned by lookups that found a GC'd/removed slot.
type NoneItem struct{}

func (NoneItem) ItemKind() Kind { return KindNone }
func (NoneItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindNone))
}

// LinkItem is a clickable hyperlink region.
type LinkItem struct {
	Href string
	Size Size
}

func (it LinkItem) ItemKind() Kind { return KindLink }
func (it LinkItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindLink))
	e.WriteString(it.Href)
	encodeSize(e, it.Size)
}

// ImageItem embeds a raster or vector image by content reference.
type ImageItem struct {
	ImageRef fingerprint.Fingerprint
	Size     Size
}

func (it ImageItem) ItemKind() Kind { return KindImage }
func (it ImageItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindImage))
	e.WriteFingerprint(it.ImageRef)
	encodeSize(e, it.Size)
}

// PathItem is a filled/stroked vector path. Per the zero-dimension edge
// case, Size (when present) has already been passed through FixSize by the
// time it reaches here.
type PathItem struct {
	D      string
	Size   *Size
	Styles []PathStyle
}

func (it PathItem) ItemKind() Kind { return KindPath }
func (it PathItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindPath))
	e.WriteString(it.D)
	e.WriteBool(it.Size != nil)
	if it.Size != nil {
		encodeSize(e, *it.Size)
	}
	encodeStyles(e, it.Styles)
}

// TextItem is a shaped run of glyphs.
type TextItem struct {
	Shape   TextShape
	Content TextContent
}

func (it TextItem) ItemKind() Kind { return KindText }
func (it TextItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindText))
	it.Shape.EncodeStable(e)
	it.Content.EncodeStable(e)
}

// GroupChild is one positioned child of a Group, plus whether it is itself
// (or wraps) a Link — used to drive the stable link-to-tail partition.
type GroupChild struct {
	Pos        Point
	Fingerprint fingerprint.Fingerprint
	IsLink     bool
}

// GroupItem renders its children in array order; by the time a GroupItem is
// constructed, PartitionLinks must already have been applied so link
// children trail non-link children (invariant 4 in the data model).
type GroupItem struct {
	Children []GroupChild
}

func (it GroupItem) ItemKind() Kind { return KindGroup }
func (it GroupItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindGroup))
	e.WriteInt(len(it.Children))
	for _, c := range it.Children {
		encodePoint(e, c.Pos)
		e.WriteFingerprint(c.Fingerprint)
		e.WriteBool(c.IsLink)
	}
}

// PartitionLinks stably partitions children so link children follow all
// non-link children, preserving relative order within each partition
// (invariant 4; spec.md S3 end-to-end scenario).
func PartitionLinks(children []GroupChild) []GroupChild {
	out := make([]GroupChild, 0, len(children))
	for _, c := range children {
		if !c.IsLink {
			out = append(out, c)
		}
	}
	for _, c := range children {
		if c.IsLink {
			out = append(out, c)
		}
	}
	return out
}

// TransformKind tags an Item's transform variant.
type TransformKind int

const (
	TransformMatrix TransformKind = iota
	TransformTranslate
	TransformScale
	TransformRotate
	TransformSkew
	TransformClip
)

// ItemTransform is the sum type `transform ∈ { Matrix, Translate, Scale,
// Rotate, Skew, Clip }` wrapping an Item node's child.
type ItemTransform struct {
	Kind TransformKind

	Matrix Matrix // TransformMatrix

	Translate Point // TransformTranslate

	ScaleX, ScaleY float64 // TransformScale (ratio, ratio)

	Angle float64 // TransformRotate, radians

	SkewX, SkewY float64 // TransformSkew (ratio, ratio)

	ClipPath string // TransformClip: SVG path data of the clip region
}

func (t ItemTransform) EncodeStable(e *fingerprint.Encoder) {
	e.WriteInt(int(t.Kind))
	switch t.Kind {
	case TransformMatrix:
		encodeMatrix(e, t.Matrix)
	case TransformTranslate:
		encodePoint(e, t.Translate)
	case TransformScale:
		e.WriteFloat64(t.ScaleX)
		e.WriteFloat64(t.ScaleY)
	case TransformRotate:
		e.WriteFloat64(t.Angle)
	case TransformSkew:
		e.WriteFloat64(t.SkewX)
		e.WriteFloat64(t.SkewY)
	case TransformClip:
		e.WriteString(t.ClipPath)
	}
}

// ItemItem wraps a child fingerprint with a single affine/clip transform.
// Nested transforms (e.g. a clipped, rotated group) are represented by
// stacking Item nodes, innermost first.
type ItemItem struct {
	Transform ItemTransform
	Child     fingerprint.Fingerprint
}

func (it ItemItem) ItemKind() Kind { return KindItem }
func (it ItemItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindItem))
	it.Transform.EncodeStable(e)
	e.WriteFingerprint(it.Child)
}

// PatternItem is a tiled fill pattern: a repeatable frame plus tile size and
// spacing between tiles.
type PatternItem struct {
	Frame   fingerprint.Fingerprint
	Size    Size
	Spacing Size
}

func (it PatternItem) ItemKind() Kind { return KindPattern }
func (it PatternItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindPattern))
	e.WriteFingerprint(it.Frame)
	encodeSize(e, it.Size)
	encodeSize(e, it.Spacing)
}

// GradientItem is a linear/radial/conic color gradient.
type GradientItem struct {
	Stops     []GradientStop
	AntiAlias bool
	Space     ColorSpace
	Kind      GradientKind
	Styles    []PathStyle
}

func (it GradientItem) ItemKind() Kind { return KindGradient }
func (it GradientItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindGradient))
	e.WriteInt(len(it.Stops))
	for _, s := range it.Stops {
		encodeColor(e, s.Color)
		encodeScalar(e, s.Offset)
	}
	e.WriteBool(it.AntiAlias)
	e.WriteInt(int(it.Space))
	e.WriteInt(int(it.Kind))
	encodeStyles(e, it.Styles)
}

// ColorTransformItem recolors its child (used for color-blind simulation /
// theme inversion upstream; the core just carries the transform opaquely as
// a matrix over color channels).
type ColorTransformItem struct {
	Transform [20]float64 // 4x5 color matrix, row-major
	Item      fingerprint.Fingerprint
}

func (it ColorTransformItem) ItemKind() Kind { return KindColorTransform }
func (it ColorTransformItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindColorTransform))
	for _, v := range it.Transform {
		e.WriteFloat64(v)
	}
	e.WriteFingerprint(it.Item)
}

// ContentHintItem carries layout-hint semantics for text extraction (e.g. a
// newline hint emitted after a heading).
type ContentHintItem struct {
	Char rune
}

func (it ContentHintItem) ItemKind() Kind { return KindContentHint }
func (it ContentHintItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindContentHint))
	e.WriteInt(int(it.Char))
}

// HtmlItem is a best-effort passthrough of an embedded HTML fragment (HTML
// lowering is explicitly stubbed upstream; see spec.md S9).
type HtmlItem struct {
	Html string
}

func (it HtmlItem) ItemKind() Kind { return KindHtml }
func (it HtmlItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindHtml))
	e.WriteString(it.Html)
}

// SizedRawHtmlItem is an HtmlItem with an explicit layout size.
type SizedRawHtmlItem struct {
	Html string
	Size Size
}

func (it SizedRawHtmlItem) ItemKind() Kind { return KindSizedRawHtml }
func (it SizedRawHtmlItem) EncodeStable(e *fingerprint.Encoder) {
	e.WriteTag(byte(KindSizedRawHtml))
	e.WriteString(it.Html)
	encodeSize(e, it.Size)
}
