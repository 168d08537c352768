// Package doc models the laid-out input document that the core consumes:
// a tree of pages built from groups, text runs, shapes, images, links and
// tags. This is the "collaborator interface" spec.md §6 describes — the
// upstream layout engine that produces it is out of scope.
package doc

import "tsvr/vecir"

// Document is a sequence of laid-out pages.
type Document struct {
	Pages []Page
}

// Page is one page: its root frame, nominal size, and optional opaque
// background fill.
type Page struct {
	Frame Frame
	Size  vecir.Size
	Fill  *Paint
}

// FrameItemKind tags a FrameItem's variant.
type FrameItemKind int

const (
	FiGroup FrameItemKind = iota
	FiText
	FiShape
	FiImage
	FiLink
	FiTagStart
	FiTagEnd
)

// Frame is a positioned collection of items, the input analogue of a
// VecIR Group before lowering.
type Frame struct {
	Size  vecir.Size
	Items []FrameItem
}

// FrameItem is one element of a Frame at a given position. Exactly one of
// the pointer fields is populated, selected by Kind.
type FrameItem struct {
	Pos  vecir.Point
	Kind FrameItemKind
	Span SourceSpan

	Group *GroupFrame
	Text  *TextRun
	Shape *ShapeItem
	Image *ImageRef
	Link  *LinkRef
	Tag   string // FiTagStart/FiTagEnd: element name, e.g. "heading"
}

// GroupFrame is a nested frame plus its own transform and optional clip.
type GroupFrame struct {
	Frame     Frame
	Transform vecir.Matrix // vecir.Identity if none
	Clip      *ShapeItem   // clip geometry, nil if unclipped
}

// SourceSpan is an opaque identifier for a stretch of source text/markup,
// threaded through so the span-tree pass (S2V) can map output back to it.
// The zero value means "no span" (e.g. synthesized background rects).
type SourceSpan struct {
	ID uint64
}

// IsZero reports whether s carries no span information.
func (s SourceSpan) IsZero() bool { return s.ID == 0 }

// FontInfo identifies a font face well enough for glyph.Font interning.
type FontInfo struct {
	Family     string
	Weight     int
	Italic     bool
	Stretch    int
	UnitsPerEm uint16
}

// GlyphInstance is one shaped glyph within a TextRun, before lowering.
type GlyphInstance struct {
	XOffset  vecir.Scalar
	XAdvance vecir.Scalar
	Index    uint32
	Span     SourceSpan
	ByteLen  uint16
}

// TextRun is a shaped run of glyphs sharing one font/size/direction/paint.
// Text is the run's original UTF-8 source text, carried alongside the glyph
// run for text extraction and search independent of the span tree.
type TextRun struct {
	Font   FontInfo
	EmSize vecir.Scalar
	Dir    vecir.Direction
	Glyphs []GlyphInstance
	Text   string
	Fill   *Paint
	Stroke *StrokeStyle
}

// ShapeKind tags a ShapeItem's geometry variant.
type ShapeKind int

const (
	ShapeLine ShapeKind = iota
	ShapeRect
	ShapeCurve
)

// SegmentKind tags a Curve path segment.
type SegmentKind int

const (
	SegMoveTo SegmentKind = iota
	SegLineTo
	SegCubicTo
	SegClose
)

// Segment is one path-construction instruction.
type Segment struct {
	Kind       SegmentKind
	P          vecir.Point // MoveTo, LineTo endpoint
	C1, C2, P2 vecir.Point // CubicTo control points and endpoint
}

// ShapeItem is an input geometry: a line to a point, a rectangle of a given
// size, or an arbitrary curve built from segments.
type ShapeItem struct {
	Kind   ShapeKind
	Line   vecir.Point
	Rect   vecir.Size
	Curve  []Segment
	Fill   *Paint
	Stroke *StrokeStyle
}

// StrokeStyle is the input-side stroke description lowered into ordered
// vecir.PathStyle directives.
type StrokeStyle struct {
	Paint      Paint
	Width      vecir.Scalar
	Dash       []vecir.Scalar
	DashOffset vecir.Scalar
	Cap        vecir.LineCap
	Join       vecir.LineJoin
	MiterLimit float64
}

// PaintSourceKind tags a Paint's variant before lowering.
type PaintSourceKind int

const (
	PaintSourceSolid PaintSourceKind = iota
	PaintSourcePattern
	PaintSourceGradient
)

// Paint is either a solid color, or an embedded pattern/gradient with its
// own transform, resolved relative to either the shape's bounding box or
// the containing frame (RelativeTo).
type Paint struct {
	Kind       PaintSourceKind
	Color      vecir.Color32
	Pattern    *PatternSource
	Gradient   *GradientSource
	RelativeTo vecir.RelativeTo
	Transform  vecir.Matrix
}

// PatternSource is an input tiled-pattern fill.
type PatternSource struct {
	Frame   Frame
	Size    vecir.Size
	Spacing vecir.Size
}

// GradientSource is an input gradient fill.
type GradientSource struct {
	Stops     []vecir.GradientStop
	AntiAlias bool
	Space     vecir.ColorSpace
	Kind      vecir.GradientKind
}

// ImageRef is a raw embedded image: bytes plus declared size. The special
// alt text "!typst-embed-command" routes lowering through a pluggable
// CommandExecutor instead of ordinary image decoding.
type ImageRef struct {
	Data []byte
	Size vecir.Size
	Alt  string
}

// CommandEmbedAlt is the sentinel ImageRef.Alt value that routes image
// lowering to a CommandExecutor instead of decoding Data as an image.
const CommandEmbedAlt = "!typst-embed-command"

// LinkRef is an input hyperlink region.
type LinkRef struct {
	Href string
	Size vecir.Size
}
