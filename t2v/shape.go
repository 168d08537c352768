package t2v

import (
	"fmt"
	"strconv"
	"strings"

	"tsvr/doc"
	"tsvr/fingerprint"
	"tsvr/vecir"
)

// fnum formats a coordinate with the minimum digits needed, matching how
// SVG path authors expect path data to read.
func fnum(v vecir.Scalar) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 64)
}

// rectPathData builds a rectangle's path data: width w, height h, starting
// (as every shape must) with an initial M 0 0 to pin the drawing origin.
func rectPathData(w, h vecir.Scalar) string {
	return fmt.Sprintf("M 0 0 L 0 %s L %s %s L %s 0 Z", fnum(h), fnum(w), fnum(h), fnum(w))
}

// shapeToPathData lowers a doc.ShapeItem's geometry into SVG-style path
// data, always pinned at M 0 0.
func shapeToPathData(s doc.ShapeItem) string {
	var b strings.Builder
	b.WriteString("M 0 0 ")
	switch s.Kind {
	case doc.ShapeLine:
		b.WriteString("L " + fnum(s.Line.X) + " " + fnum(s.Line.Y))
	case doc.ShapeRect:
		b.WriteString(rectFragment(s.Rect.X, s.Rect.Y))
	case doc.ShapeCurve:
		for _, seg := range s.Curve {
			switch seg.Kind {
			case doc.SegMoveTo:
				b.WriteString("M " + fnum(seg.P.X) + " " + fnum(seg.P.Y) + " ")
			case doc.SegLineTo:
				b.WriteString("L " + fnum(seg.P.X) + " " + fnum(seg.P.Y) + " ")
			case doc.SegCubicTo:
				b.WriteString("C " + fnum(seg.C1.X) + " " + fnum(seg.C1.Y) + " " +
					fnum(seg.C2.X) + " " + fnum(seg.C2.Y) + " " +
					fnum(seg.P2.X) + " " + fnum(seg.P2.Y) + " ")
			case doc.SegClose:
				b.WriteString("Z ")
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func rectFragment(w, h vecir.Scalar) string {
	return fmt.Sprintf("L 0 %s L %s %s L %s 0 Z", fnum(h), fnum(w), fnum(h), fnum(w))
}

// shapeBoundingSize returns a conservative bounding size for a shape, used
// for the stroke hit-testing zero-thickness bump and for bounding-box
// relative paint transforms.
func shapeBoundingSize(s doc.ShapeItem) vecir.Size {
	switch s.Kind {
	case doc.ShapeLine:
		return vecir.Size{X: abs(s.Line.X), Y: abs(s.Line.Y)}
	case doc.ShapeRect:
		return vecir.Size{X: s.Rect.X, Y: s.Rect.Y}
	default:
		var maxX, maxY vecir.Scalar
		for _, seg := range s.Curve {
			for _, p := range []vecir.Point{seg.P, seg.C1, seg.C2, seg.P2} {
				if abs(p.X) > maxX {
					maxX = abs(p.X)
				}
				if abs(p.Y) > maxY {
					maxY = abs(p.Y)
				}
			}
		}
		return vecir.Size{X: maxX, Y: maxY}
	}
}

func abs(s vecir.Scalar) vecir.Scalar {
	if s < 0 {
		return -s
	}
	return s
}

// lowerShape turns a doc.ShapeItem into a stored Path item, applying the
// zero-bounding-box stroke-thickness bump for hit testing.
func (b *Builder) lowerShape(s doc.ShapeItem) fingerprint.Fingerprint {
	return b.StoreCached(s, func() vecir.VecItem {
		size := vecir.FixSize(shapeBoundingSize(s))
		scale := shapeScale(size)
		var styles []vecir.PathStyle
		if s.Fill != nil {
			styles = append(styles, vecir.PathStyle{Kind: vecir.StyleFill, Paint: b.lowerPaint(*s.Fill, scale, false)})
		}
		if s.Stroke != nil {
			styles = append(styles, b.lowerStroke(*s.Stroke, scale, false)...)
		}
		return vecir.PathItem{
			D:      shapeToPathData(s),
			Size:   &size,
			Styles: styles,
		}
	})
}

func (b *Builder) lowerStroke(st doc.StrokeStyle, scale paintScale, isText bool) []vecir.PathStyle {
	width := st.Width
	if scale.bbox.X == 0 || scale.bbox.Y == 0 {
		if width == 0 {
			width = 1
		}
	}
	styles := []vecir.PathStyle{
		{Kind: vecir.StyleStroke, Paint: b.lowerPaint(st.Paint, scale, isText)},
		{Kind: vecir.StyleStrokeWidth, Width: width},
	}
	if len(st.Dash) > 0 {
		styles = append(styles, vecir.PathStyle{Kind: vecir.StyleStrokeDash, Dash: st.Dash, DashOffset: st.DashOffset})
	}
	styles = append(styles,
		vecir.PathStyle{Kind: vecir.StyleStrokeCap, Cap: st.Cap},
		vecir.PathStyle{Kind: vecir.StyleStrokeJoin, Join: st.Join},
		vecir.PathStyle{Kind: vecir.StyleStrokeMiterLimit, MiterLimit: st.MiterLimit},
	)
	return styles
}
