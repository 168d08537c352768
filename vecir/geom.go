// Package vecir defines the vector intermediate representation: tagged
// VecItem variants, their supporting value types, and the immutable Module
// snapshot that closes over them.
package vecir

import "tsvr/fingerprint"

// Scalar is a single coordinate or length, in points.
type Scalar float64

// Point is a 2D position in points.
type Point struct {
	X, Y Scalar
}

// Size is a 2D extent in points. Per spec, a Path whose size has a zero
// dimension substitutes 1pt for that dimension (see FixSize).
type Size struct {
	X, Y Scalar
}

// FixSize substitutes 1pt for any zero dimension, matching the Path/stroke
// hit-testing edge case in the data model.
func FixSize(s Size) Size {
	if s.X == 0 {
		s.X = 1
	}
	if s.Y == 0 {
		s.Y = 1
	}
	return s
}

// Rect is an axis-aligned rectangle, lower-left origin, width/height form.
type Rect struct {
	Origin Point
	Size   Size
}

// Color32 is a straight-alpha RGBA color, one byte per channel.
type Color32 struct {
	R, G, B, A uint8
}

// Matrix is a 2D affine transform in row-major (a, b, c, d, e, f) form,
// equivalent to the SVG/Typst convention:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity is the identity affine transform.
var Identity = Matrix{A: 1, D: 1}

// IsIdentity reports whether m has no effect on its input.
func (m Matrix) IsIdentity() bool {
	return m == Identity
}

// Mul composes m then o (o is applied to m's output): (m then o)(p) == o(m(p)).
func (m Matrix) Mul(o Matrix) Matrix {
	return Matrix{
		A: m.A*o.A + m.B*o.C,
		B: m.A*o.B + m.B*o.D,
		C: m.C*o.A + m.D*o.C,
		D: m.C*o.B + m.D*o.D,
		E: m.E*o.A + m.F*o.C + o.E,
		F: m.E*o.B + m.F*o.D + o.F,
	}
}

// Apply transforms p by m.
func (m Matrix) Apply(p Point) Point {
	x, y := float64(p.X), float64(p.Y)
	return Point{
		X: Scalar(m.A*x + m.C*y + m.E),
		Y: Scalar(m.B*x + m.D*y + m.F),
	}
}

func encodeScalar(e *fingerprint.Encoder, s Scalar) { e.WriteFloat64(float64(s)) }

func encodePoint(e *fingerprint.Encoder, p Point) {
	encodeScalar(e, p.X)
	encodeScalar(e, p.Y)
}

func encodeSize(e *fingerprint.Encoder, s Size) {
	encodeScalar(e, s.X)
	encodeScalar(e, s.Y)
}

func encodeColor(e *fingerprint.Encoder, c Color32) {
	e.WriteUint64(uint64(c.R)<<24 | uint64(c.G)<<16 | uint64(c.B)<<8 | uint64(c.A))
}

func encodeMatrix(e *fingerprint.Encoder, m Matrix) {
	e.WriteFloat64(m.A)
	e.WriteFloat64(m.B)
	e.WriteFloat64(m.C)
	e.WriteFloat64(m.D)
	e.WriteFloat64(m.E)
	e.WriteFloat64(m.F)
}
