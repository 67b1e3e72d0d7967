// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Rect represents a rectangle with floating-point coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a new Rect.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Right returns the X coordinate of the right edge.
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Bottom returns the Y coordinate of the bottom edge.
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Size represents a 2D size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// Center returns the midpoint of an area of this size anchored at the origin.
func (s Size) Center() Point2D {
	return Point2D{X: s.Width / 2, Y: s.Height / 2}
}

// AffineTransform represents a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the identity transform.
func Identity() AffineTransform {
	return AffineTransform{A: 1, D: 1}
}

// Translation returns a translation transform.
func Translation(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, TX: tx, TY: ty}
}

// Rotation returns a rotation transform around the origin.
// Positive angles rotate clockwise in a y-down raster.
func Rotation(radians float64) AffineTransform {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return AffineTransform{A: cos, B: -sin, C: sin, D: cos}
}

// Scale returns a scaling transform.
func Scale(sx, sy float64) AffineTransform {
	return AffineTransform{A: sx, D: sy}
}

// Apply applies the transform to a point.
func (t AffineTransform) Apply(p Point2D) Point2D {
	return Point2D{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Compose returns this transform composed with another (this * other).
// The result applies other first, then this.
func (t AffineTransform) Compose(other AffineTransform) AffineTransform {
	return AffineTransform{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// Inverse returns the inverse transform, if it exists.
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-10 {
		return AffineTransform{}, false
	}

	invDet := 1.0 / det
	return AffineTransform{
		A:  t.D * invDet,
		B:  -t.B * invDet,
		TX: (t.B*t.TY - t.D*t.TX) * invDet,
		C:  -t.C * invDet,
		D:  t.A * invDet,
		TY: (t.C*t.TX - t.A*t.TY) * invDet,
	}, true
}

// Aff3 returns the transform in the row-major layout used by x/image/draw.
func (t AffineTransform) Aff3() f64.Aff3 {
	return f64.Aff3{t.A, t.B, t.TX, t.C, t.D, t.TY}
}

// RectToRect returns the transform mapping src onto dst, scaling each axis
// independently. Degenerate source rectangles map to the identity.
func RectToRect(src, dst Rect) AffineTransform {
	if src.Width == 0 || src.Height == 0 {
		return Identity()
	}
	sx := dst.Width / src.Width
	sy := dst.Height / src.Height
	return AffineTransform{
		A: sx, TX: dst.X - src.X*sx,
		D: sy, TY: dst.Y - src.Y*sy,
	}
}
