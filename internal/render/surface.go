// Package render provides the 2D drawing surfaces the key decoder paints on,
// and the per-frame drawing operations produced by a recompute.
package render

import (
	"image"
	"image/color"

	"key-decoder/pkg/geometry"
)

// Surface is a 2D raster drawing target with a canvas-style affine stack.
// Transform calls post-multiply the current transform, so the last call is
// applied to coordinates first.
type Surface interface {
	Size() geometry.Size
	Clear()
	DrawLine(x1, y1, x2, y2 float64, c color.Color)
	DrawImageRegion(src image.Image, srcRect, dstRect geometry.Rect)
	StrokeRect(r geometry.Rect, c color.Color)
	// DrawLabel draws text horizontally centred on x with its baseline at y.
	DrawLabel(x, y float64, text string, c color.Color)

	Translate(dx, dy float64)
	Scale(sx, sy float64)
	Rotate(radians float64)
	ResetTransform()
}

// Op is a single recorded drawing operation.
type Op interface {
	Apply(s Surface)
}

// ClearOp clears the surface.
type ClearOp struct{}

// LineOp draws a straight line.
type LineOp struct {
	X1, Y1, X2, Y2 float64
	Color          color.Color
}

// RectOp strokes a rectangle outline.
type RectOp struct {
	Rect  geometry.Rect
	Color color.Color
}

// LabelOp draws a short text label.
type LabelOp struct {
	X, Y  float64
	Text  string
	Color color.Color
}

// ImageOp draws a region of an image into a destination rectangle.
type ImageOp struct {
	Src     image.Image
	SrcRect geometry.Rect
	DstRect geometry.Rect
}

// TranslateOp post-multiplies a translation.
type TranslateOp struct{ DX, DY float64 }

// ScaleOp post-multiplies a scale.
type ScaleOp struct{ SX, SY float64 }

// RotateOp post-multiplies a rotation.
type RotateOp struct{ Radians float64 }

// ResetOp resets the transform to identity.
type ResetOp struct{}

func (ClearOp) Apply(s Surface)       { s.Clear() }
func (o LineOp) Apply(s Surface)      { s.DrawLine(o.X1, o.Y1, o.X2, o.Y2, o.Color) }
func (o RectOp) Apply(s Surface)      { s.StrokeRect(o.Rect, o.Color) }
func (o ImageOp) Apply(s Surface)     { s.DrawImageRegion(o.Src, o.SrcRect, o.DstRect) }
func (o LabelOp) Apply(s Surface)     { s.DrawLabel(o.X, o.Y, o.Text, o.Color) }
func (o TranslateOp) Apply(s Surface) { s.Translate(o.DX, o.DY) }
func (o ScaleOp) Apply(s Surface)     { s.Scale(o.SX, o.SY) }
func (o RotateOp) Apply(s Surface)    { s.Rotate(o.Radians) }
func (ResetOp) Apply(s Surface)       { s.ResetTransform() }

// Frame holds the operations for the three decoder surfaces: the aligned
// key photo, the crop/alignment overlay and the bitting markers.
type Frame struct {
	Key     []Op
	Overlay []Op
	Bitting []Op
}

// Surfaces groups the three decoder surfaces. Nil members are skipped.
type Surfaces struct {
	Key     Surface
	Overlay Surface
	Bitting Surface
}

// Apply replays every operation of the frame onto its surface.
func Apply(f Frame, s Surfaces) {
	replay(f.Key, s.Key)
	replay(f.Overlay, s.Overlay)
	replay(f.Bitting, s.Bitting)
}

func replay(ops []Op, s Surface) {
	if s == nil {
		return
	}
	for _, op := range ops {
		op.Apply(s)
	}
}
