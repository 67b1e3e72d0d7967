package render

import (
	"image"
	"image/color"

	"key-decoder/pkg/geometry"
)

// Recorder is a Surface that records operations instead of drawing them.
type Recorder struct {
	size geometry.Size
	Ops  []Op
}

// NewRecorder creates a recorder reporting the given size.
func NewRecorder(size geometry.Size) *Recorder {
	return &Recorder{size: size}
}

func (r *Recorder) Size() geometry.Size { return r.size }
func (r *Recorder) Clear()              { r.Ops = append(r.Ops, ClearOp{}) }

func (r *Recorder) DrawLine(x1, y1, x2, y2 float64, c color.Color) {
	r.Ops = append(r.Ops, LineOp{X1: x1, Y1: y1, X2: x2, Y2: y2, Color: c})
}

func (r *Recorder) DrawImageRegion(src image.Image, srcRect, dstRect geometry.Rect) {
	r.Ops = append(r.Ops, ImageOp{Src: src, SrcRect: srcRect, DstRect: dstRect})
}

func (r *Recorder) StrokeRect(rect geometry.Rect, c color.Color) {
	r.Ops = append(r.Ops, RectOp{Rect: rect, Color: c})
}

func (r *Recorder) DrawLabel(x, y float64, text string, c color.Color) {
	r.Ops = append(r.Ops, LabelOp{X: x, Y: y, Text: text, Color: c})
}

func (r *Recorder) Translate(dx, dy float64) { r.Ops = append(r.Ops, TranslateOp{DX: dx, DY: dy}) }
func (r *Recorder) Scale(sx, sy float64)     { r.Ops = append(r.Ops, ScaleOp{SX: sx, SY: sy}) }
func (r *Recorder) Rotate(radians float64)   { r.Ops = append(r.Ops, RotateOp{Radians: radians}) }
func (r *Recorder) ResetTransform()          { r.Ops = append(r.Ops, ResetOp{}) }
