package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"key-decoder/pkg/geometry"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Raster is a Surface backed by an in-memory RGBA image.
type Raster struct {
	img *image.RGBA
	ctm geometry.AffineTransform

	// Interpolator resamples image regions. Defaults to ApproxBiLinear.
	Interpolator xdraw.Interpolator
	// LineWidth is the stroke thickness in pixels. Defaults to 1.
	LineWidth int
	// Face renders labels. Defaults to basicfont.Face7x13.
	Face font.Face
}

// NewRaster creates a transparent raster of the given size.
func NewRaster(width, height int) *Raster {
	return &Raster{
		img:          image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
		ctm:          geometry.Identity(),
		Interpolator: xdraw.ApproxBiLinear,
		LineWidth:    1,
		Face:         basicfont.Face7x13,
	}
}

// InterpolatorByName maps a quality setting to an interpolator:
// "nearest", "bilinear", "catmullrom" or anything else for ApproxBiLinear.
func InterpolatorByName(name string) xdraw.Interpolator {
	switch strings.ToLower(name) {
	case "nearest":
		return xdraw.NearestNeighbor
	case "bilinear":
		return xdraw.BiLinear
	case "catmullrom":
		return xdraw.CatmullRom
	default:
		return xdraw.ApproxBiLinear
	}
}

// Image returns the backing image.
func (r *Raster) Image() *image.RGBA {
	return r.img
}

// Resize replaces the backing image with a transparent one of the new size.
func (r *Raster) Resize(width, height int) {
	r.img = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
}

// Size returns the raster dimensions.
func (r *Raster) Size() geometry.Size {
	b := r.img.Bounds()
	return geometry.NewSize(float64(b.Dx()), float64(b.Dy()))
}

// Transform returns the current transform.
func (r *Raster) Transform() geometry.AffineTransform {
	return r.ctm
}

// Clear resets every pixel to transparent. The transform is left untouched.
func (r *Raster) Clear() {
	draw.Draw(r.img, r.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

func (r *Raster) Translate(dx, dy float64) {
	r.ctm = r.ctm.Compose(geometry.Translation(dx, dy))
}

func (r *Raster) Scale(sx, sy float64) {
	r.ctm = r.ctm.Compose(geometry.Scale(sx, sy))
}

func (r *Raster) Rotate(radians float64) {
	r.ctm = r.ctm.Compose(geometry.Rotation(radians))
}

func (r *Raster) ResetTransform() {
	r.ctm = geometry.Identity()
}

// DrawImageRegion draws srcRect of src (in src pixel coordinates, relative
// to its bounds origin) into dstRect, through the current transform.
func (r *Raster) DrawImageRegion(src image.Image, srcRect, dstRect geometry.Rect) {
	if src == nil || srcRect.Empty() || dstRect.Empty() {
		return
	}

	sb := src.Bounds()
	covered := image.Rect(
		int(math.Floor(srcRect.X)), int(math.Floor(srcRect.Y)),
		int(math.Ceil(srcRect.Right())), int(math.Ceil(srcRect.Bottom())),
	).Add(sb.Min).Intersect(sb)
	if covered.Empty() {
		return
	}

	// src bounds origin -> region -> destination rect -> current transform
	s2d := r.ctm.
		Compose(geometry.RectToRect(srcRect, dstRect)).
		Compose(geometry.Translation(-float64(sb.Min.X), -float64(sb.Min.Y)))
	if _, ok := s2d.Inverse(); !ok {
		// Collapsed to a line or a point: nothing to draw.
		return
	}

	// Transform's own integer-translation shortcut misplaces the region
	// vertically, so pure translations are copied here instead.
	if dp, ok := integerTranslation(s2d); ok {
		xdraw.Copy(r.img, covered.Min.Add(dp), src, covered, draw.Over, nil)
		return
	}

	interp := r.Interpolator
	if interp == nil {
		interp = xdraw.ApproxBiLinear
	}
	interp.Transform(r.img, s2d.Aff3(), src, covered, draw.Over, nil)
}

// integerTranslation reports whether t only moves pixels by whole amounts,
// returning the offset.
func integerTranslation(t geometry.AffineTransform) (image.Point, bool) {
	const eps = 1e-9
	if math.Abs(t.A-1) > eps || math.Abs(t.D-1) > eps || math.Abs(t.B) > eps || math.Abs(t.C) > eps {
		return image.Point{}, false
	}
	tx, ty := math.Round(t.TX), math.Round(t.TY)
	if math.Abs(t.TX-tx) > eps || math.Abs(t.TY-ty) > eps {
		return image.Point{}, false
	}
	return image.Pt(int(tx), int(ty)), true
}

// StrokeRect draws the outline of a rectangle through the current transform.
func (r *Raster) StrokeRect(rect geometry.Rect, c color.Color) {
	x1, y1, x2, y2 := rect.X, rect.Y, rect.Right(), rect.Bottom()
	r.DrawLine(x1, y1, x2, y1, c)
	r.DrawLine(x2, y1, x2, y2, c)
	r.DrawLine(x2, y2, x1, y2, c)
	r.DrawLine(x1, y2, x1, y1, c)
}

// DrawLabel draws text centred on x with its baseline at y. Only the anchor
// point goes through the current transform; glyphs are never rotated.
func (r *Raster) DrawLabel(x, y float64, text string, c color.Color) {
	if text == "" {
		return
	}
	if c == nil {
		c = color.Black
	}
	face := r.Face
	if face == nil {
		face = basicfont.Face7x13
	}

	p := r.ctm.Apply(geometry.NewPoint2D(x, y))
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: face,
	}
	w := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(int(math.Round(p.X))) - w/2,
		Y: fixed.I(int(math.Round(p.Y))),
	}
	d.DrawString(text)
}

// DrawLine draws a straight line through the current transform.
func (r *Raster) DrawLine(x1, y1, x2, y2 float64, c color.Color) {
	if c == nil {
		c = color.Black
	}
	p1 := r.ctm.Apply(geometry.NewPoint2D(x1, y1))
	p2 := r.ctm.Apply(geometry.NewPoint2D(x2, y2))
	thickness := r.LineWidth
	if thickness <= 0 {
		thickness = 1
	}
	drawLine(r.img,
		int(math.Round(p1.X)), int(math.Round(p1.Y)),
		int(math.Round(p2.X)), int(math.Round(p2.Y)),
		color.RGBAModel.Convert(c).(color.RGBA), thickness)
}

// drawLine draws a line using Bresenham's algorithm, clipped to the image.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	lo := -(thickness - 1) / 2
	hi := thickness / 2

	for {
		for t := lo; t <= hi; t++ {
			for s := lo; s <= hi; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					output.SetRGBA(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}
