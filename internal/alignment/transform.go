package alignment

import (
	"image"
	"image/color"
	"math"

	"key-decoder/internal/render"
	"key-decoder/pkg/geometry"
)

// DrawAligned redraws the key surface from the source photo: clear, apply
// flip and rotation about the canvas centre, draw the keystone-corrected
// crop, then reset the transform so later drawing is unaffected.
// The crop rectangle is computed in source image space and does not rotate.
func DrawAligned(s render.Surface, src image.Image, crop CropSpec, t TransformSpec) {
	s.Clear()
	if src == nil {
		return
	}
	t = t.Normalized()

	c := s.Size().Center()
	s.Translate(c.X, c.Y)
	s.Scale(flipSign(t.HFlip), flipSign(t.VFlip))
	s.Rotate(t.RotationDegrees * math.Pi / 180.0)
	s.Translate(-c.X, -c.Y)

	CropKeyWithKeystone(s, src, crop.Rect(imageSize(src)), t.KeystoneSlices, t.KeystoneRatio, t.Ramp)

	s.ResetTransform()
}

// CropKeyWithKeystone draws the crop rectangle (source pixels) onto s in
// vertical slices, left to right, following KeystonePlan.
func CropKeyWithKeystone(s render.Surface, src image.Image, crop geometry.Rect, slices int, ratio float64, ramp Ramp) {
	if src == nil {
		return
	}
	for _, sl := range KeystonePlan(crop, s.Size(), slices, ratio, ramp) {
		s.DrawImageRegion(src, sl.Src, sl.Dst)
	}
}

// CropKey clears s and draws the crop stretched over it with no transform
// and no keystone.
func CropKey(s render.Surface, src image.Image, crop CropSpec) {
	s.Clear()
	if src == nil {
		return
	}
	CropKeyWithKeystone(s, src, crop.Rect(imageSize(src)), 1, 1, RampLegacy)
}

// DrawFull clears s and stretches the whole photo over it.
func DrawFull(s render.Surface, src image.Image) {
	s.Clear()
	if src == nil {
		return
	}
	size := s.Size()
	s.DrawImageRegion(src,
		geometry.Rect{Width: imageSize(src).Width, Height: imageSize(src).Height},
		geometry.Rect{Width: size.Width, Height: size.Height})
}

// DrawCropBox clears s and outlines the crop rectangle in canvas space.
func DrawCropBox(s render.Surface, crop CropSpec, c color.Color) {
	s.Clear()
	s.StrokeRect(crop.CropBox(s.Size()), c)
}

func flipSign(flip bool) float64 {
	if flip {
		return -1
	}
	return 1
}
