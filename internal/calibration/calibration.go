// Package calibration converts between slider percentages, canvas pixels and
// millimetres on the key blade.
//
// Every function is a pure function of its arguments. Scale factors are
// always recomputed from the landmarks, never adjusted incrementally.
package calibration

import (
	"key-decoder/pkg/geometry"
)

// Mark is an optional landmark position in percent (0-100) of the canvas.
type Mark struct {
	Pct float64
	Set bool
}

// At returns a set Mark at pct.
func At(pct float64) Mark {
	return Mark{Pct: pct, Set: true}
}

// Landmarks are the four user-placed alignment lines.
type Landmarks struct {
	Bottom   Mark // Base of the blade (horizontal line)
	Top      Mark // Top of the blade (horizontal line)
	Shoulder Mark // Shoulder stop (vertical line)
	Tip      Mark // End of the blade (vertical line)
}

// Complete reports whether all four landmarks are set.
func (l Landmarks) Complete() bool {
	return l.Bottom.Set && l.Top.Set && l.Shoulder.Set && l.Tip.Set
}

// BladeDims are the physical blade dimensions in mm.
type BladeDims struct {
	Length float64
	Height float64
}

// Scale holds the derived pixels-per-millimetre factors.
type Scale struct {
	VerticalPxPerMM   float64
	HorizontalPxPerMM float64
	VerticalOK        bool
	HorizontalOK      bool
}

// Calibrated reports whether both factors are defined.
func (s Scale) Calibrated() bool {
	return s.VerticalOK && s.HorizontalOK
}

// ToPixelsX converts a percentage of the canvas width to pixels.
func ToPixelsX(pct, canvasWidth float64) float64 {
	return pct / 100 * canvasWidth
}

// ToPixelsY converts a percentage of the canvas height to pixels.
func ToPixelsY(pct, canvasHeight float64) float64 {
	return pct / 100 * canvasHeight
}

// ToImagePixelsX converts a percentage of the source image width to pixels.
// Crop percentages are relative to the original image, not the canvas.
func ToImagePixelsX(pct, imageWidth float64) float64 {
	return pct / 100 * imageWidth
}

// ToImagePixelsY converts a percentage of the source image height to pixels.
func ToImagePixelsY(pct, imageHeight float64) float64 {
	return pct / 100 * imageHeight
}

// ToMillimetres converts a pixel distance to mm. It reports false when the
// scale is zero.
func ToMillimetres(px, pxPerMM float64) (float64, bool) {
	if pxPerMM == 0 {
		return 0, false
	}
	return px / pxPerMM, true
}

// ToPixelsFromMM converts a distance in mm to pixels.
func ToPixelsFromMM(mm, pxPerMM float64) float64 {
	return mm * pxPerMM
}

// ComputeVerticalScale returns the vertical pixels per mm given the bottom
// and top landmarks. It reports false when either landmark is unset or the
// blade height is not positive.
func ComputeVerticalScale(bottom, top Mark, canvasHeight, bladeHeightMM float64) (float64, bool) {
	if !bottom.Set || !top.Set || bladeHeightMM <= 0 {
		return 0, false
	}
	return ((bottom.Pct - top.Pct) / 100 * canvasHeight) / bladeHeightMM, true
}

// ComputeHorizontalScale returns the horizontal pixels per mm given the tip
// and shoulder landmarks. It reports false when either landmark is unset or
// the blade length is not positive.
func ComputeHorizontalScale(tip, shoulder Mark, canvasWidth, bladeLengthMM float64) (float64, bool) {
	if !tip.Set || !shoulder.Set || bladeLengthMM <= 0 {
		return 0, false
	}
	return ((tip.Pct - shoulder.Pct) / 100 * canvasWidth) / bladeLengthMM, true
}

// Calibrate derives both scale factors.
func Calibrate(l Landmarks, canvas geometry.Size, blade BladeDims) Scale {
	var s Scale
	s.VerticalPxPerMM, s.VerticalOK = ComputeVerticalScale(l.Bottom, l.Top, canvas.Height, blade.Height)
	s.HorizontalPxPerMM, s.HorizontalOK = ComputeHorizontalScale(l.Tip, l.Shoulder, canvas.Width, blade.Length)
	return s
}

// Pixels returns the landmarks in canvas pixels; unset marks yield 0.
func (l Landmarks) Pixels(canvas geometry.Size) (bottom, top, shoulder, tip float64) {
	return ToPixelsY(l.Bottom.Pct, canvas.Height),
		ToPixelsY(l.Top.Pct, canvas.Height),
		ToPixelsX(l.Shoulder.Pct, canvas.Width),
		ToPixelsX(l.Tip.Pct, canvas.Width)
}
