// Package alignment turns a key photograph into the aligned display image and
// places candidate bitting markers over it.
package alignment

import (
	"image"

	"key-decoder/internal/calibration"
	"key-decoder/pkg/geometry"
)

// Ramp selects how destination slice heights progress across the keystone.
type Ramp int

const (
	// RampLegacy starts at the canvas height and adds (ratio-1)*height/slices
	// per slice, so the last slice stops one step short of the ratio.
	RampLegacy Ramp = iota
	// RampExact spreads the heights evenly so the last slice is exactly
	// canvas height * ratio.
	RampExact
)

func (r Ramp) String() string {
	switch r {
	case RampLegacy:
		return "legacy"
	case RampExact:
		return "exact"
	default:
		return "unknown"
	}
}

// ParseRamp maps "exact" to RampExact and anything else to RampLegacy.
func ParseRamp(s string) Ramp {
	if s == "exact" {
		return RampExact
	}
	return RampLegacy
}

// CropSpec is the crop rectangle in percent (0-100) of the source image.
type CropSpec struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// FullCrop selects the whole image.
func FullCrop() CropSpec {
	return CropSpec{Left: 0, Top: 0, Width: 100, Height: 100}
}

// Rect returns the crop rectangle in source image pixels.
func (c CropSpec) Rect(imageSize geometry.Size) geometry.Rect {
	return geometry.Rect{
		X:      calibration.ToImagePixelsX(c.Left, imageSize.Width),
		Y:      calibration.ToImagePixelsY(c.Top, imageSize.Height),
		Width:  calibration.ToImagePixelsX(c.Width, imageSize.Width),
		Height: calibration.ToImagePixelsY(c.Height, imageSize.Height),
	}
}

// CropBox returns the crop rectangle in canvas pixels, for the crop overlay.
func (c CropSpec) CropBox(canvas geometry.Size) geometry.Rect {
	return geometry.Rect{
		X:      calibration.ToPixelsX(c.Left, canvas.Width),
		Y:      calibration.ToPixelsY(c.Top, canvas.Height),
		Width:  calibration.ToPixelsX(c.Width, canvas.Width),
		Height: calibration.ToPixelsY(c.Height, canvas.Height),
	}
}

// TransformSpec describes the display transform and keystone correction.
type TransformSpec struct {
	RotationDegrees float64
	HFlip           bool
	VFlip           bool
	KeystoneSlices  int     // >= 1
	KeystoneRatio   float64 // 1 = none, <1 narrows the right edge, >1 widens it
	Ramp            Ramp
}

// DefaultTransform returns the identity transform with no keystone.
func DefaultTransform() TransformSpec {
	return TransformSpec{KeystoneSlices: 1, KeystoneRatio: 1}
}

// Normalized clamps the keystone parameters into their valid ranges.
func (t TransformSpec) Normalized() TransformSpec {
	if t.KeystoneSlices < 1 {
		t.KeystoneSlices = 1
	}
	if t.KeystoneRatio <= 0 {
		t.KeystoneRatio = 1
	}
	return t
}

func imageSize(img image.Image) geometry.Size {
	if img == nil {
		return geometry.Size{}
	}
	b := img.Bounds()
	return geometry.NewSize(float64(b.Dx()), float64(b.Dy()))
}
