package alignment

import (
	"key-decoder/pkg/geometry"

	"gonum.org/v1/gonum/floats"
)

// Slice is one vertical strip of the keystone correction.
type Slice struct {
	Src geometry.Rect // In source image pixels
	Dst geometry.Rect // In canvas pixels
}

// KeystonePlan divides crop into equal-width vertical strips and maps each
// onto an equal-width canvas strip whose height ramps from the canvas height
// at the left edge toward height*ratio at the right, vertically centred.
// Strips are returned in draw order, left to right.
func KeystonePlan(crop geometry.Rect, canvas geometry.Size, slices int, ratio float64, ramp Ramp) []Slice {
	t := TransformSpec{KeystoneSlices: slices, KeystoneRatio: ratio}.Normalized()
	n := t.KeystoneSlices

	srcW := crop.Width / float64(n)
	dstW := canvas.Width / float64(n)
	heights := keystoneHeights(canvas.Height, n, t.KeystoneRatio, ramp)

	plan := make([]Slice, n)
	for i := 0; i < n; i++ {
		h := heights[i]
		plan[i] = Slice{
			Src: geometry.Rect{X: crop.X + srcW*float64(i), Y: crop.Y, Width: srcW, Height: crop.Height},
			Dst: geometry.Rect{X: dstW * float64(i), Y: (canvas.Height - h) / 2, Width: dstW, Height: h},
		}
	}
	return plan
}

// keystoneHeights returns the destination height of each of n slices.
func keystoneHeights(height float64, n int, ratio float64, ramp Ramp) []float64 {
	heights := make([]float64, n)

	if ramp == RampExact && n > 1 {
		return floats.Span(heights, height, height*ratio)
	}

	h := height
	step := (height*ratio - height) / float64(n)
	for i := range heights {
		heights[i] = h
		h += step
	}
	return heights
}
