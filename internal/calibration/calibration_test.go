package calibration

import (
	"testing"

	"key-decoder/pkg/geometry"

	"github.com/stretchr/testify/assert"
)

func TestToPixelsIsLinear(t *testing.T) {
	for _, w := range []float64{1, 640, 1000, 1920.5} {
		for p := 0.0; p <= 100; p += 12.5 {
			assert.InDelta(t, p/100, ToPixelsX(p, w)/w, 1e-12)
			assert.InDelta(t, p/100, ToPixelsY(p, w)/w, 1e-12)
		}
		assert.Equal(t, 0.0, ToPixelsX(0, w))
		assert.Equal(t, w, ToPixelsX(100, w))
	}
}

func TestImagePixels(t *testing.T) {
	assert.Equal(t, 250.0, ToImagePixelsX(25, 1000))
	assert.Equal(t, 300.0, ToImagePixelsY(50, 600))
}

func TestVerticalScale(t *testing.T) {
	v, ok := ComputeVerticalScale(At(80), At(20), 500, 10)
	assert.True(t, ok)
	assert.InDelta(t, 30.0, v, 1e-12)
}

func TestVerticalScaleUncalibrated(t *testing.T) {
	for _, blade := range []float64{0, -1, -100} {
		for _, h := range []float64{0, 100, 4000} {
			_, ok := ComputeVerticalScale(At(90), At(10), h, blade)
			assert.False(t, ok)
		}
	}
	_, ok := ComputeVerticalScale(Mark{}, At(10), 500, 10)
	assert.False(t, ok)
	_, ok = ComputeVerticalScale(At(10), Mark{}, 500, 10)
	assert.False(t, ok)
}

func TestHorizontalScale(t *testing.T) {
	h, ok := ComputeHorizontalScale(At(90), At(10), 1000, 40)
	assert.True(t, ok)
	assert.InDelta(t, 20.0, h, 1e-12)

	_, ok = ComputeHorizontalScale(At(90), At(10), 1000, 0)
	assert.False(t, ok)
	_, ok = ComputeHorizontalScale(Mark{}, At(10), 1000, 40)
	assert.False(t, ok)
}

func TestCalibrate(t *testing.T) {
	l := Landmarks{Bottom: At(80), Top: At(20), Shoulder: At(10), Tip: At(90)}
	assert.True(t, l.Complete())

	s := Calibrate(l, geometry.NewSize(1000, 500), BladeDims{Length: 40, Height: 10})
	assert.True(t, s.Calibrated())
	assert.InDelta(t, 30.0, s.VerticalPxPerMM, 1e-12)
	assert.InDelta(t, 20.0, s.HorizontalPxPerMM, 1e-12)

	s = Calibrate(l, geometry.NewSize(1000, 500), BladeDims{Length: 40})
	assert.False(t, s.Calibrated())
	assert.True(t, s.HorizontalOK)
	assert.False(t, s.VerticalOK)

	l.Tip = Mark{}
	assert.False(t, l.Complete())
	assert.False(t, Calibrate(l, geometry.NewSize(1000, 500), BladeDims{40, 10}).Calibrated())
}

func TestMillimetres(t *testing.T) {
	mm, ok := ToMillimetres(12, 4)
	assert.True(t, ok)
	assert.Equal(t, 3.0, mm)
	_, ok = ToMillimetres(12, 0)
	assert.False(t, ok)
	assert.Equal(t, 12.0, ToPixelsFromMM(3, 4))
}

func TestLandmarkPixels(t *testing.T) {
	l := Landmarks{Bottom: At(80), Top: At(20), Shoulder: At(10), Tip: At(90)}
	b, tp, s, tip := l.Pixels(geometry.NewSize(1000, 500))
	assert.InDelta(t, 400.0, b, 1e-9)
	assert.InDelta(t, 100.0, tp, 1e-9)
	assert.InDelta(t, 100.0, s, 1e-9)
	assert.InDelta(t, 900.0, tip, 1e-9)
}
