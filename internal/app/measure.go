package app

import (
	"key-decoder/internal/calibration"
	"key-decoder/internal/keydb"
)

// Measurement is a canvas point expressed on the calibrated blade.
type Measurement struct {
	SpaceMM float64 // Along the blade from the reference line (shoulder or tip)
	DepthMM float64 // Above the bottom line
}

// Measure converts a canvas position in percent to millimetres along and
// above the blade. Spacing runs from the shoulder for bow-to-tip keys and
// from the tip for tip-to-bow keys. It reports false until calibrated.
func (s *State) Measure(xPct, yPct float64) (Measurement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc := s.calibrationLocked()
	if s.profile == nil || !sc.Calibrated() {
		return Measurement{}, false
	}

	x := calibration.ToPixelsX(xPct, s.canvas.Width)
	y := calibration.ToPixelsY(yPct, s.canvas.Height)
	bottom, _, shoulder, tip := s.landmarks.Pixels(s.canvas)

	along := x - shoulder
	if s.profile.Order == keydb.TipToBow {
		along = tip - x
	}

	var m Measurement
	var okX, okY bool
	m.SpaceMM, okX = calibration.ToMillimetres(along, sc.HorizontalPxPerMM)
	m.DepthMM, okY = calibration.ToMillimetres(bottom-y, sc.VerticalPxPerMM)
	return m, okX && okY
}
