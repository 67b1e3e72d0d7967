package alignment

import (
	"image/color"

	"key-decoder/internal/calibration"
	"key-decoder/internal/render"
	"key-decoder/pkg/colorutil"
	"key-decoder/pkg/geometry"
)

// GuideColors are the colors of the four alignment lines.
type GuideColors struct {
	Bottom   color.Color
	Top      color.Color
	Shoulder color.Color
	Tip      color.Color
}

// DefaultGuideColors returns red, orange, blue and green.
func DefaultGuideColors() GuideColors {
	return GuideColors{
		Bottom:   colorutil.Red,
		Top:      colorutil.Orange,
		Shoulder: colorutil.Blue,
		Tip:      colorutil.Green,
	}
}

// GuideLines returns the full-span alignment lines for every set landmark:
// horizontal at bottom and top, vertical at shoulder and tip.
func GuideLines(l calibration.Landmarks, canvas geometry.Size, colors GuideColors) []render.LineOp {
	var lines []render.LineOp
	horizontal := func(m calibration.Mark, c color.Color) {
		if !m.Set {
			return
		}
		y := calibration.ToPixelsY(m.Pct, canvas.Height)
		lines = append(lines, render.LineOp{X1: 0, Y1: y, X2: canvas.Width, Y2: y, Color: c})
	}
	vertical := func(m calibration.Mark, c color.Color) {
		if !m.Set {
			return
		}
		x := calibration.ToPixelsX(m.Pct, canvas.Width)
		lines = append(lines, render.LineOp{X1: x, Y1: 0, X2: x, Y2: canvas.Height, Color: c})
	}

	horizontal(l.Bottom, colors.Bottom)
	horizontal(l.Top, colors.Top)
	vertical(l.Shoulder, colors.Shoulder)
	vertical(l.Tip, colors.Tip)
	return lines
}

// DrawGuides clears s and draws the alignment lines.
func DrawGuides(s render.Surface, l calibration.Landmarks, colors GuideColors) {
	s.Clear()
	for _, line := range GuideLines(l, s.Size(), colors) {
		line.Apply(s)
	}
}
