package alignment

import (
	"fmt"
	"image/color"
	"strings"

	"key-decoder/internal/calibration"
	"key-decoder/internal/keydb"
	"key-decoder/internal/log"
	"key-decoder/internal/render"
	"key-decoder/pkg/geometry"
)

// Unset marks a cut whose depth has not been chosen.
const Unset = -1

// Marker geometry in pixels; not scaled with the canvas.
const (
	MarkerHalfWidth = 8
	MarkerHeight    = 16
	LabelGap        = 3
)

// Bitting holds one depth-table index per cut position.
type Bitting []int

// NewBitting returns a bitting of n unset cuts.
func NewBitting(n int) Bitting {
	b := make(Bitting, max(n, 0))
	for i := range b {
		b[i] = Unset
	}
	return b
}

// Complete reports whether every cut has a depth.
func (b Bitting) Complete() bool {
	for _, d := range b {
		if d == Unset {
			return false
		}
	}
	return len(b) > 0
}

// Code renders the bitting with the profile's depth labels, "-" for unset
// or unknown depths.
func (b Bitting) Code(p *keydb.Profile) string {
	var sb strings.Builder
	for i, d := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if p == nil || d < 0 || d >= len(p.Depths) {
			sb.WriteByte('-')
			continue
		}
		sb.WriteString(p.Depths[d].Cut)
	}
	return sb.String()
}

// ParseBitting reads depth labels separated by commas or spaces ("3,5,2")
// or, when every label is one character, written together ("352").
func ParseBitting(code string, p *keydb.Profile) (Bitting, error) {
	if p == nil {
		return nil, fmt.Errorf("no key profile selected")
	}
	fields := strings.FieldsFunc(code, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 1 && len(fields[0]) > 1 && p.DepthIndex(fields[0]) < 0 {
		fields = strings.Split(fields[0], "")
	}

	b := make(Bitting, len(fields))
	for i, f := range fields {
		if f == "-" {
			b[i] = Unset
			continue
		}
		idx := p.DepthIndex(f)
		if idx < 0 {
			return nil, fmt.Errorf("cut %d: unknown depth %q", i+1, f)
		}
		b[i] = idx
	}
	return b, nil
}

// Marker is the on-screen position of one cut, at the bottom of the cut.
type Marker struct {
	Cut   int
	Label string
	X, Y  float64
}

// Lines returns the chevron strokes: two diagonals converging on the cut
// point and a short horizontal under it.
func (m Marker) Lines() [3][2]geometry.Point2D {
	x, y := m.X, m.Y
	return [3][2]geometry.Point2D{
		{{X: x - MarkerHalfWidth, Y: y - MarkerHeight}, {X: x, Y: y}},
		{{X: x + MarkerHalfWidth, Y: y - MarkerHeight}, {X: x, Y: y}},
		{{X: x - MarkerHalfWidth, Y: y}, {X: x + MarkerHalfWidth, Y: y}},
	}
}

// PlaceBitting computes one marker per chosen cut. It reports false, with no
// markers, when the landmarks, calibration or profile are not available.
// Unset or out-of-range cuts are skipped.
//
// Cut positions are linear in the cut index: measured from the shoulder for
// bow-to-tip keys and from the tip for tip-to-bow keys. Deeper cuts sit
// further above the bottom landmark. Markers are returned in draw order.
func PlaceBitting(b Bitting, p *keydb.Profile, l calibration.Landmarks, canvas geometry.Size, sc calibration.Scale) ([]Marker, bool) {
	if p == nil || len(p.Depths) == 0 || !l.Complete() || !sc.Calibrated() {
		return nil, false
	}

	h := sc.HorizontalPxPerMM
	v := sc.VerticalPxPerMM
	bottomY := calibration.ToPixelsY(l.Bottom.Pct, canvas.Height)

	markers := make([]Marker, 0, len(b))
	place := func(i int, x float64) {
		d := b[i]
		if d < 0 || d >= len(p.Depths) {
			log.Debugf("bitting: cut %d has no depth (%d)", i, d)
			return
		}
		markers = append(markers, Marker{
			Cut:   i,
			Label: p.Depths[d].Cut,
			X:     x,
			Y:     bottomY - calibration.ToPixelsFromMM(p.Depths[d].Depth, v),
		})
	}

	switch p.Order {
	case keydb.BowToTip:
		firstX := calibration.ToPixelsFromMM(p.FirstCut, h) + calibration.ToPixelsX(l.Shoulder.Pct, canvas.Width)
		for i := 0; i < len(b); i++ {
			place(i, firstX+calibration.ToPixelsFromMM(p.CutSpacing, h)*float64(i))
		}
	case keydb.TipToBow:
		firstX := calibration.ToPixelsX(l.Tip.Pct, canvas.Width) - calibration.ToPixelsFromMM(p.FirstCut, h)
		for i := len(b) - 1; i >= 0; i-- {
			place(i, firstX-calibration.ToPixelsFromMM(p.CutSpacing, h)*float64(i))
		}
	default:
		log.Errorf("bitting: unsupported cut order %d", p.Order)
		return nil, false
	}
	return markers, true
}

// DrawBitting clears s and draws every marker.
func DrawBitting(s render.Surface, markers []Marker, c color.Color) {
	s.Clear()
	for _, m := range markers {
		for _, seg := range m.Lines() {
			s.DrawLine(seg[0].X, seg[0].Y, seg[1].X, seg[1].Y, c)
		}
	}
}

// DrawMarkerLabels writes each marker's depth label just above its chevron.
// It does not clear s.
func DrawMarkerLabels(s render.Surface, markers []Marker, c color.Color) {
	for _, m := range markers {
		s.DrawLabel(m.X, m.Y-MarkerHeight-LabelGap, m.Label, c)
	}
}
