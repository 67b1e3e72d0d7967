package app

import (
	"slices"

	"key-decoder/internal/alignment"
	"key-decoder/internal/report"
)

// Report describes the current decode: the selected key, the bitting code
// and, once calibrated, where every cut sits.
func (s *State) Report() *report.Report {
	r := report.New()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.photo != nil {
		r.Image = s.photo.Path
	}
	r.Database = s.dbSrc
	r.Brand = s.brand
	r.Cuts = s.cuts
	r.Code = s.bitting.Code(s.profile)
	r.Complete = s.bitting.Complete()

	r.Crop = report.Crop(s.crop)
	r.Transform = report.Transform{
		Rotation:       s.transform.RotationDegrees,
		HFlip:          s.transform.HFlip,
		VFlip:          s.transform.VFlip,
		KeystoneSlices: s.transform.KeystoneSlices,
		KeystoneRatio:  s.transform.KeystoneRatio,
		Ramp:           s.transform.Ramp.String(),
	}

	if s.profile == nil {
		return r
	}
	r.Type = s.typeName
	r.Order = s.profile.Order.String()

	sc := s.calibrationLocked()
	if sc.Calibrated() {
		r.Scale = &report.Scale{HorizontalPxPerMM: sc.HorizontalPxPerMM, VerticalPxPerMM: sc.VerticalPxPerMM}
	}

	markers, ok := s.markersLocked(sc)
	if !ok {
		return r
	}
	// Report in cut order whatever the draw order
	slices.SortFunc(markers, func(a, b alignment.Marker) int { return a.Cut - b.Cut })
	for _, m := range markers {
		r.Positions = append(r.Positions, report.Position{
			Cut:     m.Cut + 1,
			Label:   m.Label,
			SpaceMM: s.profile.FirstCut + s.profile.CutSpacing*float64(m.Cut),
			DepthMM: s.profile.Depths[s.bitting[m.Cut]].Depth,
			X:       m.X,
			Y:       m.Y,
		})
	}
	return r
}
