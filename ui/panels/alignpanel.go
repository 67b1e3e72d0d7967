package panels

import (
	"fmt"

	"key-decoder/internal/alignment"
	"key-decoder/internal/app"
	"key-decoder/internal/calibration"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Landmark names, as shown in the tap target selector.
const (
	landmarkBottom   = "Bottom"
	landmarkTop      = "Top"
	landmarkShoulder = "Shoulder"
	landmarkTip      = "Tip"
	measureTarget    = "Measure"
)

// Slider positions used while a landmark is unset, and by "Default lines".
var defaultLandmarkPct = map[string]float64{
	landmarkBottom:   80,
	landmarkTop:      20,
	landmarkShoulder: 10,
	landmarkTip:      90,
}

// AlignPanel edits the display transform and the four landmark lines.
type AlignPanel struct {
	state     *app.State
	container fyne.CanvasObject

	rotation *slider
	slices   *slider
	ratio    *slider
	hflip    *widget.Check
	vflip    *widget.Check
	ramp     *widget.Select

	bottom, top, shoulder, tip *slider
	target                     *widget.RadioGroup
	measured                   *widget.Label

	updating bool
}

// NewAlignPanel creates a new alignment panel.
func NewAlignPanel(state *app.State) *AlignPanel {
	ap := &AlignPanel{state: state}
	t := state.Transform()

	var rotRow, slicesRow, ratioRow fyne.CanvasObject
	ap.rotation, rotRow = newSlider("Rotate", -180, 180, 0.1, t.RotationDegrees, "%.1f°", func(float64) { ap.applyTransform() })
	ap.slices, slicesRow = newSlider("Slices", 1, 64, 1, float64(t.KeystoneSlices), "%.0f", func(float64) { ap.applyTransform() })
	ap.ratio, ratioRow = newSlider("Keystone", 0.5, 1.5, 0.005, t.KeystoneRatio, "%.3f", func(float64) { ap.applyTransform() })

	ap.hflip = widget.NewCheck("Flip horizontal", func(bool) { ap.applyTransform() })
	ap.vflip = widget.NewCheck("Flip vertical", func(bool) { ap.applyTransform() })
	ap.ramp = widget.NewSelect([]string{alignment.RampLegacy.String(), alignment.RampExact.String()}, func(string) {
		ap.applyTransform()
	})

	mark := func(name string) func(float64) {
		return func(v float64) { ap.applyLandmark(name, v) }
	}
	var bottomRow, topRow, shoulderRow, tipRow fyne.CanvasObject
	ap.bottom, bottomRow = newSlider(landmarkBottom, 0, 100, 0.1, defaultLandmarkPct[landmarkBottom], "%.1f%%", mark(landmarkBottom))
	ap.top, topRow = newSlider(landmarkTop, 0, 100, 0.1, defaultLandmarkPct[landmarkTop], "%.1f%%", mark(landmarkTop))
	ap.shoulder, shoulderRow = newSlider(landmarkShoulder, 0, 100, 0.1, defaultLandmarkPct[landmarkShoulder], "%.1f%%", mark(landmarkShoulder))
	ap.tip, tipRow = newSlider(landmarkTip, 0, 100, 0.1, defaultLandmarkPct[landmarkTip], "%.1f%%", mark(landmarkTip))

	ap.target = widget.NewRadioGroup([]string{landmarkBottom, landmarkTop, landmarkShoulder, landmarkTip, measureTarget}, nil)
	ap.target.Horizontal = true
	ap.target.SetSelected(landmarkBottom)
	ap.measured = widget.NewLabel("")

	clearBtn := widget.NewButton("Clear lines", func() {
		state.SetLandmarks(calibration.Landmarks{})
		ap.syncLandmarks()
	})
	defaultsBtn := widget.NewButton("Default lines", func() {
		state.SetLandmarks(defaultLandmarks())
		ap.syncLandmarks()
	})

	ap.container = container.NewVScroll(container.NewVBox(
		widget.NewCard("Transform", "", container.NewVBox(
			rotRow,
			container.NewGridWithColumns(2, ap.hflip, ap.vflip),
		)),
		widget.NewCard("Keystone", "", container.NewVBox(
			slicesRow,
			ratioRow,
			container.NewBorder(nil, nil, widget.NewLabel("Ramp"), nil, ap.ramp),
		)),
		widget.NewCard("Lines", "Tap the photo to place the selected line", container.NewVBox(
			ap.target,
			bottomRow, topRow, shoulderRow, tipRow,
			container.NewGridWithColumns(2, defaultsBtn, clearBtn),
			ap.measured,
		)),
	))

	ap.sync()
	return ap
}

// defaultLandmarks places every line at its parked slider position.
func defaultLandmarks() calibration.Landmarks {
	return calibration.Landmarks{
		Bottom:   calibration.At(defaultLandmarkPct[landmarkBottom]),
		Top:      calibration.At(defaultLandmarkPct[landmarkTop]),
		Shoulder: calibration.At(defaultLandmarkPct[landmarkShoulder]),
		Tip:      calibration.At(defaultLandmarkPct[landmarkTip]),
	}
}

// Container returns the panel container.
func (ap *AlignPanel) Container() fyne.CanvasObject {
	return ap.container
}

// PlaceAt moves the landmark selected in the tap target group to a canvas
// position given in percent. Horizontal lines take y, vertical lines take x.
// With Measure selected the point is reported in mm instead.
func (ap *AlignPanel) PlaceAt(xPct, yPct float64) {
	name := ap.target.Selected
	if name == measureTarget {
		ap.measureAt(xPct, yPct)
		return
	}
	s := ap.landmarkSlider(name)
	if s == nil {
		return
	}
	v := yPct
	if name == landmarkShoulder || name == landmarkTip {
		v = xPct
	}
	s.setQuietly(v)
	ap.applyLandmark(name, v)
}

func (ap *AlignPanel) measureAt(xPct, yPct float64) {
	m, ok := ap.state.Measure(xPct, yPct)
	if !ok {
		ap.measured.SetText("Place all four lines to measure")
		return
	}
	ap.measured.SetText(fmt.Sprintf("%.2f mm along, %.2f mm up", m.SpaceMM, m.DepthMM))
}

func (ap *AlignPanel) landmarkSlider(name string) *slider {
	switch name {
	case landmarkBottom:
		return ap.bottom
	case landmarkTop:
		return ap.top
	case landmarkShoulder:
		return ap.shoulder
	case landmarkTip:
		return ap.tip
	}
	return nil
}

func (ap *AlignPanel) applyTransform() {
	if ap.updating {
		return
	}
	ap.state.SetAlign(alignment.TransformSpec{
		RotationDegrees: ap.rotation.Value,
		HFlip:           ap.hflip.Checked,
		VFlip:           ap.vflip.Checked,
		KeystoneSlices:  int(ap.slices.Value),
		KeystoneRatio:   ap.ratio.Value,
		Ramp:            alignment.ParseRamp(ap.ramp.Selected),
	})
}

// applyLandmark sets one landmark and keeps the others as they are.
func (ap *AlignPanel) applyLandmark(name string, v float64) {
	if ap.updating {
		return
	}
	l := ap.state.Landmarks()
	switch name {
	case landmarkBottom:
		l.Bottom = calibration.At(v)
	case landmarkTop:
		l.Top = calibration.At(v)
	case landmarkShoulder:
		l.Shoulder = calibration.At(v)
	case landmarkTip:
		l.Tip = calibration.At(v)
	}
	ap.state.SetLandmarks(l)
}

// sync loads the transform and landmarks from the state.
func (ap *AlignPanel) sync() {
	ap.updating = true
	defer func() { ap.updating = false }()

	t := ap.state.Transform()
	ap.rotation.setQuietly(t.RotationDegrees)
	ap.slices.setQuietly(float64(t.KeystoneSlices))
	ap.ratio.setQuietly(t.KeystoneRatio)
	ap.hflip.SetChecked(t.HFlip)
	ap.vflip.SetChecked(t.VFlip)
	ap.ramp.SetSelected(t.Ramp.String())

	ap.syncLandmarksLocked()
}

func (ap *AlignPanel) syncLandmarks() {
	ap.updating = true
	defer func() { ap.updating = false }()
	ap.syncLandmarksLocked()
}

func (ap *AlignPanel) syncLandmarksLocked() {
	l := ap.state.Landmarks()
	set := func(s *slider, name string, m calibration.Mark) {
		if m.Set {
			s.setQuietly(m.Pct)
		} else {
			s.setUnset(defaultLandmarkPct[name])
		}
	}
	set(ap.bottom, landmarkBottom, l.Bottom)
	set(ap.top, landmarkTop, l.Top)
	set(ap.shoulder, landmarkShoulder, l.Shoulder)
	set(ap.tip, landmarkTip, l.Tip)
}
