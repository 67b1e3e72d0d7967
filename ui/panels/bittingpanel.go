package panels

import (
	"fmt"

	"key-decoder/internal/alignment"
	"key-decoder/internal/app"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const unsetOption = "-"

// BittingPanel picks a depth for every cut and shows the resulting code.
type BittingPanel struct {
	state     *app.State
	container fyne.CanvasObject

	cuts        *fyne.Container
	cutSelects  []*widget.Select
	codeEntry   *widget.Entry
	codeLabel   *widget.Label
	errLabel    *widget.Label
	calibLabel  *widget.Label
	labelsCheck *widget.Check

	updating bool
}

// NewBittingPanel creates a new bitting panel.
func NewBittingPanel(state *app.State) *BittingPanel {
	bp := &BittingPanel{state: state}

	bp.cuts = container.NewGridWithColumns(2)
	bp.codeLabel = widget.NewLabel("")
	bp.errLabel = widget.NewLabel("")
	bp.errLabel.Importance = widget.DangerImportance
	bp.calibLabel = widget.NewLabel("")
	bp.calibLabel.Wrapping = fyne.TextWrapWord

	bp.codeEntry = widget.NewEntry()
	bp.codeEntry.SetPlaceHolder("e.g. 35214")
	bp.codeEntry.OnSubmitted = func(string) { bp.applyCode() }
	applyBtn := widget.NewButton("Apply", bp.applyCode)

	bp.labelsCheck = widget.NewCheck("Show labels", func(on bool) {
		if bp.updating {
			return
		}
		state.SetShowLabels(on)
	})

	bp.container = container.NewVScroll(container.NewVBox(
		widget.NewCard("Cuts", "", bp.cuts),
		widget.NewCard("Code", "", container.NewVBox(
			bp.codeLabel,
			container.NewBorder(nil, nil, nil, applyBtn, bp.codeEntry),
			bp.errLabel,
		)),
		widget.NewCard("Display", "", container.NewVBox(
			bp.labelsCheck,
			bp.calibLabel,
		)),
	))

	// Register for events
	state.On(app.EventProfileChanged, func(interface{}) { bp.sync() })
	state.On(app.EventCutCountChanged, func(interface{}) { bp.sync() })
	state.On(app.EventChanged, func(interface{}) { bp.syncStatus() })

	bp.sync()
	return bp
}

// Container returns the panel container.
func (bp *BittingPanel) Container() fyne.CanvasObject {
	return bp.container
}

func (bp *BittingPanel) applyCode() {
	p, ok := bp.state.Profile()
	if !ok {
		bp.errLabel.SetText("No key selected")
		return
	}
	b, err := alignment.ParseBitting(bp.codeEntry.Text, &p)
	if err != nil {
		bp.errLabel.SetText(err.Error())
		return
	}
	bp.errLabel.SetText("")
	bp.state.SetBitting(b)
}

// sync rebuilds one select per cut from the profile and bitting.
func (bp *BittingPanel) sync() {
	bp.updating = true
	defer func() { bp.updating = false }()

	p, ok := bp.state.Profile()
	b := bp.state.Bitting()

	opts := []string{unsetOption}
	if ok {
		opts = append(opts, p.DepthLabels()...)
	}

	bp.cuts.Objects = nil
	bp.cutSelects = bp.cutSelects[:0]
	for i := range b {
		cut := i
		var sel *widget.Select
		sel = widget.NewSelect(opts, func(string) {
			if bp.updating {
				return
			}
			// Index 0 is the unset option
			bp.state.SetDepth(cut, sel.SelectedIndex()-1)
		})
		sel.SetSelectedIndex(b[i] + 1)
		bp.cutSelects = append(bp.cutSelects, sel)
		bp.cuts.Add(widget.NewLabel(fmt.Sprintf("Cut %d", i+1)))
		bp.cuts.Add(sel)
	}
	bp.cuts.Refresh()

	bp.labelsCheck.SetChecked(bp.state.ShowLabels())
	bp.syncStatusLocked()
}

func (bp *BittingPanel) syncStatus() {
	bp.updating = true
	defer func() { bp.updating = false }()
	bp.syncStatusLocked()
}

func (bp *BittingPanel) syncStatusLocked() {
	p, ok := bp.state.Profile()
	if !ok {
		bp.codeLabel.SetText("No key selected")
	} else {
		bp.codeLabel.SetText(bp.state.Bitting().Code(&p))
	}
	bp.labelsCheck.SetChecked(bp.state.ShowLabels())
	bp.calibLabel.SetText(calibrationStatus(bp.state))
}

// calibrationStatus explains whether markers can be placed.
func calibrationStatus(state *app.State) string {
	if _, ok := state.Profile(); !ok {
		return "Select a key to place markers"
	}
	sc := state.Calibration()
	switch {
	case sc.Calibrated():
		return fmt.Sprintf("Calibrated: %.2f px/mm across, %.2f px/mm up", sc.HorizontalPxPerMM, sc.VerticalPxPerMM)
	case !state.Landmarks().Complete():
		return "Place all four lines to calibrate"
	default:
		return "Lines do not give a usable scale"
	}
}
