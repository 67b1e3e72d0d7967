package panels

import (
	"fmt"
	"strconv"

	"key-decoder/internal/app"
	"key-decoder/internal/keydb"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// KeyPanel selects the brand, key type and number of cuts.
type KeyPanel struct {
	state     *app.State
	container fyne.CanvasObject

	brandSelect *widget.Select
	typeSelect  *widget.Select
	cutsSelect  *widget.Select
	info        *widget.Label

	types    []keydb.TypeRef
	updating bool // Set while controls are filled from the state
}

// NewKeyPanel creates a new key panel.
func NewKeyPanel(state *app.State) *KeyPanel {
	kp := &KeyPanel{state: state}

	kp.info = widget.NewLabel("No key selected")
	kp.info.Wrapping = fyne.TextWrapWord

	kp.brandSelect = widget.NewSelect(nil, func(brand string) {
		if kp.updating || brand == "" {
			return
		}
		state.SelectBrand(brand)
	})
	kp.typeSelect = widget.NewSelect(nil, func(string) {
		if kp.updating {
			return
		}
		i := kp.typeSelect.SelectedIndex()
		if i >= 0 && i < len(kp.types) {
			state.SelectTypeRef(kp.types[i])
		}
	})
	kp.cutsSelect = widget.NewSelect(nil, func(val string) {
		if kp.updating {
			return
		}
		if n, err := strconv.Atoi(val); err == nil {
			state.SelectCutCount(n)
		}
	})

	kp.container = container.NewVBox(
		widget.NewCard("Key", "", container.NewVBox(
			widget.NewLabel("Brand:"),
			kp.brandSelect,
			widget.NewLabel("Type:"),
			kp.typeSelect,
			widget.NewLabel("Number of cuts:"),
			kp.cutsSelect,
		)),
		widget.NewCard("Profile", "", kp.info),
	)

	// Register for events
	state.On(app.EventDatabaseLoaded, func(interface{}) { kp.sync() })
	state.On(app.EventBrandChanged, func(interface{}) { kp.sync() })
	state.On(app.EventProfileChanged, func(interface{}) { kp.sync() })
	state.On(app.EventCutCountChanged, func(interface{}) { kp.syncCuts() })

	kp.sync()
	return kp
}

// Container returns the panel container.
func (kp *KeyPanel) Container() fyne.CanvasObject {
	return kp.container
}

// sync fills every select from the state.
func (kp *KeyPanel) sync() {
	kp.updating = true
	defer func() { kp.updating = false }()

	kp.brandSelect.Options = kp.state.Brands()
	kp.brandSelect.SetSelected(kp.state.Brand())
	kp.brandSelect.Refresh()

	kp.types = kp.state.Types()
	names := make([]string, len(kp.types))
	for i, t := range kp.types {
		names[i] = t.Name
	}
	kp.typeSelect.Options = names
	kp.typeSelect.ClearSelected()
	if p, ok := kp.state.Profile(); ok {
		name := kp.state.TypeName()
		for i, t := range kp.types {
			if t.Index == p.Index && t.Name == name {
				kp.typeSelect.SetSelectedIndex(i)
				break
			}
		}
	}
	kp.typeSelect.Refresh()

	kp.syncCutsLocked()
	kp.info.SetText(profileInfo(kp.state))
}

func (kp *KeyPanel) syncCuts() {
	kp.updating = true
	defer func() { kp.updating = false }()
	kp.syncCutsLocked()
}

func (kp *KeyPanel) syncCutsLocked() {
	counts := kp.state.CutCounts()
	opts := make([]string, len(counts))
	for i, n := range counts {
		opts[i] = strconv.Itoa(n)
	}
	kp.cutsSelect.Options = opts
	if n := kp.state.CutCount(); n > 0 {
		kp.cutsSelect.SetSelected(strconv.Itoa(n))
	} else {
		kp.cutsSelect.ClearSelected()
	}
	kp.cutsSelect.Refresh()
}

// profileInfo describes the selected profile in a few lines.
func profileInfo(state *app.State) string {
	p, ok := state.Profile()
	if !ok {
		return "No key selected"
	}
	if len(p.Depths) == 0 {
		return "Profile has no depths"
	}
	return fmt.Sprintf("Blade: %.2f x %.2f mm\nFirst cut: %.2f mm, spacing %.2f mm\nOrder: %s\nDepths: %d (%s to %s)",
		p.BladeLength, p.BladeHeight,
		p.FirstCut, p.CutSpacing,
		p.Order,
		len(p.Depths), p.Depths[0].Cut, p.Depths[len(p.Depths)-1].Cut)
}
