// Package panels provides UI panels for the application.
package panels

import (
	"key-decoder/internal/app"
	"key-decoder/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	// Tab content
	keyPanel     *KeyPanel
	cropPanel    *CropPanel
	alignPanel   *AlignPanel
	bittingPanel *BittingPanel
}

// NewSidePanel creates a new side panel. Taps on cvs place the landmark
// chosen in the Align tab.
func NewSidePanel(state *app.State, cvs *canvas.KeyCanvas) *SidePanel {
	sp := &SidePanel{
		state: state,
	}

	// Create individual panels
	sp.keyPanel = NewKeyPanel(state)
	sp.cropPanel = NewCropPanel(state)
	sp.alignPanel = NewAlignPanel(state)
	sp.bittingPanel = NewBittingPanel(state)

	cvs.OnTapped(sp.alignPanel.PlaceAt)

	// Create tabbed container
	sp.container = container.NewAppTabs(
		container.NewTabItem("Key", sp.keyPanel.Container()),
		container.NewTabItem("Crop", sp.cropPanel.Container()),
		container.NewTabItem("Align", sp.alignPanel.Container()),
		container.NewTabItem("Bitting", sp.bittingPanel.Container()),
	)

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SelectTab switches to the named tab ("Key", "Crop", "Align", "Bitting").
func (sp *SidePanel) SelectTab(name string) {
	for _, item := range sp.container.Items {
		if item.Text == name {
			sp.container.Select(item)
			return
		}
	}
}

// Sync reloads every control from the state, for example after a new photo
// is loaded.
func (sp *SidePanel) Sync() {
	sp.keyPanel.sync()
	sp.cropPanel.sync()
	sp.alignPanel.sync()
	sp.bittingPanel.sync()
}
