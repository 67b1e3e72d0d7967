package panels

import (
	"key-decoder/internal/alignment"
	"key-decoder/internal/app"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// CropPanel edits the crop rectangle. Moving a slider shows the whole photo
// with the crop box; the Crop button switches to the aligned view.
type CropPanel struct {
	state     *app.State
	container fyne.CanvasObject

	left, top, width, height *slider
}

// NewCropPanel creates a new crop panel.
func NewCropPanel(state *app.State) *CropPanel {
	cp := &CropPanel{state: state}
	c := state.Crop()

	var leftRow, topRow, widthRow, heightRow fyne.CanvasObject
	cp.left, leftRow = newSlider("Left", 0, 100, 0.5, c.Left, "%.1f%%", func(float64) { cp.apply() })
	cp.top, topRow = newSlider("Top", 0, 100, 0.5, c.Top, "%.1f%%", func(float64) { cp.apply() })
	cp.width, widthRow = newSlider("Width", 0, 100, 0.5, c.Width, "%.1f%%", func(float64) { cp.apply() })
	cp.height, heightRow = newSlider("Height", 0, 100, 0.5, c.Height, "%.1f%%", func(float64) { cp.apply() })

	cropBtn := widget.NewButton("Crop", func() {
		state.ApplyCrop()
	})
	resetBtn := widget.NewButton("Reset", func() {
		state.SetCrop(alignment.FullCrop())
		cp.sync()
	})

	cp.container = container.NewVBox(
		widget.NewCard("Crop", "Percent of the photo", container.NewVBox(
			leftRow, topRow, widthRow, heightRow,
			container.NewGridWithColumns(2, cropBtn, resetBtn),
		)),
	)

	return cp
}

// Container returns the panel container.
func (cp *CropPanel) Container() fyne.CanvasObject {
	return cp.container
}

func (cp *CropPanel) apply() {
	cp.state.SetCrop(alignment.CropSpec{
		Left:   cp.left.Value,
		Top:    cp.top.Value,
		Width:  cp.width.Value,
		Height: cp.height.Value,
	})
}

// sync moves the sliders to the state's crop.
func (cp *CropPanel) sync() {
	c := cp.state.Crop()
	cp.left.setQuietly(c.Left)
	cp.top.setQuietly(c.Top)
	cp.width.setQuietly(c.Width)
	cp.height.setQuietly(c.Height)
}
