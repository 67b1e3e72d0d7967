package panels

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// slider is a labelled slider that shows its current value.
type slider struct {
	*widget.Slider
	value  *widget.Label
	format string
}

// newSlider creates a slider over [min, max] and a row widget showing its
// label and value. onChanged is not called for the initial value.
func newSlider(label string, min, max, step, initial float64, format string, onChanged func(float64)) (*slider, fyne.CanvasObject) {
	s := &slider{
		Slider: widget.NewSlider(min, max),
		value:  widget.NewLabel(""),
		format: format,
	}
	s.Step = step
	s.Value = initial
	s.value.SetText(fmt.Sprintf(format, initial))
	s.OnChanged = func(v float64) {
		s.value.SetText(fmt.Sprintf(s.format, v))
		if onChanged != nil {
			onChanged(v)
		}
	}

	row := container.NewBorder(nil, nil, widget.NewLabel(label), s.value, s.Slider)
	return s, row
}

// setUnset parks the slider at v without calling onChanged and shows that
// no value has been chosen yet.
func (s *slider) setUnset(v float64) {
	s.setQuietly(v)
	s.value.SetText("unset")
}

// setQuietly moves the slider without calling onChanged.
func (s *slider) setQuietly(v float64) {
	cb := s.OnChanged
	s.OnChanged = nil
	s.SetValue(v)
	s.OnChanged = cb
	s.value.SetText(fmt.Sprintf(s.format, v))
}
