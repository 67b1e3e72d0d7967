package app

import (
	"image/color"

	"key-decoder/internal/render"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var brass = color.NRGBA{R: 0xB5, G: 0x8B, B: 0x2A, A: 0xFF}

// KeyDecoderTheme ties the widget colors to the overlay palette, so the
// selected depth in the bitting tab reads in the marker color and the dark
// background matches the empty canvas.
type KeyDecoderTheme struct {
	Palette Palette
}

var _ fyne.Theme = (*KeyDecoderTheme)(nil)

// NewTheme returns a theme for the given overlay palette.
func NewTheme(p Palette) *KeyDecoderTheme {
	return &KeyDecoderTheme{Palette: p}
}

func (t *KeyDecoderTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return brass
	case theme.ColorNameSelection:
		return withAlpha(t.Palette.Bitting, 0x80)
	case theme.ColorNameError:
		if t.Palette.Guides.Bottom != nil {
			return t.Palette.Guides.Bottom
		}
	case theme.ColorNameBackground:
		if variant == theme.VariantDark {
			return render.DefaultBackground
		}
	}
	return theme.DefaultTheme().Color(name, variant)
}

// withAlpha returns c with its alpha replaced, or brass when c is unset.
func withAlpha(c color.Color, a uint8) color.Color {
	if c == nil {
		c = brass
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = a
	return n
}

func (t *KeyDecoderTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *KeyDecoderTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

// Size tightens padding so all four landmark sliders fit the side panel.
func (t *KeyDecoderTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameScrollBar:
		return 12
	default:
		return theme.DefaultTheme().Size(name)
	}
}
