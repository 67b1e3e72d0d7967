package app

import (
	"image/color"
	"testing"

	"key-decoder/internal/render"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"github.com/stretchr/testify/assert"
)

func TestThemeFollowsPalette(t *testing.T) {
	test.NewApp()
	pal := DefaultPalette()
	pal.Bitting = color.RGBA{R: 0, G: 200, B: 100, A: 255}
	th := NewTheme(pal)

	assert.Equal(t, color.NRGBA{G: 200, B: 100, A: 0x80}, th.Color(theme.ColorNameSelection, theme.VariantLight))
	assert.Equal(t, pal.Guides.Bottom, th.Color(theme.ColorNameError, theme.VariantLight))
	assert.Equal(t, render.DefaultBackground, th.Color(theme.ColorNameBackground, theme.VariantDark))
	assert.Equal(t, theme.DefaultTheme().Color(theme.ColorNameBackground, theme.VariantLight),
		th.Color(theme.ColorNameBackground, theme.VariantLight))
}

func TestThemeWithoutPalette(t *testing.T) {
	test.NewApp()
	th := &KeyDecoderTheme{}
	assert.Equal(t, color.NRGBA{R: 0xB5, G: 0x8B, B: 0x2A, A: 0x80}, th.Color(theme.ColorNameSelection, theme.VariantDark))
	assert.Equal(t, theme.DefaultTheme().Color(theme.ColorNameError, theme.VariantDark), th.Color(theme.ColorNameError, theme.VariantDark))
	assert.Equal(t, float32(3), th.Size(theme.SizeNamePadding))
}
