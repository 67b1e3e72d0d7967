package render

import (
	"image"
	"image/color"
	"image/draw"
)

// DefaultBackground is the dark gray used behind exported composites.
var DefaultBackground = color.RGBA{40, 40, 40, 255}

// Composite flattens layers, bottom first, over a solid background into a
// new image the size of the first layer.
func Composite(bg color.Color, layers ...*image.RGBA) *image.RGBA {
	if len(layers) == 0 {
		return image.NewRGBA(image.Rectangle{})
	}
	bounds := layers[0].Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, &image.Uniform{bg}, image.Point{}, draw.Src)

	for _, layer := range layers {
		if layer == nil {
			continue
		}
		draw.Draw(result, bounds, layer, bounds.Min, draw.Over)
	}
	return result
}
