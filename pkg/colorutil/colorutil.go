// Package colorutil provides shared color utilities for the key decoder.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Default overlay colors used throughout the application.
var (
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Orange = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	Blue   = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Green  = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Clear  = color.RGBA{}
)

// Parse converts a CSS color name ("Yellow", "orange") or a hex triplet
// ("#ff8800", "#f80") into an RGBA color.
func Parse(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.RGBA{}, fmt.Errorf("empty color")
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("unknown color %q", s)
}

// ParseOr parses s and falls back to def when s is empty or invalid.
func ParseOr(s string, def color.RGBA) color.RGBA {
	c, err := Parse(s)
	if err != nil {
		return def
	}
	return c
}

// Hex formats a color as a #rrggbb string, dropping alpha.
func Hex(c color.Color) string {
	if c == nil {
		return ""
	}
	r := color.RGBAModel.Convert(c).(color.RGBA)
	return fmt.Sprintf("#%02x%02x%02x", r.R, r.G, r.B)
}

func parseHex(h string) (color.RGBA, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", "#"+h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", "#"+h, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
