// Package prefs provides JSON-based application preferences.
package prefs

import (
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"key-decoder/internal/alignment"
	"key-decoder/internal/app"
	"key-decoder/pkg/colorutil"
	"key-decoder/pkg/geometry"
)

const prefsFile = "preferences.json"

// Preference keys.
const (
	KeyDatabase      = "database"       // Key database file or URL, "" for built-in
	KeyWatchDatabase = "watch_database" // Reload a local database when it changes
	KeyLastImageDir  = "last_image_dir"
	KeyLogFile       = "log_file"
	KeyDebug         = "debug"
	KeyInterpolation = "interpolation" // nearest, approx, bilinear, catmullrom
	KeyRamp          = "keystone_ramp" // legacy or exact
	KeyCanvasWidth   = "canvas_width"
	KeyCanvasHeight  = "canvas_height"
	KeyColorBottom   = "color_bottom"
	KeyColorTop      = "color_top"
	KeyColorShoulder = "color_shoulder"
	KeyColorTip      = "color_tip"
	KeyColorCropBox  = "color_crop_box"
	KeyColorBitting  = "color_bitting"
	KeyShowLabels    = "show_labels"
)

// Prefs stores application preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// Load reads preferences from ~/.config/key-decoder/preferences.json.
// Returns a Prefs with defaults if the file doesn't exist.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, "key-decoder", prefsFile))
}

// LoadFrom reads preferences from path. A missing or unreadable file yields
// empty preferences that will be saved to path.
func LoadFrom(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   path,
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Path returns the preferences file location.
func (p *Prefs) Path() string {
	return p.path
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	return p.StringWithFallback(key, "")
}

// StringWithFallback returns a string preference, or fallback if not set.
func (p *Prefs) StringWithFallback(key, fallback string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// CanvasSize returns the decoder surface size, defaulting to
// app.DefaultCanvasSize.
func (p *Prefs) CanvasSize() geometry.Size {
	return geometry.Size{
		Width:  p.FloatWithFallback(KeyCanvasWidth, app.DefaultCanvasSize.Width),
		Height: p.FloatWithFallback(KeyCanvasHeight, app.DefaultCanvasSize.Height),
	}
}

// Palette returns the overlay colors. Colors are stored as names
// ("orange") or hex ("#ffa500"); unparsable values use the defaults.
func (p *Prefs) Palette() app.Palette {
	return app.Palette{
		Guides: alignment.GuideColors{
			Bottom:   colorutil.ParseOr(p.String(KeyColorBottom), colorutil.Red),
			Top:      colorutil.ParseOr(p.String(KeyColorTop), colorutil.Orange),
			Shoulder: colorutil.ParseOr(p.String(KeyColorShoulder), colorutil.Blue),
			Tip:      colorutil.ParseOr(p.String(KeyColorTip), colorutil.Green),
		},
		CropBox: colorutil.ParseOr(p.String(KeyColorCropBox), colorutil.Red),
		Bitting: colorutil.ParseOr(p.String(KeyColorBitting), colorutil.Yellow),
	}
}

// SetPalette stores the overlay colors as hex strings.
func (p *Prefs) SetPalette(pal app.Palette) {
	for key, c := range map[string]color.Color{
		KeyColorBottom:   pal.Guides.Bottom,
		KeyColorTop:      pal.Guides.Top,
		KeyColorShoulder: pal.Guides.Shoulder,
		KeyColorTip:      pal.Guides.Tip,
		KeyColorCropBox:  pal.CropBox,
		KeyColorBitting:  pal.Bitting,
	} {
		p.SetString(key, colorutil.Hex(c))
	}
}

// Ramp returns the keystone height ramp.
func (p *Prefs) Ramp() alignment.Ramp {
	return alignment.ParseRamp(p.StringWithFallback(KeyRamp, "legacy"))
}
