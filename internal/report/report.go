// Package report writes decode reports (.keyreport.json): the key that was
// decoded, its bitting code and where every cut was placed.
package report

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// CurrentVersion is the report format version written by Save.
const CurrentVersion = 1

// Ext is the report file extension.
const Ext = ".keyreport.json"

// Report describes one decode.
type Report struct {
	Version int       `json:"version"`
	Created time.Time `json:"created"`

	Image    string `json:"image,omitempty"`
	Database string `json:"database,omitempty"` // Empty for the built-in database

	Brand string `json:"brand,omitempty"`
	Type  string `json:"type,omitempty"`
	Order string `json:"order,omitempty"`
	Cuts  int    `json:"cuts"`

	Code     string `json:"code"`
	Complete bool   `json:"complete"`

	Crop      Crop      `json:"crop"`
	Transform Transform `json:"transform"`
	Scale     *Scale    `json:"scale,omitempty"` // Nil until calibrated

	Positions []Position `json:"positions,omitempty"`
}

// Crop is the crop rectangle in percent of the photo.
type Crop struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Transform is the display transform the positions were measured under.
type Transform struct {
	Rotation       float64 `json:"rotation"`
	HFlip          bool    `json:"hflip,omitempty"`
	VFlip          bool    `json:"vflip,omitempty"`
	KeystoneSlices int     `json:"keystone_slices"`
	KeystoneRatio  float64 `json:"keystone_ratio"`
	Ramp           string  `json:"ramp"`
}

// Scale holds the calibration factors.
type Scale struct {
	HorizontalPxPerMM float64 `json:"horizontal_px_per_mm"`
	VerticalPxPerMM   float64 `json:"vertical_px_per_mm"`
}

// Position is one placed cut.
type Position struct {
	Cut     int     `json:"cut"` // 1-based, bow to tip
	Label   string  `json:"label"`
	SpaceMM float64 `json:"space_mm"` // Distance from the reference point
	DepthMM float64 `json:"depth_mm"` // Distance from the base of the blade
	X       float64 `json:"x"`        // Canvas pixels
	Y       float64 `json:"y"`
}

// New creates an empty report with a full-image crop and no keystone.
func New() *Report {
	return &Report{
		Version:   CurrentVersion,
		Created:   time.Now(),
		Crop:      Crop{Width: 100, Height: 100},
		Transform: Transform{KeystoneSlices: 1, KeystoneRatio: 1, Ramp: "legacy"},
	}
}

// Write encodes the report as indented JSON.
func (r *Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Save writes the report to a file.
func (r *Report) Save(path string) error {
	r.Version = CurrentVersion

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
