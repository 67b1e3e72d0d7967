// Package keydb provides the depth-and-space reference database of key
// geometries and read-only queries over it.
package keydb

import (
	"fmt"
	"strconv"
	"strings"
)

// CutOrder defines how cuts are numbered along the blade.
type CutOrder int

const (
	OrderUnknown CutOrder = -1 // Lookup failed
	BowToTip     CutOrder = 0  // First cut nearest the shoulder
	TipToBow     CutOrder = 1  // First cut nearest the tip
)

func (o CutOrder) String() string {
	switch o {
	case BowToTip:
		return "Bow to Tip"
	case TipToBow:
		return "Tip to Bow"
	default:
		return "Unknown"
	}
}

// File is the root of a depth-and-space JSON document.
type File struct {
	Entries []Entry `json:"dsd"`
	Info    Info    `json:"info"`
}

// Info describes the data in the document.
type Info struct {
	OrderTypes []string `json:"order_types,omitempty"`
}

// Entry holds the depth and space data for a family of keyways.
type Entry struct {
	Names []string `json:"names"` // Brand names
	Types []string `json:"types"` // Keyways, blanks and other identifiers

	IncrementalDepths  bool `json:"incremental_depths"`
	IncrementalSpacing bool `json:"incremental_spacing"`

	// Incremental depth table parameters (mm)
	Depth0     float64 `json:"depth0"`      // Depth of the first cut from the base of the blade
	DepthInc   float64 `json:"depth_inc"`   // Difference between successive depths
	DepthStart int     `json:"depth_start"` // Number of the first depth
	DepthCount int     `json:"depth_count"` // Number of distinct depths

	// Explicit depth table; overrides the incremental parameters when present
	Depths []Depth `json:"depths,omitempty"`

	Space0    float64 `json:"space0"`     // Centre of first cut from the reference point (mm)
	SpaceInc  float64 `json:"space_inc"`  // Distance between cuts (mm)
	MinSpaces int     `json:"min_spaces"` // Minimum number of cuts
	MaxSpaces int     `json:"max_spaces"` // Maximum number of cuts

	BladeLength float64 `json:"blade_length"` // Shoulder to tip (mm)
	BladeHeight float64 `json:"blade_height"` // Base of blade to top (mm)

	Order CutOrder `json:"order"`
}

// Depth is one row of a depth table.
type Depth struct {
	Cut   string  `json:"cut"`   // Name of the cut depth
	Depth float64 `json:"depth"` // Distance from the base of the blade (mm)
}

// TypeRef names a keyway and the index of the entry that describes it.
type TypeRef struct {
	Name  string
	Index int
}

// Profile is the resolved geometry for one entry.
type Profile struct {
	Index       int
	Names       []string
	Types       []string
	BladeLength float64
	BladeHeight float64
	Depths      []Depth
	MinCuts     int
	MaxCuts     int
	CutSpacing  float64
	FirstCut    float64
	Order       CutOrder
}

// CutCounts returns every allowed number of cuts, smallest first.
func (p *Profile) CutCounts() []int {
	return cutRange(p.MinCuts, p.MaxCuts)
}

// DepthLabels returns the cut label of every depth, in table order.
func (p *Profile) DepthLabels() []string {
	labels := make([]string, len(p.Depths))
	for i, d := range p.Depths {
		labels[i] = d.Cut
	}
	return labels
}

// DepthIndex returns the table index of the depth labelled cut, or -1.
func (p *Profile) DepthIndex(cut string) int {
	for i, d := range p.Depths {
		if strings.EqualFold(d.Cut, cut) {
			return i
		}
	}
	return -1
}

// DepthTable returns the explicit depth list when present, otherwise the
// table derived from the incremental parameters.
func (e *Entry) DepthTable() []Depth {
	if len(e.Depths) > 0 {
		out := make([]Depth, len(e.Depths))
		copy(out, e.Depths)
		return out
	}

	out := make([]Depth, 0, max(e.DepthCount, 0))
	for i := 0; i < e.DepthCount; i++ {
		out = append(out, Depth{
			Cut:   cutLabel(e.DepthStart + i),
			Depth: e.Depth0 - e.DepthInc*float64(i),
		})
	}
	return out
}

// Validate checks the invariants a resolvable entry must satisfy.
func (e *Entry) Validate() error {
	if len(e.Names) == 0 {
		return fmt.Errorf("entry has no brand names")
	}
	if len(e.Types) == 0 {
		return fmt.Errorf("entry %v has no types", e.Names)
	}
	if len(e.DepthTable()) == 0 {
		return fmt.Errorf("entry %v has an empty depth table", e.Types)
	}
	if e.MinSpaces > e.MaxSpaces {
		return fmt.Errorf("entry %v: min_spaces %d > max_spaces %d", e.Types, e.MinSpaces, e.MaxSpaces)
	}
	if e.BladeLength <= 0 || e.BladeHeight <= 0 {
		return fmt.Errorf("entry %v: blade dimensions must be positive", e.Types)
	}
	if e.Order != BowToTip && e.Order != TipToBow {
		return fmt.Errorf("entry %v: unknown cut order %d", e.Types, e.Order)
	}
	return nil
}

const hexDigits = "0123456789ABCDEF"

// cutLabel names depth number n as a single hex digit.
func cutLabel(n int) string {
	switch {
	case n < 0:
		return "?"
	case n < len(hexDigits):
		return hexDigits[n : n+1]
	default:
		return strings.ToUpper(strconv.FormatInt(int64(n), 16))
	}
}

func cutRange(lo, hi int) []int {
	ret := []int{}
	for i := lo; i <= hi; i++ {
		ret = append(ret, i)
	}
	return ret
}
