package keydb

import (
	"slices"

	"key-decoder/internal/log"
)

// Database answers queries against a loaded depth-and-space document.
// A nil *Database behaves as an empty, not-yet-loaded database.
// Out-of-range indices are logged and answered with -1 or an empty list.
type Database struct {
	file File
}

// New wraps an already-parsed document.
func New(f File) *Database {
	return &Database{file: f}
}

// Len returns the number of entries.
func (db *Database) Len() int {
	if db == nil {
		return 0
	}
	return len(db.file.Entries)
}

// Info returns the document information block.
func (db *Database) Info() Info {
	if db == nil {
		return Info{}
	}
	return db.file.Info
}

// entry returns entry idx, logging when idx is out of range.
func (db *Database) entry(op string, idx int) (*Entry, bool) {
	if db == nil {
		return nil, false
	}
	if idx < 0 || idx >= len(db.file.Entries) {
		log.Errorf("keydb.%s: index (%d) out of range", op, idx)
		return nil, false
	}
	return &db.file.Entries[idx], true
}

// KeyNames returns the brand names of entry idx.
func (db *Database) KeyNames(idx int) []string {
	e, ok := db.entry("KeyNames", idx)
	if !ok {
		return []string{}
	}
	return slices.Clone(e.Names)
}

// KeyTypes returns the keyway identifiers of entry idx.
func (db *Database) KeyTypes(idx int) []string {
	e, ok := db.entry("KeyTypes", idx)
	if !ok {
		return []string{}
	}
	return slices.Clone(e.Types)
}

// Brands returns every brand name once, in first-seen order.
func (db *Database) Brands() []string {
	ret := []string{}
	if db == nil {
		return ret
	}
	for _, e := range db.file.Entries {
		for _, name := range e.Names {
			if !slices.Contains(ret, name) {
				ret = append(ret, name)
			}
		}
	}
	return ret
}

// Types returns the keyways offered by brand, each tagged with its entry index.
func (db *Database) Types(brand string) []TypeRef {
	ret := []TypeRef{}
	if db == nil {
		return ret
	}
	for i, e := range db.file.Entries {
		if !slices.Contains(e.Names, brand) {
			continue
		}
		for _, name := range e.Types {
			ref := TypeRef{Name: name, Index: i}
			if !slices.Contains(ret, ref) {
				ret = append(ret, ref)
			}
		}
	}
	return ret
}

// Depths returns the depth table of entry idx.
func (db *Database) Depths(idx int) []Depth {
	e, ok := db.entry("Depths", idx)
	if !ok {
		return []Depth{}
	}
	return e.DepthTable()
}

// CutCounts returns the allowed numbers of cuts of entry idx.
func (db *Database) CutCounts(idx int) []int {
	e, ok := db.entry("CutCounts", idx)
	if !ok {
		return []int{}
	}
	return cutRange(e.MinSpaces, e.MaxSpaces)
}

// BladeLength returns the blade length of entry idx in mm, or -1.
func (db *Database) BladeLength(idx int) float64 {
	e, ok := db.entry("BladeLength", idx)
	if !ok {
		return -1
	}
	return e.BladeLength
}

// BladeHeight returns the blade height of entry idx in mm, or -1.
func (db *Database) BladeHeight(idx int) float64 {
	e, ok := db.entry("BladeHeight", idx)
	if !ok {
		return -1
	}
	return e.BladeHeight
}

// CutSpacing returns the distance between cuts of entry idx in mm, or -1.
// Only incremental spacing is supported.
func (db *Database) CutSpacing(idx int) float64 {
	e, ok := db.entry("CutSpacing", idx)
	if !ok {
		return -1
	}
	return e.SpaceInc
}

// FirstCut returns the offset of the first cut of entry idx in mm, or -1.
func (db *Database) FirstCut(idx int) float64 {
	e, ok := db.entry("FirstCut", idx)
	if !ok {
		return -1
	}
	return e.Space0
}

// Order returns the cut order of entry idx, or OrderUnknown.
func (db *Database) Order(idx int) CutOrder {
	e, ok := db.entry("Order", idx)
	if !ok {
		return OrderUnknown
	}
	return e.Order
}

// Profile resolves entry idx into a Profile. It reports false when the index
// is out of range or the entry has no depths.
func (db *Database) Profile(idx int) (Profile, bool) {
	e, ok := db.entry("Profile", idx)
	if !ok {
		return Profile{}, false
	}
	depths := e.DepthTable()
	if len(depths) == 0 {
		log.Errorf("keydb.Profile: entry %d (%v) has no depths", idx, e.Types)
		return Profile{}, false
	}
	return Profile{
		Index:       idx,
		Names:       slices.Clone(e.Names),
		Types:       slices.Clone(e.Types),
		BladeLength: e.BladeLength,
		BladeHeight: e.BladeHeight,
		Depths:      depths,
		MinCuts:     e.MinSpaces,
		MaxCuts:     e.MaxSpaces,
		CutSpacing:  e.SpaceInc,
		FirstCut:    e.Space0,
		Order:       e.Order,
	}, true
}

// Problem describes an entry that fails validation.
type Problem struct {
	Index int
	Err   error
}

// Validate checks every entry and returns the ones that fail.
func (db *Database) Validate() []Problem {
	var problems []Problem
	if db == nil {
		return problems
	}
	for i := range db.file.Entries {
		if err := db.file.Entries[i].Validate(); err != nil {
			problems = append(problems, Problem{Index: i, Err: err})
		}
	}
	return problems
}
