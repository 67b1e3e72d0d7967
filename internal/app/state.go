// Package app provides the decoder's application state, loaders and events.
package app

import (
	"context"
	"errors"
	goimage "image"
	"image/color"
	"sync"

	"key-decoder/internal/alignment"
	"key-decoder/internal/calibration"
	"key-decoder/internal/image"
	"key-decoder/internal/keydb"
	"key-decoder/internal/log"
	"key-decoder/internal/render"
	"key-decoder/pkg/colorutil"
	"key-decoder/pkg/geometry"
)

// MaxDisplayDimension bounds the photo used for drawing. Larger photos are
// downsampled once when loaded; crop percentages are unaffected.
const MaxDisplayDimension = 2048

// DefaultCanvasSize is the size of the three decoder surfaces until the UI
// reports otherwise.
var DefaultCanvasSize = geometry.Size{Width: 800, Height: 300}

// Mode is the decoder's interaction mode.
type Mode int

const (
	ModeNone    Mode = iota // Photo shown as loaded
	ModeCrop                // Whole photo with the crop box
	ModeAlign               // Cropped, transformed photo with guide lines
	ModeCropped             // Cropped photo without the transform, with guide lines
)

func (m Mode) String() string {
	switch m {
	case ModeCrop:
		return "Crop"
	case ModeAlign:
		return "Align"
	case ModeCropped:
		return "Cropped"
	default:
		return "None"
	}
}

// Palette holds the overlay colors.
type Palette struct {
	Guides  alignment.GuideColors
	CropBox color.Color
	Bitting color.Color
}

// DefaultPalette returns the standard overlay colors.
func DefaultPalette() Palette {
	return Palette{
		Guides:  alignment.DefaultGuideColors(),
		CropBox: colorutil.Red,
		Bitting: colorutil.Yellow,
	}
}

// State holds the decoder state: database, photo, selections and controls.
// UI code marshals control values in through the setters and renders the
// frame returned by Recompute.
type State struct {
	mu sync.RWMutex

	db      *keydb.Database
	dbSrc   string
	photo   *image.Photo
	display goimage.Image // photo bounded to MaxDisplayDimension
	canvas  geometry.Size
	mode    Mode

	crop      alignment.CropSpec
	transform alignment.TransformSpec
	landmarks calibration.Landmarks

	brand    string
	types    []keydb.TypeRef
	typeName string // one entry can serve several type names
	profile  *keydb.Profile
	cuts     int
	bitting  alignment.Bitting

	palette    Palette
	showLabels bool

	// Monotonic load request ids; a completed load commits only while its
	// id is still the latest.
	imageReq uint64
	dbReq    uint64

	loadPhoto func(ctx context.Context, path string) (*image.Photo, error)
	fetchDB   func(ctx context.Context, source string) (*keydb.Database, error)

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventDatabaseLoaded EventType = iota
	EventImageLoaded
	EventBrandChanged
	EventProfileChanged
	EventCutCountChanged
	EventChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// ErrStaleLoad is returned by a load that was superseded by a newer one.
var ErrStaleLoad = errors.New("load superseded by a newer request")

// NewState creates a new application state.
func NewState() *State {
	return &State{
		canvas:    DefaultCanvasSize,
		crop:      alignment.FullCrop(),
		transform: alignment.DefaultTransform(),
		palette:   DefaultPalette(),
		loadPhoto: func(_ context.Context, path string) (*image.Photo, error) {
			return image.Load(path)
		},
		fetchDB:   keydb.Fetch,
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// emitAll emits each event with no data, then EventChanged.
func (s *State) emitAll(events ...EventType) {
	for _, e := range events {
		s.Emit(e, nil)
	}
	s.Emit(EventChanged, nil)
}

// SetDatabase replaces the key database and selects its first brand. A
// LoadDatabase still in flight is superseded.
func (s *State) SetDatabase(db *keydb.Database) {
	s.mu.Lock()
	s.dbReq++
	s.setDatabaseLocked(db)
	s.mu.Unlock()
	s.emitDatabaseLoaded(db)
}

func (s *State) setDatabaseLocked(db *keydb.Database) {
	s.db = db
	brands := db.Brands()
	if len(brands) > 0 {
		s.selectBrandLocked(brands[0])
	} else {
		s.selectBrandLocked("")
	}
}

// emitDatabaseLoaded passes db to EventDatabaseLoaded listeners.
func (s *State) emitDatabaseLoaded(db *keydb.Database) {
	s.Emit(EventDatabaseLoaded, db)
	s.emitAll(EventBrandChanged, EventProfileChanged, EventCutCountChanged)
}

// Database returns the current key database, possibly nil.
func (s *State) Database() *keydb.Database {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// DatabaseSource returns where the current database was loaded from.
func (s *State) DatabaseSource() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dbSrc
}

// Brands returns the brands of the current database.
func (s *State) Brands() []string {
	return s.Database().Brands()
}

// SelectBrand selects a brand and its first key type. It returns the brand's
// key types.
func (s *State) SelectBrand(name string) []keydb.TypeRef {
	s.mu.Lock()
	s.selectBrandLocked(name)
	types := append([]keydb.TypeRef(nil), s.types...)
	s.mu.Unlock()

	s.emitAll(EventBrandChanged, EventProfileChanged, EventCutCountChanged)
	return types
}

func (s *State) selectBrandLocked(name string) {
	s.brand = name
	s.types = nil
	if name != "" {
		s.types = s.db.Types(name)
	}
	if len(s.types) > 0 {
		s.selectTypeRefLocked(s.types[0])
	} else {
		s.selectTypeLocked(-1)
	}
}

// Brand returns the selected brand.
func (s *State) Brand() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.brand
}

// Types returns the key types of the selected brand.
func (s *State) Types() []keydb.TypeRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]keydb.TypeRef(nil), s.types...)
}

// SelectType selects the database entry idx, resolves its profile and
// selects the smallest cut count. It reports whether a profile was resolved.
func (s *State) SelectType(idx int) bool {
	s.mu.Lock()
	ok := s.selectTypeLocked(idx)
	s.mu.Unlock()

	s.emitAll(EventProfileChanged, EventCutCountChanged)
	return ok
}

// SelectTypeRef selects a key type of the current brand by name and entry,
// so the chosen name is reported rather than every name of the entry.
func (s *State) SelectTypeRef(ref keydb.TypeRef) bool {
	s.mu.Lock()
	ok := s.selectTypeRefLocked(ref)
	s.mu.Unlock()

	s.emitAll(EventProfileChanged, EventCutCountChanged)
	return ok
}

func (s *State) selectTypeRefLocked(ref keydb.TypeRef) bool {
	ok := s.selectTypeLocked(ref.Index)
	if ok {
		s.typeName = ref.Name
	}
	return ok
}

func (s *State) selectTypeLocked(idx int) bool {
	s.profile = nil
	s.typeName = ""
	if idx >= 0 {
		if p, ok := s.db.Profile(idx); ok {
			s.profile = &p
			s.typeName = typeNameFor(s.types, p)
		} else {
			log.Printf("Key type %d has no usable profile", idx)
		}
	}

	s.cuts = 0
	if s.profile != nil {
		if counts := s.profile.CutCounts(); len(counts) > 0 {
			s.cuts = counts[0]
		}
	}
	s.bitting = alignment.NewBitting(s.cuts)
	return s.profile != nil
}

// typeNameFor picks the first name the brand lists for p's entry, falling
// back to the entry's own first type.
func typeNameFor(types []keydb.TypeRef, p keydb.Profile) string {
	for _, t := range types {
		if t.Index == p.Index {
			return t.Name
		}
	}
	if len(p.Types) > 0 {
		return p.Types[0]
	}
	return ""
}

// TypeName returns the selected key type name, or "" with no profile.
func (s *State) TypeName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.typeName
}

// Profile returns a copy of the selected key profile.
func (s *State) Profile() (keydb.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return keydb.Profile{}, false
	}
	return *s.profile, true
}

// CutCounts returns the allowed cut counts of the selected profile.
func (s *State) CutCounts() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	return s.profile.CutCounts()
}

// SelectCutCount sets the number of cuts and resets the bitting. Counts
// outside the profile's range are ignored.
func (s *State) SelectCutCount(n int) {
	s.mu.Lock()
	if s.profile == nil || n < s.profile.MinCuts || n > s.profile.MaxCuts {
		s.mu.Unlock()
		log.Printf("Ignoring cut count %d", n)
		return
	}
	s.cuts = n
	s.bitting = alignment.NewBitting(n)
	s.mu.Unlock()

	s.emitAll(EventCutCountChanged)
}

// CutCount returns the selected number of cuts.
func (s *State) CutCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cuts
}

// SetDepth chooses the depth-table index for one cut. Out-of-range cuts are
// ignored; depth may be alignment.Unset.
func (s *State) SetDepth(cut, depth int) {
	s.mu.Lock()
	if cut < 0 || cut >= len(s.bitting) {
		s.mu.Unlock()
		log.Printf("Ignoring depth for cut %d of %d", cut, len(s.bitting))
		return
	}
	s.bitting[cut] = depth
	s.mu.Unlock()

	s.emitAll()
}

// SetBitting replaces the whole bitting. Its length becomes the cut count
// when the profile allows it; otherwise it is truncated or padded with
// unset cuts to the current count.
func (s *State) SetBitting(b alignment.Bitting) {
	s.mu.Lock()
	if s.profile != nil && len(b) >= s.profile.MinCuts && len(b) <= s.profile.MaxCuts {
		s.cuts = len(b)
	}
	s.bitting = alignment.NewBitting(s.cuts)
	copy(s.bitting, b)
	s.mu.Unlock()

	s.emitAll(EventCutCountChanged)
}

// Bitting returns a copy of the current bitting.
func (s *State) Bitting() alignment.Bitting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(alignment.Bitting(nil), s.bitting...)
}

// SetPhoto replaces the key photo and returns to ModeNone. A LoadImage
// still in flight is superseded.
func (s *State) SetPhoto(p *image.Photo) {
	display := displayImage(p)

	s.mu.Lock()
	s.imageReq++
	s.photo = p
	s.display = display
	s.mode = ModeNone
	s.mu.Unlock()

	s.Emit(EventImageLoaded, p)
	s.emitAll()
}

// Photo returns the current key photo, possibly nil.
func (s *State) Photo() *image.Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.photo
}

// SetCrop updates the crop rectangle and enters ModeCrop.
func (s *State) SetCrop(c alignment.CropSpec) {
	s.mu.Lock()
	s.crop = c
	s.mode = ModeCrop
	s.mu.Unlock()
	s.emitAll()
}

// ApplyCrop shows the crop without the display transform and enters
// ModeCropped. The next transform or landmark change enters ModeAlign.
func (s *State) ApplyCrop() {
	s.mu.Lock()
	s.mode = ModeCropped
	s.mu.Unlock()
	s.emitAll()
}

// Crop returns the crop rectangle.
func (s *State) Crop() alignment.CropSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.crop
}

// SetAlign updates the display transform and enters ModeAlign.
func (s *State) SetAlign(t alignment.TransformSpec) {
	s.mu.Lock()
	s.transform = t.Normalized()
	s.mode = ModeAlign
	s.mu.Unlock()
	s.emitAll()
}

// Transform returns the display transform.
func (s *State) Transform() alignment.TransformSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transform
}

// SetLandmarks updates the four alignment lines and enters ModeAlign.
func (s *State) SetLandmarks(l calibration.Landmarks) {
	s.mu.Lock()
	s.landmarks = l
	s.mode = ModeAlign
	s.mu.Unlock()
	s.emitAll()
}

// Landmarks returns the alignment lines.
func (s *State) Landmarks() calibration.Landmarks {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.landmarks
}

// SetCanvasSize sets the size of the three surfaces. Non-positive sizes
// are ignored.
func (s *State) SetCanvasSize(size geometry.Size) {
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	s.mu.Lock()
	changed := s.canvas != size
	s.canvas = size
	s.mu.Unlock()
	if changed {
		s.emitAll()
	}
}

// CanvasSize returns the size of the three surfaces.
func (s *State) CanvasSize() geometry.Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canvas
}

// Mode returns the interaction mode.
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetPalette replaces the overlay colors.
func (s *State) SetPalette(p Palette) {
	s.mu.Lock()
	s.palette = p
	s.mu.Unlock()
	s.emitAll()
}

// SetShowLabels turns the depth labels above the bitting markers on or off.
func (s *State) SetShowLabels(show bool) {
	s.mu.Lock()
	s.showLabels = show
	s.mu.Unlock()
	s.emitAll()
}

// ShowLabels reports whether depth labels are drawn.
func (s *State) ShowLabels() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.showLabels
}

// Palette returns the overlay colors.
func (s *State) Palette() Palette {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.palette
}

// Calibration derives the pixel-per-mm scale from the current landmarks,
// canvas and profile. It is always recomputed, never cached.
func (s *State) Calibration() calibration.Scale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calibrationLocked()
}

func (s *State) calibrationLocked() calibration.Scale {
	if s.profile == nil {
		return calibration.Scale{}
	}
	blade := calibration.BladeDims{Length: s.profile.BladeLength, Height: s.profile.BladeHeight}
	return calibration.Calibrate(s.landmarks, s.canvas, blade)
}

// Recompute returns the drawing operations for the three surfaces. It is a
// pure function of the state.
func (s *State) Recompute() render.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := render.NewRecorder(s.canvas)
	overlay := render.NewRecorder(s.canvas)
	bitting := render.NewRecorder(s.canvas)

	src := s.display
	switch s.mode {
	case ModeAlign:
		alignment.DrawAligned(key, src, s.crop, s.transform)
		alignment.DrawGuides(overlay, s.landmarks, s.palette.Guides)
	case ModeCropped:
		alignment.CropKey(key, src, s.crop)
		alignment.DrawGuides(overlay, s.landmarks, s.palette.Guides)
	case ModeCrop:
		alignment.DrawFull(key, src)
		alignment.DrawCropBox(overlay, s.crop, s.palette.CropBox)
	default:
		alignment.DrawFull(key, src)
		overlay.Clear()
	}

	markers, ok := s.markersLocked(s.calibrationLocked())
	if ok {
		alignment.DrawBitting(bitting, markers, s.palette.Bitting)
		if s.showLabels {
			alignment.DrawMarkerLabels(bitting, markers, s.palette.Bitting)
		}
	} else {
		bitting.Clear()
	}

	return render.Frame{Key: key.Ops, Overlay: overlay.Ops, Bitting: bitting.Ops}
}

// Markers returns the bitting markers for the current state.
func (s *State) Markers() ([]alignment.Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.markersLocked(s.calibrationLocked())
}

func (s *State) markersLocked(sc calibration.Scale) ([]alignment.Marker, bool) {
	return alignment.PlaceBitting(s.bitting, s.profile, s.landmarks, s.canvas, sc)
}

func displayImage(p *image.Photo) goimage.Image {
	if p == nil || p.Image == nil {
		return nil
	}
	return p.Preview(MaxDisplayDimension, MaxDisplayDimension)
}
