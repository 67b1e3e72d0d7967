package app

import (
	"context"
	"errors"
	goimage "image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"key-decoder/internal/alignment"
	"key-decoder/internal/calibration"
	"key-decoder/internal/image"
	"key-decoder/internal/keydb"
	"key-decoder/internal/render"
	"key-decoder/pkg/colorutil"
	"key-decoder/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJSON = `{
  "info": {"order_types": ["bow_to_tip", "tip_to_bow"]},
  "dsd": [
    {
      "names": ["Acme"],
      "types": ["AC1"],
      "incremental_depths": true,
      "depth0": 9, "depth_inc": 3, "depth_start": 0, "depth_count": 4,
      "space0": 5, "space_inc": 10, "min_spaces": 3, "max_spaces": 5,
      "blade_length": 40, "blade_height": 10, "order": 0
    },
    {
      "names": ["Acme", "Tipco"],
      "types": ["TP7"],
      "depths": [{"cut": "A", "depth": 6.5}, {"cut": "B", "depth": 5.5}],
      "space0": 2, "space_inc": 3, "min_spaces": 6, "max_spaces": 6,
      "blade_length": 30, "blade_height": 8, "order": 1
    }
  ]
}`

func testDB(t *testing.T) *keydb.Database {
	t.Helper()
	db, err := keydb.Load(strings.NewReader(testJSON))
	require.NoError(t, err)
	return db
}

func testPhoto(path string) *image.Photo {
	return &image.Photo{Path: path, Image: goimage.NewRGBA(goimage.Rect(0, 0, 64, 32))}
}

// calibratedState has the Acme AC1 profile selected on a 1000x500 canvas
// with landmarks giving 20 px/mm horizontally and 40 px/mm vertically.
func calibratedState(t *testing.T) *State {
	t.Helper()
	s := NewState()
	s.SetDatabase(testDB(t))
	s.SetCanvasSize(geometry.NewSize(1000, 500))
	s.SetLandmarks(calibration.Landmarks{
		Bottom:   calibration.At(80),
		Top:      calibration.At(0),
		Shoulder: calibration.At(10),
		Tip:      calibration.At(90),
	})
	return s
}

func TestSetDatabaseSelectsFirstBrandAndType(t *testing.T) {
	s := NewState()
	s.SetDatabase(testDB(t))

	assert.Equal(t, []string{"Acme", "Tipco"}, s.Brands())
	assert.Equal(t, "Acme", s.Brand())
	assert.Equal(t, []keydb.TypeRef{{Name: "AC1", Index: 0}, {Name: "TP7", Index: 1}}, s.Types())

	p, ok := s.Profile()
	require.True(t, ok)
	assert.Equal(t, 0, p.Index)
	assert.Equal(t, []int{3, 4, 5}, s.CutCounts())
	assert.Equal(t, 3, s.CutCount())
	assert.Equal(t, alignment.Bitting{alignment.Unset, alignment.Unset, alignment.Unset}, s.Bitting())
}

func TestSelectTypeAndCutCount(t *testing.T) {
	s := NewState()
	s.SetDatabase(testDB(t))

	require.True(t, s.SelectType(1))
	assert.Equal(t, 6, s.CutCount())
	assert.Len(t, s.Bitting(), 6)

	s.SelectCutCount(3) // outside 6..6
	assert.Equal(t, 6, s.CutCount())

	assert.False(t, s.SelectType(9))
	_, ok := s.Profile()
	assert.False(t, ok)
	assert.Equal(t, 0, s.CutCount())
	assert.Empty(t, s.CutCounts())
}

func TestSelectBrandWithoutTypes(t *testing.T) {
	s := NewState()
	s.SetDatabase(testDB(t))

	assert.Empty(t, s.SelectBrand("Nobody"))
	_, ok := s.Profile()
	assert.False(t, ok)
}

func TestEmptyDatabase(t *testing.T) {
	s := NewState()
	s.SetDatabase(nil)
	assert.Empty(t, s.Brands())
	assert.Empty(t, s.Types())
	_, ok := s.Profile()
	assert.False(t, ok)
}

func TestSetDepthIgnoresOutOfRangeCut(t *testing.T) {
	s := NewState()
	s.SetDatabase(testDB(t))

	s.SetDepth(1, 2)
	s.SetDepth(7, 2)
	s.SetDepth(-1, 2)
	assert.Equal(t, alignment.Bitting{alignment.Unset, 2, alignment.Unset}, s.Bitting())
}

func TestSetBittingAdjustsCutCount(t *testing.T) {
	s := NewState()
	s.SetDatabase(testDB(t))

	s.SetBitting(alignment.Bitting{0, 1, 2, 3})
	assert.Equal(t, 4, s.CutCount())
	assert.Equal(t, alignment.Bitting{0, 1, 2, 3}, s.Bitting())

	// Too long for the profile: truncated to the current count.
	s.SetBitting(alignment.Bitting{3, 3, 3, 3, 3, 3, 3})
	assert.Equal(t, alignment.Bitting{3, 3, 3, 3}, s.Bitting())
}

func TestModes(t *testing.T) {
	s := NewState()
	assert.Equal(t, ModeNone, s.Mode())

	s.SetCrop(alignment.CropSpec{Left: 10, Top: 10, Width: 50, Height: 50})
	assert.Equal(t, ModeCrop, s.Mode())

	s.ApplyCrop()
	assert.Equal(t, ModeCropped, s.Mode())

	s.SetPhoto(testPhoto("a.png"))
	assert.Equal(t, ModeNone, s.Mode())

	s.SetAlign(alignment.TransformSpec{KeystoneSlices: 0, KeystoneRatio: 0})
	assert.Equal(t, ModeAlign, s.Mode())
	assert.Equal(t, alignment.DefaultTransform(), s.Transform())
}

func TestCalibrationRecomputedFromLandmarks(t *testing.T) {
	s := calibratedState(t)

	sc := s.Calibration()
	require.True(t, sc.Calibrated())
	assert.InDelta(t, 20, sc.HorizontalPxPerMM, 1e-9)
	assert.InDelta(t, 40, sc.VerticalPxPerMM, 1e-9)

	s.SetCanvasSize(geometry.NewSize(500, 500))
	assert.InDelta(t, 10, s.Calibration().HorizontalPxPerMM, 1e-9)

	s.SelectBrand("Nobody")
	assert.False(t, s.Calibration().Calibrated())
}

func TestRecomputeEmptyState(t *testing.T) {
	f := NewState().Recompute()

	assert.Equal(t, []render.Op{render.ClearOp{}}, f.Key)
	assert.Equal(t, []render.Op{render.ClearOp{}}, f.Overlay)
	assert.Equal(t, []render.Op{render.ClearOp{}}, f.Bitting)
}

func TestRecomputeCropMode(t *testing.T) {
	s := NewState()
	s.SetPhoto(testPhoto("k.png"))
	s.SetCrop(alignment.CropSpec{Left: 10, Top: 20, Width: 50, Height: 25})

	f := s.Recompute()

	require.Len(t, f.Key, 2)
	assert.IsType(t, render.ImageOp{}, f.Key[1])
	require.Len(t, f.Overlay, 2)
	box, ok := f.Overlay[1].(render.RectOp)
	require.True(t, ok)
	assert.Equal(t, colorutil.Red, box.Color)
}

func TestRecomputeAlignModeDrawsBitting(t *testing.T) {
	s := calibratedState(t)
	s.SetPhoto(testPhoto("k.png"))
	s.ApplyCrop()
	s.SetBitting(alignment.Bitting{3, 3, 0})

	// Clear and the cropped image, no transform.
	cropped := s.Recompute()
	require.Len(t, cropped.Key, 2)
	assert.IsType(t, render.ImageOp{}, cropped.Key[1])
	assert.Len(t, cropped.Overlay, 5)

	s.SetAlign(alignment.DefaultTransform())
	f := s.Recompute()

	// Clear, 4 transform ops, 1 slice, reset.
	assert.Len(t, f.Key, 7)
	// Clear plus four guide lines.
	assert.Len(t, f.Overlay, 5)
	// Clear plus three chevrons.
	require.Len(t, f.Bitting, 10)

	first, ok := f.Bitting[1].(render.LineOp)
	require.True(t, ok)
	assert.InDelta(t, 200-8, first.X1, 1e-9)
	assert.InDelta(t, 400-16, first.Y1, 1e-9)
	assert.InDelta(t, 200, first.X2, 1e-9)
	assert.InDelta(t, 400, first.Y2, 1e-9)
	assert.Equal(t, colorutil.Yellow, first.Color)

	markers, ok := s.Markers()
	require.True(t, ok)
	require.Len(t, markers, 3)
	assert.InDelta(t, 600, markers[2].X, 1e-9)
	assert.InDelta(t, 400-9*40, markers[2].Y, 1e-9)

	assert.Equal(t, f, s.Recompute())
}

func TestRecomputeWithLabels(t *testing.T) {
	s := calibratedState(t)
	s.SetBitting(alignment.Bitting{3, 2, 1})
	s.SetShowLabels(true)

	f := s.Recompute()
	require.Len(t, f.Bitting, 13)
	label, ok := f.Bitting[10].(render.LabelOp)
	require.True(t, ok)
	assert.Equal(t, "3", label.Text)
	assert.InDelta(t, 200, label.X, 1e-9)
}

func TestRecomputeSkipsBittingWhenUncalibrated(t *testing.T) {
	s := calibratedState(t)
	l := s.Landmarks()
	l.Top = calibration.Mark{}
	s.SetLandmarks(l)
	s.SetBitting(alignment.Bitting{1, 1, 1})

	assert.Equal(t, []render.Op{render.ClearOp{}}, s.Recompute().Bitting)
}

func TestEvents(t *testing.T) {
	s := NewState()
	var got []EventType
	for _, e := range []EventType{EventDatabaseLoaded, EventProfileChanged, EventCutCountChanged, EventChanged} {
		e := e
		s.On(e, func(interface{}) { got = append(got, e) })
	}

	s.SetDatabase(testDB(t))
	assert.Equal(t, []EventType{EventDatabaseLoaded, EventProfileChanged, EventCutCountChanged, EventChanged}, got)

	got = nil
	s.SetDepth(0, 1)
	assert.Equal(t, []EventType{EventChanged}, got)
}

func TestDatabaseLoadedCarriesDatabase(t *testing.T) {
	s := NewState()
	var got []interface{}
	s.On(EventDatabaseLoaded, func(data interface{}) { got = append(got, data) })

	db := testDB(t)
	s.SetDatabase(db)

	s.fetchDB = func(context.Context, string) (*keydb.Database, error) { return keydb.Builtin(), nil }
	require.NoError(t, s.LoadDatabase(context.Background(), ""))

	require.Len(t, got, 2)
	assert.Same(t, db, got[0])
	assert.Same(t, s.Database(), got[1])
}

func TestSelectTypeRefKeepsChosenName(t *testing.T) {
	s := NewState()
	s.SetDatabase(keydb.Builtin())
	s.SelectBrand("Kwikset")
	assert.Equal(t, "KW1", s.TypeName())

	require.True(t, s.SelectTypeRef(keydb.TypeRef{Name: "KW10", Index: 0}))
	assert.Equal(t, "KW10", s.TypeName())
	assert.Equal(t, "KW10", s.Report().Type)

	require.True(t, s.SelectType(0))
	assert.Equal(t, "KW1", s.TypeName())

	assert.False(t, s.SelectTypeRef(keydb.TypeRef{Name: "XX", Index: 99}))
	assert.Equal(t, "", s.TypeName())
}

func TestLoadImage(t *testing.T) {
	s := NewState()
	s.loadPhoto = func(_ context.Context, path string) (*image.Photo, error) {
		return testPhoto(path), nil
	}

	var loaded *image.Photo
	s.On(EventImageLoaded, func(data interface{}) { loaded = data.(*image.Photo) })

	require.NoError(t, s.LoadImage(context.Background(), "key.png"))
	assert.Equal(t, "key.png", s.Photo().Path)
	assert.Same(t, s.Photo(), loaded)
}

func TestLoadImageDiscardsStaleResult(t *testing.T) {
	s := NewState()
	release := make(chan struct{})
	started := make(chan struct{})
	s.loadPhoto = func(_ context.Context, path string) (*image.Photo, error) {
		if path == "slow.png" {
			close(started)
			<-release
		}
		return testPhoto(path), nil
	}

	var wg sync.WaitGroup
	var slowErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		slowErr = s.LoadImage(context.Background(), "slow.png")
	}()
	<-started

	require.NoError(t, s.LoadImage(context.Background(), "fast.png"))
	close(release)
	wg.Wait()

	assert.ErrorIs(t, slowErr, ErrStaleLoad)
	assert.Equal(t, "fast.png", s.Photo().Path)
}

func TestSetPhotoSupersedesPendingLoad(t *testing.T) {
	s := NewState()
	release := make(chan struct{})
	started := make(chan struct{})
	s.loadPhoto = func(_ context.Context, path string) (*image.Photo, error) {
		close(started)
		<-release
		return testPhoto(path), nil
	}

	done := make(chan error)
	go func() { done <- s.LoadImage(context.Background(), "slow.png") }()
	<-started

	s.SetPhoto(testPhoto("picked.png"))
	close(release)

	assert.ErrorIs(t, <-done, ErrStaleLoad)
	assert.Equal(t, "picked.png", s.Photo().Path)
}

func TestSetDatabaseSupersedesPendingLoad(t *testing.T) {
	s := NewState()
	release := make(chan struct{})
	started := make(chan struct{})
	s.fetchDB = func(_ context.Context, _ string) (*keydb.Database, error) {
		close(started)
		<-release
		return keydb.Builtin(), nil
	}

	done := make(chan error)
	go func() { done <- s.LoadDatabase(context.Background(), "slow") }()
	<-started

	db := testDB(t)
	s.SetDatabase(db)
	close(release)

	assert.ErrorIs(t, <-done, ErrStaleLoad)
	assert.Same(t, db, s.Database())
}

func TestLoadDatabaseDiscardsStaleResult(t *testing.T) {
	s := NewState()
	release := make(chan struct{})
	started := make(chan struct{})
	s.fetchDB = func(_ context.Context, source string) (*keydb.Database, error) {
		if source == "slow" {
			close(started)
			<-release
			return keydb.Builtin(), nil
		}
		return testDB(t), nil
	}

	done := make(chan error)
	go func() { done <- s.LoadDatabase(context.Background(), "slow") }()
	<-started

	require.NoError(t, s.LoadDatabase(context.Background(), "fast"))
	close(release)

	assert.ErrorIs(t, <-done, ErrStaleLoad)
	assert.Equal(t, "fast", s.DatabaseSource())
	assert.Equal(t, 2, s.Database().Len())
}

func TestLoadDatabaseFailureKeepsState(t *testing.T) {
	s := NewState()
	s.SetDatabase(testDB(t))
	boom := errors.New("boom")
	s.fetchDB = func(context.Context, string) (*keydb.Database, error) { return nil, boom }

	err := s.LoadDatabase(context.Background(), "http://example.invalid/db.json")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, s.Database().Len())
	assert.Equal(t, "Acme", s.Brand())
}

func TestLoadDatabaseCancelled(t *testing.T) {
	s := NewState()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.LoadDatabase(ctx, ""), context.Canceled)
	assert.Nil(t, s.Database())
}

func TestLoadAll(t *testing.T) {
	s := NewState()
	s.loadPhoto = func(_ context.Context, path string) (*image.Photo, error) {
		return testPhoto(path), nil
	}
	s.fetchDB = func(context.Context, string) (*keydb.Database, error) { return testDB(t), nil }

	require.NoError(t, s.LoadAll(context.Background(), "db.json", "key.png"))
	assert.Equal(t, "key.png", s.Photo().Path)
	assert.Equal(t, "Acme", s.Brand())
}

func TestLoadAllReportsFailure(t *testing.T) {
	s := NewState()
	s.loadPhoto = func(context.Context, string) (*image.Photo, error) {
		return nil, errors.New("unreadable")
	}
	s.fetchDB = func(context.Context, string) (*keydb.Database, error) { return testDB(t), nil }

	assert.Error(t, s.LoadAll(context.Background(), "", "key.png"))
}

func TestReport(t *testing.T) {
	s := calibratedState(t)
	s.SetPhoto(testPhoto("/photos/key.png"))
	s.SetBitting(alignment.Bitting{0, 1, 2})

	r := s.Report()
	assert.Equal(t, "/photos/key.png", r.Image)
	assert.Equal(t, "Acme", r.Brand)
	assert.Equal(t, "AC1", r.Type)
	assert.Equal(t, "Bow to Tip", r.Order)
	assert.Equal(t, 3, r.Cuts)
	assert.Equal(t, "0 1 2", r.Code)
	assert.True(t, r.Complete)
	require.NotNil(t, r.Scale)
	assert.InDelta(t, 20, r.Scale.HorizontalPxPerMM, 1e-9)
	assert.InDelta(t, 40, r.Scale.VerticalPxPerMM, 1e-9)

	require.Len(t, r.Positions, 3)
	for i, want := range []struct{ space, depth, x, y float64 }{
		{5, 9, 200, 40},
		{15, 6, 400, 160},
		{25, 3, 600, 280},
	} {
		p := r.Positions[i]
		assert.Equal(t, i+1, p.Cut)
		assert.InDelta(t, want.space, p.SpaceMM, 1e-9)
		assert.InDelta(t, want.depth, p.DepthMM, 1e-9)
		assert.InDelta(t, want.x, p.X, 1e-9)
		assert.InDelta(t, want.y, p.Y, 1e-9)
	}
}

func TestReportTipToBowInCutOrder(t *testing.T) {
	s := calibratedState(t)
	s.SelectType(1)
	s.SetBitting(alignment.Bitting{0, 1, 0, 1, 0, 1})

	r := s.Report()
	require.Len(t, r.Positions, 6)
	for i, p := range r.Positions {
		assert.Equal(t, i+1, p.Cut)
	}
	assert.Equal(t, "A B A B A B", r.Code)
}

func TestReportWithoutProfile(t *testing.T) {
	s := NewState()
	r := s.Report()
	assert.Empty(t, r.Type)
	assert.Nil(t, r.Scale)
	assert.Empty(t, r.Positions)
	assert.False(t, r.Complete)
}

func TestFileWatcherDetectsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(testJSON), 0o644))

	w := NewFileWatcher(path, time.Hour)
	require.NotNil(t, w)
	assert.False(t, w.checkForUpdate())

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	assert.True(t, w.checkForUpdate())
	assert.False(t, w.checkForUpdate())

	assert.Nil(t, NewFileWatcher(filepath.Join(t.TempDir(), "missing"), time.Second))
}

func TestFileWatcherCallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(testJSON), 0o644))

	w := NewFileWatcher(path, 5*time.Millisecond)
	require.NotNil(t, w)
	changed := make(chan struct{}, 1)
	w.OnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	w.Start()
	defer w.Stop()

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change callback")
	}
}

func TestMeasure(t *testing.T) {
	s := calibratedState(t)

	// 20 px/mm across from x=100, 40 px/mm up from y=400
	m, ok := s.Measure(30, 40)
	require.True(t, ok)
	assert.InDelta(t, 10, m.SpaceMM, 1e-9)
	assert.InDelta(t, 5, m.DepthMM, 1e-9)

	// Tip-to-bow keys measure from the tip line at x=900
	s.SelectType(1)
	m, ok = s.Measure(90, 80)
	require.True(t, ok)
	assert.InDelta(t, 0, m.SpaceMM, 1e-9)
	assert.InDelta(t, 0, m.DepthMM, 1e-9)
}

func TestMeasureUncalibrated(t *testing.T) {
	s := NewState()
	s.SetDatabase(testDB(t))
	_, ok := s.Measure(50, 50)
	assert.False(t, ok)
}

func TestLargePhotoIsBoundedForDisplay(t *testing.T) {
	s := NewState()
	big := &image.Photo{Path: "big.png", Image: goimage.NewRGBA(goimage.Rect(0, 0, 2*MaxDisplayDimension, MaxDisplayDimension/2))}
	s.SetPhoto(big)

	f := s.Recompute()
	require.Len(t, f.Key, 2)
	op, ok := f.Key[1].(render.ImageOp)
	require.True(t, ok)
	assert.Equal(t, MaxDisplayDimension, op.Src.Bounds().Dx())
	assert.Equal(t, MaxDisplayDimension/4, op.Src.Bounds().Dy())
	assert.Same(t, big, s.Photo())
}
