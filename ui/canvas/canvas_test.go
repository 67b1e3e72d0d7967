package canvas

import (
	"image/color"
	"sync"
	"testing"

	"key-decoder/internal/render"
	"key-decoder/pkg/geometry"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.RGBA{R: 255, A: 255}

func TestShowAppliesFrame(t *testing.T) {
	test.NewApp()
	kc := NewKeyCanvas(geometry.NewSize(40, 20), nil)

	kc.ShowFrame(render.Frame{
		Overlay: []render.Op{render.ClearOp{}, render.LineOp{X1: 0, Y1: 10, X2: 39, Y2: 10, Color: red}},
	})

	assert.Equal(t, red, kc.overlay.Image().RGBAAt(20, 10))
	assert.Equal(t, color.RGBA{}, kc.key.Image().RGBAAt(20, 10))

	out := kc.Composite()
	assert.Equal(t, red, out.RGBAAt(20, 10))
	assert.Equal(t, render.DefaultBackground, out.RGBAAt(20, 2))
}

func TestShowFrameFromSeveralGoroutines(t *testing.T) {
	test.NewApp()
	kc := NewKeyCanvas(geometry.NewSize(40, 20), nil)
	frame := render.Frame{
		Key:     []render.Op{render.ClearOp{}, render.TranslateOp{DX: 1}, render.LineOp{X1: 0, Y1: 5, X2: 38, Y2: 5, Color: red}},
		Overlay: []render.Op{render.ClearOp{}, render.LineOp{X1: 0, Y1: 10, X2: 39, Y2: 10, Color: red}},
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				kc.ShowFrame(frame)
				kc.Composite()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, red, kc.key.Image().RGBAAt(20, 5))
	assert.Equal(t, red, kc.overlay.Image().RGBAAt(20, 10))
}

func TestSetCanvasSize(t *testing.T) {
	test.NewApp()
	kc := NewKeyCanvas(geometry.NewSize(40, 20), nil)
	kc.SetCanvasSize(geometry.NewSize(80, 30))

	assert.Equal(t, geometry.NewSize(80, 30), kc.CanvasSize())
	assert.Equal(t, 80, kc.bitting.Image().Bounds().Dx())
	assert.Equal(t, fyne.NewSize(80, 30), kc.MinSize())
	assert.Same(t, kc.key.Image(), kc.keyImg.Image)
}

func TestTappedReportsPercent(t *testing.T) {
	test.NewApp()
	kc := NewKeyCanvas(geometry.NewSize(200, 100), nil)
	kc.Resize(fyne.NewSize(200, 100))

	var gotX, gotY float64
	calls := 0
	kc.OnTapped(func(x, y float64) {
		gotX, gotY = x, y
		calls++
	})

	test.TapAt(kc, fyne.NewPos(50, 80))
	require.Equal(t, 1, calls)
	assert.InDelta(t, 25, gotX, 1e-4)
	assert.InDelta(t, 80, gotY, 1e-4)

	test.TapAt(kc, fyne.NewPos(250, 80))
	assert.Equal(t, 1, calls)
}
