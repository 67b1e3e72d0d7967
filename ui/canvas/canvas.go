// Package canvas provides the stacked key, overlay and bitting surfaces.
package canvas

import (
	"image"
	"sync"

	"key-decoder/internal/render"
	"key-decoder/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"
)

// KeyCanvas displays the three decoder surfaces stacked: the aligned key
// photo at the bottom, the crop box or guide lines above it and the bitting
// markers on top.
type KeyCanvas struct {
	widget.BaseWidget

	// mu guards the rasters, which are redrawn from load goroutines as well
	// as the UI thread.
	mu      sync.Mutex
	key     *render.Raster
	overlay *render.Raster
	bitting *render.Raster

	background *fynecanvas.Rectangle
	keyImg     *fynecanvas.Image
	overlayImg *fynecanvas.Image
	bittingImg *fynecanvas.Image

	size geometry.Size

	// Callbacks
	onTapped func(xPct, yPct float64) // Tap position in percent of the canvas
}

// NewKeyCanvas creates a canvas whose surfaces are size pixels. interp
// resamples the key photo; nil keeps the raster default.
func NewKeyCanvas(size geometry.Size, interp xdraw.Interpolator) *KeyCanvas {
	kc := &KeyCanvas{
		background: fynecanvas.NewRectangle(render.DefaultBackground),
	}
	kc.key = render.NewRaster(int(size.Width), int(size.Height))
	kc.overlay = render.NewRaster(int(size.Width), int(size.Height))
	kc.bitting = render.NewRaster(int(size.Width), int(size.Height))
	if interp != nil {
		kc.key.Interpolator = interp
	}
	kc.overlay.LineWidth = 2
	kc.bitting.LineWidth = 2

	kc.keyImg = newLayerImage(kc.key.Image())
	kc.overlayImg = newLayerImage(kc.overlay.Image())
	kc.bittingImg = newLayerImage(kc.bitting.Image())
	kc.size = size

	kc.ExtendBaseWidget(kc)
	return kc
}

func newLayerImage(img image.Image) *fynecanvas.Image {
	ci := fynecanvas.NewImageFromImage(img)
	ci.FillMode = fynecanvas.ImageFillStretch
	ci.ScaleMode = fynecanvas.ImageScalePixels
	return ci
}

// CanvasSize returns the surface size in pixels.
func (kc *KeyCanvas) CanvasSize() geometry.Size {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	return kc.size
}

// SetCanvasSize resizes the three surfaces. Their contents are cleared until
// the next ShowFrame.
func (kc *KeyCanvas) SetCanvasSize(size geometry.Size) {
	kc.mu.Lock()
	if size == kc.size || size.Width <= 0 || size.Height <= 0 {
		kc.mu.Unlock()
		return
	}
	kc.size = size
	for _, r := range kc.rasters() {
		r.Resize(int(size.Width), int(size.Height))
	}
	kc.keyImg.Image = kc.key.Image()
	kc.overlayImg.Image = kc.overlay.Image()
	kc.bittingImg.Image = kc.bitting.Image()
	kc.mu.Unlock()
	kc.Refresh()
}

func (kc *KeyCanvas) rasters() []*render.Raster {
	return []*render.Raster{kc.key, kc.overlay, kc.bitting}
}

// ShowFrame replays a frame onto the surfaces and refreshes the display.
func (kc *KeyCanvas) ShowFrame(frame render.Frame) {
	kc.mu.Lock()
	for _, r := range kc.rasters() {
		r.ResetTransform()
	}
	render.Apply(frame, render.Surfaces{Key: kc.key, Overlay: kc.overlay, Bitting: kc.bitting})
	kc.mu.Unlock()
	kc.Refresh()
}

// Composite flattens the three surfaces over the canvas background.
func (kc *KeyCanvas) Composite() *image.RGBA {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	return render.Composite(render.DefaultBackground, kc.key.Image(), kc.overlay.Image(), kc.bitting.Image())
}

// OnTapped sets the callback for taps on the canvas.
func (kc *KeyCanvas) OnTapped(callback func(xPct, yPct float64)) {
	kc.onTapped = callback
}

// Tapped handles left-click events.
func (kc *KeyCanvas) Tapped(ev *fyne.PointEvent) {
	if kc.onTapped == nil {
		return
	}

	// Reject clicks outside the widget bounds
	size := kc.Size()
	if size.Width <= 0 || size.Height <= 0 ||
		ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}

	kc.onTapped(
		float64(ev.Position.X/size.Width)*100,
		float64(ev.Position.Y/size.Height)*100,
	)
}

// MinSize keeps the widget at least as large as the surfaces.
func (kc *KeyCanvas) MinSize() fyne.Size {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	return fyne.NewSize(float32(kc.size.Width), float32(kc.size.Height))
}

// Refresh redraws the layer images.
func (kc *KeyCanvas) Refresh() {
	kc.keyImg.Refresh()
	kc.overlayImg.Refresh()
	kc.bittingImg.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (kc *KeyCanvas) CreateRenderer() fyne.WidgetRenderer {
	stack := container.NewStack(kc.background, kc.keyImg, kc.overlayImg, kc.bittingImg)
	return widget.NewSimpleRenderer(stack)
}
