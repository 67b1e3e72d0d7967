// Package image loads key photographs.
package image

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"key-decoder/pkg/geometry"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Photo is a decoded key photograph.
type Photo struct {
	Path  string      // Original file path or URI
	Image image.Image // Decoded, upright image data
}

// Load decodes the photo at path. EXIF orientation is applied so phone
// photos come in upright.
func Load(path string) (*Photo, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return &Photo{Path: path, Image: img}, nil
}

// Decode reads a photo from r. name is recorded as the photo's path.
func Decode(r io.Reader, name string) (*Photo, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}
	return &Photo{Path: name, Image: img}, nil
}

// Width returns the image width in pixels.
func (p *Photo) Width() int {
	if p == nil || p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (p *Photo) Height() int {
	if p == nil || p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dy()
}

// Size returns the image dimensions.
func (p *Photo) Size() geometry.Size {
	return geometry.Size{
		Width:  float64(p.Width()),
		Height: float64(p.Height()),
	}
}

// Preview returns the photo scaled down to fit within maxW x maxH, keeping
// the aspect ratio. Photos that already fit are returned unchanged.
func (p *Photo) Preview(maxW, maxH int) image.Image {
	if p == nil || p.Image == nil {
		return nil
	}
	if p.Width() <= maxW && p.Height() <= maxH {
		return p.Image
	}
	return imaging.Fit(p.Image, maxW, maxH, imaging.Lanczos)
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".tiff", ".tif", ".bmp", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// FileFilter returns a file filter string for use in file dialogs.
func FileFilter() string {
	return "Image Files (*" + strings.Join(SupportedFormats(), ", *") + ")"
}
