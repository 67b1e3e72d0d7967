package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 30, 20), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, p.Path)
	assert.Equal(t, 30, p.Width())
	assert.Equal(t, 20, p.Height())
	assert.Equal(t, 30.0, p.Size().Width)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	p, err := Decode(bytes.NewReader(encodePNG(t, 8, 4)), "mem.png")
	require.NoError(t, err)
	assert.Equal(t, "mem.png", p.Path)
	assert.Equal(t, 8, p.Width())

	_, err = Decode(bytes.NewReader([]byte("not an image")), "junk.png")
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	p, err := Decode(bytes.NewReader(encodePNG(t, 200, 100)), "big.png")
	require.NoError(t, err)

	small := p.Preview(50, 50)
	assert.Equal(t, 50, small.Bounds().Dx())
	assert.Equal(t, 25, small.Bounds().Dy())

	assert.Equal(t, p.Image, p.Preview(400, 400))
}

func TestNilPhoto(t *testing.T) {
	var p *Photo
	assert.Equal(t, 0, p.Width())
	assert.Equal(t, 0, p.Height())
	assert.Nil(t, p.Preview(10, 10))
}

func TestIsSupportedFormat(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"key.png", true},
		{"KEY.JPG", true},
		{"scan.tif", true},
		{"photo.webp", true},
		{"notes.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSupportedFormat(tt.path), tt.path)
	}
	assert.Contains(t, FileFilter(), "*.webp")
}
