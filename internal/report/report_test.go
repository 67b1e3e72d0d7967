package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	r := New()
	assert.Equal(t, CurrentVersion, r.Version)
	assert.Equal(t, 100.0, r.Crop.Width)
	assert.Equal(t, 1, r.Transform.KeystoneSlices)
	assert.Nil(t, r.Scale)
	assert.False(t, r.Created.IsZero())
}

func TestWriteOmitsUncalibratedScale(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Write(&buf))

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.NotContains(t, raw, "scale")
	assert.NotContains(t, raw, "positions")
	assert.Contains(t, raw, "code")
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "front-door"+Ext)

	r := New()
	r.Brand = "Kwikset"
	r.Type = "KW1"
	r.Cuts = 5
	r.Code = "1 2 3 4 5"
	r.Complete = true
	r.Scale = &Scale{HorizontalPxPerMM: 20, VerticalPxPerMM: 40}
	r.Positions = []Position{{Cut: 1, Label: "1", SpaceMM: 6.274, DepthMM: 8.357, X: 200, Y: 40}}
	require.NoError(t, r.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "KW1", got.Type)
	assert.Equal(t, "1 2 3 4 5", got.Code)
	require.NotNil(t, got.Scale)
	assert.Equal(t, 40.0, got.Scale.VerticalPxPerMM)
	require.Len(t, got.Positions, 1)
	assert.Equal(t, 8.357, got.Positions[0].DepthMM)
}

func TestSaveBadPath(t *testing.T) {
	err := New().Save(filepath.Join(t.TempDir(), "missing", "r"+Ext))
	assert.Error(t, err)
}
