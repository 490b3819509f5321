package images

import (
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
		wantChanged  bool
	}{
		{"within bounds", 800, 600, 800, 600, false},
		{"too wide", 6000, 600, 5000, 600, true},
		{"too tall", 800, 9000, 800, 5000, true},
		{"too small", 4, 4, 10, 10, true},
		{"at bounds", 10, 5000, 10, 5000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, changed := clampSize(tt.w, tt.h)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
}

func TestPrepareInBoundsImageUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pic.jpg")
	writeJPEG(t, path, 100, 80)

	out, err := New().Prepare(path)
	require.NoError(t, err)
	assert.Equal(t, path, out)
}

func TestPrepareResizesOversizedImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pic.jpg")
	writeJPEG(t, path, 5200, 40)

	out, err := New().Prepare(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "resized_pic.jpg"), out)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Width)
	assert.Equal(t, 40, cfg.Height)
}

func TestPrepareMissingFile(t *testing.T) {
	_, err := New().Prepare(filepath.Join(t.TempDir(), "absent.jpg"))
	assert.Error(t, err)
}
