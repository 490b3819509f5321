// Package images prepares node images for the chat transport: dimensions
// clamped into the range the transport accepts, file size compressed under
// its payload target.
package images

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
)

const (
	minSide      = 10
	maxSide      = 5000
	targetBytes  = 550 * 1024
	startQuality = 85
	minQuality   = 10
)

// Preparer resizes and compresses images in place next to the source file.
type Preparer struct{}

// New creates a preparer.
func New() *Preparer {
	return &Preparer{}
}

// Prepare returns a path to a transport-safe version of the image. The
// source file is left untouched; derived files live beside it with a prefix.
func (p *Preparer) Prepare(path string) (string, error) {
	resized, err := resize(path)
	if err != nil {
		return "", err
	}
	return compress(resized)
}

// clampSize fits dimensions into the accepted range, reporting whether a
// resize is needed.
func clampSize(w, h int) (int, int, bool) {
	cw := min(max(minSide, w), maxSide)
	ch := min(max(minSide, h), maxSide)
	return cw, ch, cw != w || ch != h
}

func resize(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	w, h, changed := clampSize(bounds.Dx(), bounds.Dy())
	if !changed {
		return path, nil
	}

	out := prefixedPath(path, "resized")
	if err := encodeJPEG(out, scale(img, w, h), 50); err != nil {
		return "", err
	}
	return out, nil
}

func compress(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() <= targetBytes {
		return path, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}

	out := prefixedPath(path, "compressed")
	for quality := startQuality; quality >= minQuality; quality -= 15 {
		if err := encodeJPEG(out, img, quality); err != nil {
			return "", err
		}
		info, err := os.Stat(out)
		if err != nil {
			return "", err
		}
		if info.Size() <= targetBytes {
			break
		}
	}
	return out, nil
}

// scale is a nearest-neighbor resample; keyboard images do not warrant an
// imaging dependency.
func scale(src image.Image, w, h int) image.Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := bounds.Min.Y + y*bounds.Dy()/h
		for x := 0; x < w; x++ {
			sx := bounds.Min.X + x*bounds.Dx()/w
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

func encodeJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
}

func prefixedPath(path, prefix string) string {
	dir, name := filepath.Split(path)
	return filepath.Join(dir, prefix+"_"+name)
}
