package imaging_test

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"lectern/internal/imaging"
)

func TestThumbnailUniformImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 640, 360))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	thumb := imaging.Thumbnail(src, 16, 9)
	if got := thumb.Bounds().Dx(); got != 16 {
		t.Fatalf("width = %d, want 16", got)
	}
	if mean := imaging.Mean(thumb); mean < 195 || mean > 205 {
		t.Fatalf("mean luminance = %v, want ~200", mean)
	}
}

func TestThumbnailNilImage(t *testing.T) {
	thumb := imaging.Thumbnail(nil, 8, 8)
	if imaging.Mean(thumb) != 0 {
		t.Fatal("expected black thumbnail for nil image")
	}
}

func TestLoadPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(1, 1, color.Gray{Y: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	loaded, digest, err := imaging.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Bounds().Dx() != 4 {
		t.Fatalf("unexpected bounds %v", loaded.Bounds())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if sum := sha256.Sum256(data); digest != hex.EncodeToString(sum[:]) {
		t.Fatalf("digest %q does not match file bytes", digest)
	}
	if _, _, err := imaging.Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
