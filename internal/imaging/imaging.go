// Package imaging renders frame images into small grayscale thumbnails and
// decodes frame files from disk.
package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Thumbnail scales img into a w x h grayscale image. Bilinear filtering averages
// away most block and ringing artefacts left by lossy encoders.
func Thumbnail(img image.Image, w, h int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if img == nil || img.Bounds().Empty() {
		return dst
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Load decodes an image file in any registered format (png, jpeg, gif, bmp, webp)
// and returns it with the hex sha256 of the file bytes.
func Load(path string) (image.Image, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return img, hex.EncodeToString(sum[:]), nil
}

// Mean returns the average luminance of a grayscale image.
func Mean(g *image.Gray) float64 {
	if g == nil || len(g.Pix) == 0 {
		return 0
	}
	var sum int
	for _, p := range g.Pix {
		sum += int(p)
	}
	return float64(sum) / float64(len(g.Pix))
}
