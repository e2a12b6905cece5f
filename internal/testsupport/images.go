package testsupport

import (
	"image"
	"image/color"
	"math/rand/v2"
)

// SlideImage renders a white w x h canvas with a solid black block for every
// rectangle, standing in for lines of slide text or diagram boxes.
func SlideImage(w, h int, blocks ...image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	for _, r := range blocks {
		r = r.Intersect(img.Bounds())
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return img
}

// TextLines returns n bar rectangles laid out like bullet lines on a 320x180 slide.
func TextLines(n int) []image.Rectangle {
	out := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		top := 20 + i*30
		out = append(out, image.Rect(24, top, 24+200-i*15, top+12))
	}
	return out
}

// NoisyCopy returns a copy of src with deterministic per-pixel noise of at most
// amplitude luminance steps, imitating lossy re-encoding.
func NoisyCopy(src *image.Gray, amplitude int, seed uint64) *image.Gray {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := image.NewGray(src.Bounds())
	for i, p := range src.Pix {
		v := int(p) + rng.IntN(2*amplitude+1) - amplitude
		out.Pix[i] = uint8(min(255, max(0, v)))
	}
	return out
}
