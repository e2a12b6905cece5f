package similarity

import (
	"image"
	"math/bits"
	"strings"

	"lectern/internal/imaging"
	"lectern/internal/lecture"
	"lectern/internal/textutil"
)

const (
	defaultHashSize      = 16
	defaultGradientDelta = 8
)

// Score holds the two independent similarity axes, each in [0,1].
type Score struct {
	Visual  float64 `json:"visual"`
	Textual float64 `json:"textual"`
}

// Evaluator computes similarity scores. The zero value uses the defaults.
type Evaluator struct {
	// HashSize is the thumbnail grid edge; the hash carries 4*HashSize^2 bits.
	HashSize int
	// GradientDelta is the minimum luminance step (0-255) that counts as an edge.
	GradientDelta int
}

// NewEvaluator returns an Evaluator with the supplied grid size and noise floor.
// Non-positive values fall back to defaults.
func NewEvaluator(hashSize, gradientDelta int) Evaluator {
	return Evaluator{HashSize: hashSize, GradientDelta: gradientDelta}
}

// Similarity compares two candidates.
func (e Evaluator) Similarity(a, b lecture.FrameCandidate) Score {
	return e.Compare(e.Prepare(a), e.Prepare(b))
}

// Frame is a candidate with its gradient hash and normalized text computed
// once, for callers that compare the same frame repeatedly.
type Frame struct {
	Candidate lecture.FrameCandidate
	hash      Hash
	text      string
}

// Prepare hashes and normalizes c.
func (e Evaluator) Prepare(c lecture.FrameCandidate) Frame {
	f := Frame{Candidate: c, text: textutil.Normalize(c.ExtractedText)}
	if c.Image != nil {
		f.hash = e.Hash(c.Image)
	}
	return f
}

// Compare scores two prepared frames. It equals Similarity on the underlying
// candidates.
func (e Evaluator) Compare(a, b Frame) Score {
	var visual float64
	switch {
	case a.Candidate.Image == nil && b.Candidate.Image == nil:
		visual = 1
	case a.Candidate.Image == nil || b.Candidate.Image == nil:
		visual = 0
	default:
		visual = a.hash.Similarity(b.hash)
	}
	return Score{Visual: visual, Textual: textual(a.text, b.text)}
}

// Textual compares two OCR texts. Two blank texts are indistinguishable (1); a
// blank text never resembles a non-blank one (0).
func Textual(a, b string) float64 {
	return textual(textutil.Normalize(a), textutil.Normalize(b))
}

func textual(na, nb string) float64 {
	switch {
	case na == "" && nb == "":
		return 1
	case na == "" || nb == "":
		return 0
	case na == nb:
		return 1
	}
	edit := textutil.EditRatio(na, nb)
	overlap := textutil.WordOverlap(strings.Fields(na), strings.Fields(nb))
	return clamp01((edit + overlap) / 2)
}

// Visual compares two images through their gradient hashes.
func (e Evaluator) Visual(a, b image.Image) float64 {
	switch {
	case a == nil && b == nil:
		return 1
	case a == nil || b == nil:
		return 0
	}
	return e.Hash(a).Similarity(e.Hash(b))
}

// Hash is a gradient hash of one image.
type Hash struct {
	words []uint64
}

// Hash computes the gradient hash of img.
func (e Evaluator) Hash(img image.Image) Hash {
	size := e.HashSize
	if size <= 0 {
		size = defaultHashSize
	}
	delta := e.GradientDelta
	if delta <= 0 {
		delta = defaultGradientDelta
	}

	thumb := imaging.Thumbnail(img, size+1, size+1)
	planes := 4
	total := planes * size * size
	h := Hash{words: make([]uint64, (total+63)/64)}
	bit := 0
	set := func(on bool) {
		if on {
			h.words[bit/64] |= 1 << (bit % 64)
		}
		bit++
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			p := int(thumb.GrayAt(x, y).Y)
			dx := int(thumb.GrayAt(x+1, y).Y) - p
			dy := int(thumb.GrayAt(x, y+1).Y) - p
			set(dx > delta)
			set(dx < -delta)
			set(dy > delta)
			set(dy < -delta)
		}
	}
	return h
}

// Similarity returns 1 - |a xor b| / |a or b| over set bits. Two hashes without
// any edges are identical.
func (h Hash) Similarity(other Hash) float64 {
	if len(h.words) != len(other.words) {
		return 0
	}
	var diff, union int
	for i := range h.words {
		diff += bits.OnesCount64(h.words[i] ^ other.words[i])
		union += bits.OnesCount64(h.words[i] | other.words[i])
	}
	if union == 0 {
		return 1
	}
	return clamp01(1 - float64(diff)/float64(union))
}

// Edges returns the number of set bits.
func (h Hash) Edges() int {
	n := 0
	for _, w := range h.words {
		n += bits.OnesCount64(w)
	}
	return n
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
