// Package classify provides the default diagram classifier: a pixel heuristic
// that looks at ink coverage, the share of ink in tall vertical runs, and
// gradient edge density on a small grayscale thumbnail.
//
// Text slides render as thin horizontal strokes, so almost none of their ink
// forms tall runs. Boxes, plots, photos and arrows do.
package classify

import (
	"context"
	"image"
	"log/slog"

	"lectern/internal/imaging"
	"lectern/internal/lecture"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/similarity"
)

const (
	thumbWidth  = 64
	thumbHeight = 48

	// inkMargin is how far from the background luminance a pixel must sit to
	// count as ink.
	inkMargin = 64

	blankCoverage   = 0.005
	tallShare       = 0.35
	busyCoverage    = 0.3
	busyEdgeDensity = 0.1
)

// Classifier is a lecture.Classifier backed by image statistics.
type Classifier struct {
	evaluator similarity.Evaluator
	logger    *slog.Logger
}

var _ lecture.Classifier = (*Classifier)(nil)

// New builds a Classifier. The evaluator supplies the gradient hash used for
// edge density.
func New(evaluator similarity.Evaluator, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Classifier{evaluator: evaluator, logger: logger}
}

// Features are the measurements behind one verdict.
type Features struct {
	Coverage    float64
	TallShare   float64
	EdgeDensity float64
}

// Classify reports whether img looks like a diagram.
func (c *Classifier) Classify(ctx context.Context, img image.Image) (lecture.Classification, error) {
	if err := ctx.Err(); err != nil {
		return lecture.Classification{}, err
	}
	if img == nil || img.Bounds().Empty() {
		return lecture.Classification{}, services.Wrap(services.ErrUnavailable, "classify", "classify", "no image data", nil)
	}
	f := c.Measure(img)
	verdict := decide(f)
	logging.Decision(logging.WithContext(ctx, c.logger), "content classified", "diagram_detection", resultLabel(verdict.IsDiagram), reason(f),
		logging.Float64("coverage", f.Coverage),
		logging.Float64("tall_share", f.TallShare),
		logging.Float64("edge_density", f.EdgeDensity),
		logging.Float64("confidence", verdict.Confidence),
	)
	return verdict, nil
}

// Measure computes the classifier features for img.
func (c *Classifier) Measure(img image.Image) Features {
	thumb := imaging.Thumbnail(img, thumbWidth, thumbHeight)
	background := imaging.Mean(thumb)
	darkInk := background >= 128

	ink := make([]bool, len(thumb.Pix))
	inkCount := 0
	for i, p := range thumb.Pix {
		v := float64(p)
		if (darkInk && v < background-inkMargin) || (!darkInk && v > background+inkMargin) {
			ink[i] = true
			inkCount++
		}
	}

	var f Features
	total := thumbWidth * thumbHeight
	f.Coverage = float64(inkCount) / float64(total)
	if inkCount > 0 {
		f.TallShare = float64(tallInk(ink, thumbWidth, thumbHeight, thumbHeight/6)) / float64(inkCount)
	}

	size := c.evaluator.HashSize
	if size <= 0 {
		size = 16
	}
	f.EdgeDensity = float64(c.evaluator.Hash(img).Edges()) / float64(4*size*size)
	return f
}

// tallInk counts ink pixels belonging to vertical runs of at least minRun.
func tallInk(ink []bool, w, h, minRun int) int {
	count := 0
	for x := 0; x < w; x++ {
		run := 0
		for y := 0; y <= h; y++ {
			if y < h && ink[y*w+x] {
				run++
				continue
			}
			if run >= minRun {
				count += run
			}
			run = 0
		}
	}
	return count
}

func decide(f Features) lecture.Classification {
	switch {
	case f.Coverage < blankCoverage:
		return lecture.Classification{IsDiagram: false, Confidence: 0.9}
	case f.TallShare >= tallShare:
		return lecture.Classification{IsDiagram: true, Confidence: 0.5 + 0.5*clamp01((f.TallShare-tallShare)/(1-tallShare))}
	case f.Coverage >= busyCoverage && f.EdgeDensity >= busyEdgeDensity:
		return lecture.Classification{IsDiagram: true, Confidence: 0.6}
	default:
		return lecture.Classification{IsDiagram: false, Confidence: 0.5 + 0.5*clamp01(1-f.TallShare/tallShare)}
	}
}

func resultLabel(isDiagram bool) string {
	if isDiagram {
		return "diagram"
	}
	return "text"
}

func reason(f Features) string {
	switch {
	case f.Coverage < blankCoverage:
		return "blank frame"
	case f.TallShare >= tallShare:
		return "tall ink structures"
	case f.Coverage >= busyCoverage && f.EdgeDensity >= busyEdgeDensity:
		return "dense edges"
	default:
		return "thin strokes only"
	}
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
