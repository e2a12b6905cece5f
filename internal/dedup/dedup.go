package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"lectern/internal/lecture"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/similarity"
)

// Stage is the pipeline stage name used for logging and error context.
const Stage = "dedup"

// Deduplicator folds frame candidates into slides.
type Deduplicator struct {
	settings   lecture.Settings
	evaluator  similarity.Evaluator
	classifier lecture.Classifier
	logger     *slog.Logger
}

// New builds a Deduplicator. A nil classifier is treated as permanently
// unavailable.
func New(settings lecture.Settings, evaluator similarity.Evaluator, classifier lecture.Classifier, logger *slog.Logger) *Deduplicator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Deduplicator{
		settings:   settings,
		evaluator:  evaluator,
		classifier: classifier,
		logger:     logger,
	}
}

// cluster is a run of consecutive candidates collapsed onto its first frame.
type cluster struct {
	rep        lecture.FrameCandidate
	repFrame   similarity.Frame
	start, end float64
	frames     int

	classified bool
	noise      bool
	content    lecture.ContentType
	confidence float64
	warnings   []string
}

func newCluster(prepared similarity.Frame) *cluster {
	c := prepared.Candidate
	return &cluster{rep: c, repFrame: prepared, start: c.Timestamp, end: c.Timestamp, frames: 1}
}

func (c *cluster) extend(candidate lecture.FrameCandidate) {
	c.end = candidate.Timestamp
	c.frames++
}

// fold carries the accumulator state. accepted is the last valid cluster: it
// stays open as the merge anchor until a later cluster proves valid. tentative
// is a newer cluster whose validity is decided when it closes.
type fold struct {
	accepted  *cluster
	tentative *cluster
	closed    int
	out       []lecture.Slide
}

// Deduplicate returns the unique slides for candidates, which must have
// strictly increasing timestamps. An empty input yields an empty result.
func (d *Deduplicator) Deduplicate(ctx context.Context, candidates []lecture.FrameCandidate) ([]lecture.Slide, error) {
	if len(candidates) == 0 {
		return []lecture.Slide{}, nil
	}
	if err := checkOrder(candidates); err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, d.logger)

	var f fold
	var lastNoise *cluster
	for idx, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prepared := d.evaluator.Prepare(candidate)
		// rejected is the cluster already compared against this candidate.
		var rejected *cluster
		if f.tentative != nil {
			if d.merges(f.tentative, prepared) {
				f.tentative.extend(candidate)
				continue
			}
			rejected = f.tentative
			dropped, err := d.close(ctx, logger, &f)
			if err != nil {
				return nil, err
			}
			if dropped != nil {
				lastNoise = dropped
			}
		}
		if f.accepted != nil && f.accepted != rejected && d.merges(f.accepted, prepared) {
			f.accepted.extend(candidate)
			logging.Decision(logger, "frame merged into slide", "dedup_merge", "merged", "similar to open slide",
				logging.Int("candidate", idx),
				logging.Float64("timestamp", candidate.Timestamp),
			)
			continue
		}
		f.tentative = newCluster(prepared)
	}
	if f.tentative != nil {
		dropped, err := d.close(ctx, logger, &f)
		if err != nil {
			return nil, err
		}
		if dropped != nil {
			lastNoise = dropped
		}
	}
	if f.accepted != nil {
		if err := f.emit(f.accepted); err != nil {
			return nil, err
		}
	}

	// A stream that collapses into a single cluster always yields that slide.
	if len(f.out) == 0 && f.closed == 1 && lastNoise != nil {
		logging.Decision(logger, "kept sole slide despite missing text", "dedup_noise", "kept", "only cluster in stream")
		if err := f.emit(lastNoise); err != nil {
			return nil, err
		}
	}

	logger.Info("slides deduplicated",
		logging.Int("candidates", len(candidates)),
		logging.Int("clusters", f.closed),
		logging.Int("slides", len(f.out)),
	)
	return f.out, nil
}

// close finalizes the tentative cluster. A valid cluster replaces the accepted
// anchor, which is emitted. A noise cluster is returned and the anchor is left
// in place.
func (d *Deduplicator) close(ctx context.Context, logger *slog.Logger, f *fold) (*cluster, error) {
	c := f.tentative
	f.tentative = nil
	f.closed++
	d.classify(ctx, logger, c)
	if c.noise {
		logging.Decision(logger, "noise frames dropped", "dedup_noise", "dropped", "text below minimum and not a diagram",
			logging.Float64("start", c.start),
			logging.Float64("end", c.end),
			logging.Int("frames", c.frames),
		)
		return c, nil
	}
	if f.accepted != nil {
		if err := f.emit(f.accepted); err != nil {
			return nil, err
		}
	}
	f.accepted = c
	return nil, nil
}

func (f *fold) emit(c *cluster) error {
	if c.start > c.end {
		return &services.InvariantError{
			Subject: fmt.Sprintf("slide %d", len(f.out)),
			Detail:  fmt.Sprintf("start %.3fs after end %.3fs", c.start, c.end),
		}
	}
	text := strings.TrimSpace(c.rep.ExtractedText)
	var diagram lecture.DiagramType
	if c.content.HasDiagram() {
		diagram = lecture.ClassifyDiagram(text)
	}
	f.out = append(f.out, lecture.Slide{
		SlideIndex:               len(f.out),
		ChapterName:              lecture.UnassignedChapter,
		RepresentativeImage:      c.rep.Image,
		RepresentativePath:       c.rep.ImagePath,
		ExtractedText:            text,
		ContentType:              c.content,
		DiagramType:              diagram,
		ClassificationConfidence: c.confidence,
		OCRConfidence:            c.rep.OCRConfidence,
		StartTime:                c.start,
		EndTime:                  c.end,
		FrameCount:               c.frames,
		Warnings:                 c.warnings,
	})
	return nil
}

// merges applies the merge rule against the cluster representative. Text
// similarity carries no signal between two blank frames, so those merge on the
// stricter visual bar alone.
func (d *Deduplicator) merges(c *cluster, candidate similarity.Frame) bool {
	score := d.evaluator.Compare(c.repFrame, candidate)
	if strings.TrimSpace(c.rep.ExtractedText) == "" && strings.TrimSpace(candidate.Candidate.ExtractedText) == "" {
		return score.Visual >= d.settings.DiagramMergeThreshold
	}
	return score.Textual >= d.settings.TextMergeThreshold && score.Visual >= d.settings.VisualMergeFloor
}

// classify assigns the content type once per cluster. Classifier failures
// degrade to a text-based guess with zero confidence.
func (d *Deduplicator) classify(ctx context.Context, logger *slog.Logger, c *cluster) {
	if c.classified {
		return
	}
	c.classified = true

	text := strings.TrimSpace(c.rep.ExtractedText)
	hasText := utf8.RuneCountInString(text) >= d.settings.MinTextLength

	verdict, err := d.runClassifier(ctx, c)
	if err != nil {
		if text != "" {
			c.content = lecture.ContentText
		} else {
			c.content = lecture.ContentDiagram
		}
		c.confidence = 0
		c.warnings = append(c.warnings, lecture.WarnClassifierUnavailable)
		logging.WarnWithContext(logger, "diagram classifier unavailable", "classifier_unavailable",
			logging.Float64("start", c.start),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the classifier backend"),
			logging.String(logging.FieldImpact, "content type guessed from OCR text"),
		)
	} else {
		c.content = lecture.ClassifyContent(hasText, verdict.IsDiagram)
		c.confidence = clamp01(verdict.Confidence)
	}

	// Blank frames under a failed classifier fall back to DIAGRAM and survive,
	// matching the degraded content type.
	c.noise = !hasText && c.content != lecture.ContentDiagram
}

func (d *Deduplicator) runClassifier(ctx context.Context, c *cluster) (lecture.Classification, error) {
	if d.classifier == nil {
		return lecture.Classification{}, services.Wrap(services.ErrUnavailable, Stage, "classify", "no classifier configured", nil)
	}
	if c.rep.Image == nil {
		return lecture.Classification{}, services.Wrap(services.ErrUnavailable, Stage, "classify", "frame has no image", nil)
	}
	verdict, err := d.classifier.Classify(ctx, c.rep.Image)
	if err != nil {
		return lecture.Classification{}, services.Wrap(services.ErrUnavailable, Stage, "classify", "classifier failed", err)
	}
	return verdict, nil
}

func checkOrder(candidates []lecture.FrameCandidate) error {
	for i, c := range candidates {
		if !lecture.ValidTime(c.Timestamp) {
			return services.Wrap(services.ErrValidation, Stage, "check order",
				fmt.Sprintf("frame %d has invalid timestamp %v", i, c.Timestamp), nil)
		}
		if i > 0 && c.Timestamp <= candidates[i-1].Timestamp {
			return &services.OrderingError{
				Stream:   "frames",
				Index:    i,
				Previous: candidates[i-1].Timestamp,
				Current:  c.Timestamp,
			}
		}
	}
	return nil
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
