// Package segment partitions transcript spans across slides. Every slide gets
// at least one segment; spans separated by short gaps share a segment.
package segment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"lectern/internal/lecture"
	"lectern/internal/logging"
	"lectern/internal/services"
)

// Stage is the pipeline stage name used for logging and error context.
const Stage = "segment"

// Segmenter builds raw content segments. Keywords, technical terms and
// confidences are left for the enricher.
type Segmenter struct {
	settings lecture.Settings
	logger   *slog.Logger
}

// New builds a Segmenter.
func New(settings lecture.Settings, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Segmenter{settings: settings, logger: logger}
}

// window is the time range a slide claims speech from.
type window struct {
	start, end float64
	openEnd    bool
}

func (w window) intersects(span lecture.TranscriptSpan) bool {
	if span.EndTime < w.start {
		return false
	}
	if w.openEnd {
		return span.StartTime < w.end
	}
	return span.StartTime <= w.end
}

// Segment returns the segments for slides in slide order. Slides must be
// ordered by start time and spans by start time.
func (s *Segmenter) Segment(ctx context.Context, slides []lecture.Slide, spans []lecture.TranscriptSpan) ([]lecture.ContentSegment, error) {
	if err := checkSlides(slides); err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, s.logger)

	cleaned, err := s.resolveOverlaps(logger, spans)
	if err != nil {
		return nil, err
	}

	windows := s.windows(slides)
	claimed := make([][]lecture.TranscriptSpan, len(slides))
	orphaned := 0
	for _, span := range cleaned {
		owner := -1
		for i, w := range windows {
			if w.intersects(span) {
				owner = i
				break
			}
		}
		if owner < 0 {
			orphaned++
			continue
		}
		claimed[owner] = append(claimed[owner], span)
	}

	out := make([]lecture.ContentSegment, 0, len(slides))
	for i, slide := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, s.group(slide, windows[i], claimed[i])...)
	}

	logger.Info("transcript segmented",
		logging.Int("slides", len(slides)),
		logging.Int("spans", len(cleaned)),
		logging.Int("segments", len(out)),
		logging.Int("unclaimed_spans", orphaned),
	)
	return out, nil
}

// windows returns each slide's claim range. By default that is the slide's
// closed [start, end] range; with ExtendToNextSlide it runs up to the next
// slide's start, and the final slide is unbounded.
func (s *Segmenter) windows(slides []lecture.Slide) []window {
	out := make([]window, len(slides))
	for i, slide := range slides {
		w := window{start: slide.StartTime, end: slide.EndTime}
		if s.settings.ExtendToNextSlide {
			if i+1 < len(slides) {
				if next := slides[i+1].StartTime; next > w.end {
					w.end = next
					w.openEnd = true
				}
			} else {
				w.end = math.Inf(1)
				w.openEnd = true
			}
		}
		out[i] = w
	}
	return out
}

// group splits one slide's spans on gaps at or above the threshold.
func (s *Segmenter) group(slide lecture.Slide, w window, spans []lecture.TranscriptSpan) []lecture.ContentSegment {
	if len(spans) == 0 {
		return []lecture.ContentSegment{newSegment(slide, 0, slide.StartTime, slide.EndTime, "")}
	}

	var out []lecture.ContentSegment
	flush := func(run []lecture.TranscriptSpan) {
		start := math.Max(run[0].StartTime, w.start)
		end := run[0].EndTime
		texts := make([]string, 0, len(run))
		for _, span := range run {
			end = math.Max(end, span.EndTime)
			if text := strings.Join(strings.Fields(span.Text), " "); text != "" {
				texts = append(texts, text)
			}
		}
		end = math.Min(end, w.end)
		if end < start {
			end = start
		}
		out = append(out, newSegment(slide, len(out), start, end, strings.Join(texts, " ")))
	}

	run := []lecture.TranscriptSpan{spans[0]}
	runEnd := spans[0].EndTime
	for _, span := range spans[1:] {
		if span.StartTime-runEnd >= s.settings.SegmentGapThreshold {
			flush(run)
			run = run[:0:0]
		}
		run = append(run, span)
		runEnd = math.Max(runEnd, span.EndTime)
	}
	flush(run)
	return out
}

func newSegment(slide lecture.Slide, index int, start, end float64, text string) lecture.ContentSegment {
	return lecture.ContentSegment{
		SlideIndex:     slide.SlideIndex,
		SegmentIndex:   index,
		StartTime:      start,
		EndTime:        end,
		TranscriptText: text,
		Keywords:       []string{},
		TechnicalTerms: []string{},
	}
}

// resolveOverlaps checks span order and hands any overlap beyond the
// tolerance to the earlier span by trimming the later one. Spans trimmed to
// nothing are dropped.
func (s *Segmenter) resolveOverlaps(logger *slog.Logger, spans []lecture.TranscriptSpan) ([]lecture.TranscriptSpan, error) {
	out := make([]lecture.TranscriptSpan, 0, len(spans))
	prevEnd := math.Inf(-1)
	for i, span := range spans {
		if !lecture.ValidTime(span.StartTime) || !lecture.ValidTime(span.EndTime) {
			return nil, services.Wrap(services.ErrValidation, Stage, "check transcript",
				fmt.Sprintf("span %d has invalid bounds %v-%v", i, span.StartTime, span.EndTime), nil)
		}
		if span.EndTime < span.StartTime {
			return nil, services.Wrap(services.ErrValidation, Stage, "check transcript",
				fmt.Sprintf("span %d ends at %.3f before it starts at %.3f", i, span.EndTime, span.StartTime), nil)
		}
		if i > 0 && span.StartTime < spans[i-1].StartTime {
			return nil, &services.OrderingError{
				Stream:   "transcript",
				Index:    i,
				Previous: spans[i-1].StartTime,
				Current:  span.StartTime,
			}
		}
		if overlap := prevEnd - span.StartTime; overlap > s.settings.OverlapTolerance {
			if span.EndTime <= prevEnd {
				logging.Decision(logger, "transcript span dropped", "span_overlap", "dropped", "covered by earlier span",
					logging.Int("span", i),
					logging.Float64("overlap", overlap),
				)
				continue
			}
			logging.Decision(logger, "transcript span trimmed", "span_overlap", "trimmed", "overlap beyond tolerance",
				logging.Int("span", i),
				logging.Float64("overlap", overlap),
			)
			span.StartTime = prevEnd
		}
		prevEnd = math.Max(prevEnd, span.EndTime)
		out = append(out, span)
	}
	return out, nil
}

func checkSlides(slides []lecture.Slide) error {
	for i, slide := range slides {
		if !lecture.ValidTime(slide.StartTime) || !lecture.ValidTime(slide.EndTime) {
			return services.Wrap(services.ErrValidation, Stage, "check slides",
				fmt.Sprintf("slide %d has invalid bounds %v-%v", slide.SlideIndex, slide.StartTime, slide.EndTime), nil)
		}
		if slide.StartTime > slide.EndTime {
			return &services.InvariantError{
				Subject: fmt.Sprintf("slide %d", slide.SlideIndex),
				Detail:  fmt.Sprintf("start %.3fs after end %.3fs", slide.StartTime, slide.EndTime),
			}
		}
		if i > 0 && slide.StartTime < slides[i-1].StartTime {
			return &services.OrderingError{
				Stream:   "slides",
				Index:    i,
				Previous: slides[i-1].StartTime,
				Current:  slide.StartTime,
			}
		}
	}
	return nil
}
