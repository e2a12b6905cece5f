// Package chapters assigns deduplicated slides to externally supplied chapter
// ranges and numbers them within each chapter.
package chapters

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"lectern/internal/lecture"
	"lectern/internal/logging"
	"lectern/internal/services"
)

// Stage is the pipeline stage name used for logging and error context.
const Stage = "chapters"

// Aligner maps slides onto chapters.
type Aligner struct {
	minSeconds float64
	patterns   []*regexp.Regexp
	logger     *slog.Logger
}

// NewAligner compiles the intro/outro patterns from settings.
func NewAligner(settings lecture.Settings, logger *slog.Logger) (*Aligner, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	patterns := make([]*regexp.Regexp, 0, len(settings.IntroOutroPatterns))
	for _, raw := range settings.IntroOutroPatterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, Stage, "compile pattern", fmt.Sprintf("intro/outro pattern %q", raw), err)
		}
		patterns = append(patterns, re)
	}
	return &Aligner{
		minSeconds: settings.IntroOutroMinSeconds,
		patterns:   patterns,
		logger:     logger,
	}, nil
}

// Excluded reports, per chapter, whether it is treated as intro/outro: its
// name matches a pattern, or it is the first or last chapter and shorter than
// the configured minimum.
func (a *Aligner) Excluded(chapters []lecture.Chapter) []bool {
	out := make([]bool, len(chapters))
	last := len(chapters) - 1
	for i, ch := range chapters {
		if a.matchesPattern(ch.Name) {
			out[i] = true
			continue
		}
		if (i == 0 || i == last) && ch.Duration() < a.minSeconds {
			out[i] = true
		}
	}
	return out
}

func (a *Aligner) matchesPattern(name string) bool {
	for _, re := range a.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Align returns a copy of slides with chapter name, chapter sequence and
// display name populated. A slide belongs to the chapter whose [start, end)
// range holds its start time; the last chapter's end is inclusive. Slides in
// intro/outro chapters or outside every chapter become "Unassigned".
func (a *Aligner) Align(ctx context.Context, slides []lecture.Slide, chapters []lecture.Chapter) ([]lecture.Slide, error) {
	if err := checkChapters(chapters); err != nil {
		return nil, err
	}
	if err := checkSlides(slides); err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, a.logger)

	excluded := a.Excluded(chapters)
	for i, ch := range chapters {
		if excluded[i] {
			logging.Decision(logger, "chapter excluded from assignment", "chapter_intro_outro", "excluded", "intro or outro",
				logging.String("chapter", ch.Name),
				logging.Float64("duration", ch.Duration()),
			)
		}
	}

	out := make([]lecture.Slide, len(slides))
	sequence := make(map[string]int)
	unassigned := 0
	for i, slide := range slides {
		name := lecture.UnassignedChapter
		if idx := locate(chapters, slide.StartTime); idx >= 0 && !excluded[idx] {
			name = strings.TrimSpace(chapters[idx].Name)
			if name == "" {
				name = lecture.UnassignedChapter
			}
		}
		if name == lecture.UnassignedChapter {
			unassigned++
		}
		sequence[name]++
		slide.ChapterName = name
		slide.ChapterSequence = sequence[name]
		slide.Name = slide.DisplayName()
		out[i] = slide
	}

	logger.Info("slides aligned to chapters",
		logging.Int("slides", len(slides)),
		logging.Int("chapters", len(chapters)),
		logging.Int("unassigned", unassigned),
	)
	return out, nil
}

func locate(chapters []lecture.Chapter, t float64) int {
	last := len(chapters) - 1
	for i, ch := range chapters {
		if ch.Contains(t, i == last) {
			return i
		}
	}
	return -1
}

func checkChapters(chapters []lecture.Chapter) error {
	for i, ch := range chapters {
		if !lecture.ValidTime(ch.StartTime) || !lecture.ValidTime(ch.EndTime) || ch.EndTime < ch.StartTime {
			return services.Wrap(services.ErrValidation, Stage, "check chapters",
				fmt.Sprintf("chapter %d %q has invalid range %v-%v", i, ch.Name, ch.StartTime, ch.EndTime), nil)
		}
		if i > 0 && ch.StartTime < chapters[i-1].EndTime {
			return &services.OrderingError{
				Stream:   "chapters",
				Index:    i,
				Previous: chapters[i-1].EndTime,
				Current:  ch.StartTime,
			}
		}
	}
	return nil
}

func checkSlides(slides []lecture.Slide) error {
	for i := range slides {
		if !lecture.ValidTime(slides[i].StartTime) || !lecture.ValidTime(slides[i].EndTime) {
			return services.Wrap(services.ErrValidation, Stage, "check slides",
				fmt.Sprintf("slide %d has invalid bounds %v-%v", slides[i].SlideIndex, slides[i].StartTime, slides[i].EndTime), nil)
		}
		if i > 0 && slides[i].StartTime < slides[i-1].StartTime {
			return &services.OrderingError{
				Stream:   "slides",
				Index:    i,
				Previous: slides[i-1].StartTime,
				Current:  slides[i].StartTime,
			}
		}
	}
	return nil
}
