// Package enrich fills in the keyword sets, technical terms and confidence
// scores of raw content segments.
//
// The term scorer runs once per slide (over its OCR text) and once per
// segment (over its transcript). Slide technical terms come from the scorer's
// technical flag plus any slide keyword the knowledge base already knows.
// Each technical term confirmed in a segment transcript is recorded back
// into the knowledge base. Scorer and knowledge base failures never abort a
// run; they surface as warning flags on the affected segments.
package enrich

import (
	"context"
	"log/slog"
	"strings"

	"lectern/internal/lecture"
	"lectern/internal/logging"
	"lectern/internal/segment"
	"lectern/internal/services"
	"lectern/internal/textutil"
)

// Stage is the pipeline stage name used for logging and error context.
const Stage = "enrich"

// Enricher computes per-segment annotations.
type Enricher struct {
	scorer lecture.TermScorer
	logger *slog.Logger
}

// New builds an Enricher. A nil scorer behaves like an unavailable one.
func New(scorer lecture.TermScorer, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Enricher{scorer: scorer, logger: logger}
}

// SlideTerms holds the per-slide scoring results shared by every segment of
// that slide.
type SlideTerms struct {
	Keywords  []lecture.ScoredTerm
	Technical []string
	Warnings  []string
}

// ScoreSlide scores the slide's OCR text. kb may be nil.
func (e *Enricher) ScoreSlide(ctx context.Context, slide lecture.Slide, kb lecture.KnowledgeBase) SlideTerms {
	logger := logging.WithContext(ctx, e.logger)
	var out SlideTerms
	if strings.TrimSpace(slide.ExtractedText) == "" {
		return out
	}

	terms, err := e.score(ctx, slide.ExtractedText)
	if err != nil {
		logging.WarnWithContext(logger, "slide term scoring unavailable", lecture.WarnTermScorerUnavailable,
			logging.Int("slide_index", slide.SlideIndex),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the term scorer backend"),
			logging.String(logging.FieldImpact, "slide keywords and technical terms left empty"),
		)
		out.Warnings = appendWarning(out.Warnings, lecture.WarnTermScorerUnavailable)
		return out
	}
	out.Keywords = terms

	seen := make(map[string]struct{})
	addTechnical := func(term string) {
		key := textutil.Normalize(term)
		if _, dup := seen[key]; dup || key == "" {
			return
		}
		seen[key] = struct{}{}
		out.Technical = append(out.Technical, term)
	}
	for _, term := range terms {
		if term.Technical {
			addTechnical(term.Term)
		}
	}
	if kb == nil {
		return out
	}
	for _, term := range terms {
		if term.Technical {
			continue
		}
		known, err := kb.Lookup(ctx, term.Term)
		if err != nil {
			logging.WarnWithContext(logger, "knowledge base lookup failed", lecture.WarnKnowledgeBaseUnavailable,
				logging.String("term", term.Term),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the knowledge base file"),
				logging.String(logging.FieldImpact, "learned terms not applied to this slide"),
			)
			out.Warnings = appendWarning(out.Warnings, lecture.WarnKnowledgeBaseUnavailable)
			break
		}
		if known {
			logging.Decision(logger, "known term promoted", "technical_term", "promoted", "present in knowledge base",
				logging.Int("slide_index", slide.SlideIndex),
				logging.String("term", term.Term),
			)
			addTechnical(term.Term)
		}
	}
	return out
}

// Enrich returns seg with keywords, technical terms and confidences filled
// in. slide must be the segment's slide and terms its ScoreSlide result. kb
// may be nil.
func (e *Enricher) Enrich(ctx context.Context, seg lecture.ContentSegment, slide lecture.Slide, terms SlideTerms, kb lecture.KnowledgeBase) lecture.ContentSegment {
	logger := logging.WithContext(ctx, e.logger)
	out := seg
	out.Warnings = nil
	for _, w := range seg.Warnings {
		out.Warnings = appendWarning(out.Warnings, w)
	}
	for _, w := range terms.Warnings {
		out.Warnings = appendWarning(out.Warnings, w)
	}

	var raw []lecture.ScoredTerm
	if strings.TrimSpace(seg.TranscriptText) != "" {
		scored, err := e.score(ctx, seg.TranscriptText)
		if err != nil {
			logging.WarnWithContext(logger, "segment term scoring unavailable", lecture.WarnTermScorerUnavailable,
				logging.Int("slide_index", seg.SlideIndex),
				logging.Int("segment_index", seg.SegmentIndex),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the term scorer backend"),
				logging.String(logging.FieldImpact, "segment keywords left empty"),
			)
			out.Warnings = appendWarning(out.Warnings, lecture.WarnTermScorerUnavailable)
		} else {
			raw = scored
		}
	}

	keywords := segment.MergeKeywords(terms.Keywords, raw)
	out.Keywords = make([]string, 0, len(keywords))
	relevance := 0.0
	for _, term := range keywords {
		out.Keywords = append(out.Keywords, term.Term)
		relevance += clamp01(term.Relevance)
	}
	out.TechnicalTerms = segment.FilterTechnical(terms.Technical, seg.TranscriptText)

	out.Confidence = lecture.Confidence{
		ContentType:   clamp01(slide.ClassificationConfidence),
		Extraction:    extractionConfidence(slide),
		TechnicalTerm: clamp01(float64(len(out.TechnicalTerms)) / float64(max(1, len(keywords)))),
	}
	if len(keywords) > 0 {
		out.Confidence.KeywordRelevance = clamp01(relevance / float64(len(keywords)))
	}

	if kb != nil {
		for _, term := range out.TechnicalTerms {
			if err := kb.Record(ctx, term); err != nil {
				logging.WarnWithContext(logger, "knowledge base record failed", lecture.WarnKnowledgeBaseUnavailable,
					logging.String("term", term),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the knowledge base file"),
					logging.String(logging.FieldImpact, "term not learned for future runs"),
				)
				out.Warnings = appendWarning(out.Warnings, lecture.WarnKnowledgeBaseUnavailable)
			}
		}
	}
	return out
}

// EnrichAll scores each slide once and enriches its segments. Segments must
// reference slides by position.
func (e *Enricher) EnrichAll(ctx context.Context, slides []lecture.Slide, segments []lecture.ContentSegment, kb lecture.KnowledgeBase) ([]lecture.ContentSegment, error) {
	out := make([]lecture.ContentSegment, 0, len(segments))
	cache := make(map[int]SlideTerms, len(slides))
	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if seg.SlideIndex < 0 || seg.SlideIndex >= len(slides) || slides[seg.SlideIndex].SlideIndex != seg.SlideIndex {
			return nil, &services.InvariantError{
				Subject: "segment",
				Detail:  "references a slide outside the slide list",
			}
		}
		slide := slides[seg.SlideIndex]
		terms, ok := cache[seg.SlideIndex]
		if !ok {
			terms = e.ScoreSlide(ctx, slide, kb)
			cache[seg.SlideIndex] = terms
		}
		out = append(out, e.Enrich(ctx, seg, slide, terms, kb))
	}
	e.logger.Debug("segments enriched", logging.Int("segments", len(out)), logging.Int("slides", len(cache)))
	return out, nil
}

func (e *Enricher) score(ctx context.Context, text string) ([]lecture.ScoredTerm, error) {
	if e.scorer == nil {
		return nil, services.Wrap(services.ErrUnavailable, Stage, "score terms", "no term scorer configured", nil)
	}
	terms, err := e.scorer.ScoreTerms(ctx, text)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, Stage, "score terms", "term scorer failed", err)
	}
	return terms, nil
}

// extractionConfidence is 1 for a text-free diagram, otherwise the OCR
// confidence of the representative frame.
func extractionConfidence(slide lecture.Slide) float64 {
	switch slide.ContentType {
	case lecture.ContentDiagram:
		if strings.TrimSpace(slide.ExtractedText) == "" {
			return 1
		}
		return clamp01(slide.OCRConfidence)
	case lecture.ContentText, lecture.ContentMixed:
		return clamp01(slide.OCRConfidence)
	default:
		return 0
	}
}

func appendWarning(warnings []string, flag string) []string {
	for _, w := range warnings {
		if w == flag {
			return warnings
		}
	}
	return append(warnings, flag)
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
