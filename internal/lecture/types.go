package lecture

import (
	"fmt"
	"image"
	"math"

	"lectern/internal/textutil"
)

// UnassignedChapter names slides that fall outside every eligible chapter.
const UnassignedChapter = "Unassigned"

// FrameCandidate is one sampled instant produced by the sampler and OCR stages.
type FrameCandidate struct {
	Timestamp float64     `json:"timestamp"`
	Image     image.Image `json:"-"`
	ImagePath string      `json:"image_path,omitempty"`
	// ImageDigest is the sha256 of the encoded image file, when loaded from one.
	ImageDigest   string  `json:"image_digest,omitempty"`
	ExtractedText string  `json:"extracted_text"`
	OCRConfidence float64 `json:"ocr_confidence"`
}

// Slide is a canonical, deduplicated visual unit.
type Slide struct {
	SlideIndex          int         `json:"slide_index"`
	ChapterName         string      `json:"chapter_name"`
	ChapterSequence     int         `json:"chapter_sequence"`
	Name                string      `json:"name,omitempty"`
	RepresentativeImage image.Image `json:"-"`
	RepresentativePath  string      `json:"representative_image,omitempty"`
	ExtractedText       string      `json:"extracted_text"`
	ContentType         ContentType `json:"content_type"`
	// DiagramType is set for DIAGRAM and MIXED slides.
	DiagramType              DiagramType `json:"diagram_type,omitempty"`
	ClassificationConfidence float64     `json:"classification_confidence"`
	OCRConfidence            float64     `json:"ocr_confidence"`
	StartTime                float64     `json:"start_time"`
	EndTime                  float64     `json:"end_time"`
	FrameCount               int         `json:"frame_count"`
	Warnings                 []string    `json:"warnings,omitempty"`
}

// Duration returns the covered time in seconds.
func (s Slide) Duration() float64 {
	return s.EndTime - s.StartTime
}

// DisplayName renders the file-safe "<chapter>_<sequence>" label used for naming
// slide artefacts.
func (s Slide) DisplayName() string {
	chapter := textutil.SanitizeFileName(s.ChapterName)
	if chapter == "" {
		chapter = UnassignedChapter
	}
	return fmt.Sprintf("%s_%03d", chapter, s.ChapterSequence)
}

// TranscriptSpan is one timestamped run of transcript text.
type TranscriptSpan struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
}

// ValidTime reports whether t is a usable media timestamp: finite and not
// negative. NaN fails every ordering comparison, so it is rejected here.
func ValidTime(t float64) bool {
	return t >= 0 && !math.IsInf(t, 1)
}

// Chapter is an externally supplied named time range.
type Chapter struct {
	Name      string  `json:"name"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Duration returns the chapter length in seconds.
func (c Chapter) Duration() float64 {
	return c.EndTime - c.StartTime
}

// Contains reports whether t falls inside the chapter. When closed is true the
// end bound is inclusive.
func (c Chapter) Contains(t float64, closed bool) bool {
	if t < c.StartTime {
		return false
	}
	if closed {
		return t <= c.EndTime
	}
	return t < c.EndTime
}

// Confidence holds the four independent segment sub-scores.
type Confidence struct {
	ContentType      float64 `json:"content_type"`
	Extraction       float64 `json:"extraction"`
	KeywordRelevance float64 `json:"keyword_relevance"`
	TechnicalTerm    float64 `json:"technical_term"`
}

// ContentSegment pairs a slide with one window of its transcript.
type ContentSegment struct {
	SlideIndex     int        `json:"slide_index"`
	SegmentIndex   int        `json:"segment_index"`
	StartTime      float64    `json:"start_time"`
	EndTime        float64    `json:"end_time"`
	TranscriptText string     `json:"transcript_text"`
	Keywords       []string   `json:"keywords"`
	TechnicalTerms []string   `json:"technical_terms"`
	Confidence     Confidence `json:"confidence"`
	Warnings       []string   `json:"warnings,omitempty"`
}

// ScoredTerm is one ranked term returned by a TermScorer.
type ScoredTerm struct {
	Term      string  `json:"term"`
	Relevance float64 `json:"relevance"`
	Technical bool    `json:"technical,omitempty"`
}

// Warning flags attached to slides and segments when a collaborator degrades.
const (
	WarnClassifierUnavailable    = "classifier_unavailable"
	WarnTermScorerUnavailable    = "term_scorer_unavailable"
	WarnKnowledgeBaseUnavailable = "knowledge_base_unavailable"
)
