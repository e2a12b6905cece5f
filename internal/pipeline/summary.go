package pipeline

import (
	"sort"
	"strings"

	"lectern/internal/lecture"
	"lectern/internal/termscore"
	"lectern/internal/textutil"
)

const mainTopicLimit = 10

// Topic is one keyword ranked by how many segments carry it.
type Topic struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Summary aggregates one video's results.
type Summary struct {
	SlideCount   int            `json:"slide_count"`
	SegmentCount int            `json:"segment_count"`
	ContentTypes map[string]int `json:"content_types"`
	// ChapterCounts is the number of slides per chapter name.
	ChapterCounts  map[string]int `json:"chapter_counts"`
	MainTopics     []Topic        `json:"main_topics"`
	Keywords       []string       `json:"keywords"`
	TechnicalTerms []string       `json:"technical_terms"`
	// Domains scores the video's slide and transcript text per technical
	// domain; PrimaryDomain is empty when no domain indicator occurs.
	Domains       map[string]float64 `json:"domains"`
	PrimaryDomain string             `json:"primary_domain,omitempty"`
	Warnings      int                `json:"warnings"`
}

// Summarize builds the per-video summary. Content types are counted per
// segment using the segment's slide.
func Summarize(slides []lecture.Slide, segments []lecture.ContentSegment) Summary {
	s := Summary{
		SlideCount:     len(slides),
		SegmentCount:   len(segments),
		ContentTypes:   map[string]int{},
		ChapterCounts:  map[string]int{},
		MainTopics:     []Topic{},
		Keywords:       []string{},
		TechnicalTerms: []string{},
	}
	var corpus strings.Builder
	for _, slide := range slides {
		s.ChapterCounts[slide.ChapterName]++
		s.Warnings += len(slide.Warnings)
		corpus.WriteString(slide.ExtractedText)
		corpus.WriteByte('\n')
	}

	freq := map[string]int{}
	spelling := map[string]string{}
	technical := map[string]string{}
	for _, seg := range segments {
		if seg.SlideIndex >= 0 && seg.SlideIndex < len(slides) {
			s.ContentTypes[slides[seg.SlideIndex].ContentType.String()]++
		}
		s.Warnings += len(seg.Warnings)
		corpus.WriteString(seg.TranscriptText)
		corpus.WriteByte('\n')
		for _, kw := range seg.Keywords {
			key := textutil.Normalize(kw)
			if _, ok := spelling[key]; !ok {
				spelling[key] = kw
			}
			freq[key]++
		}
		for _, term := range seg.TechnicalTerms {
			key := textutil.Normalize(term)
			if _, ok := technical[key]; !ok {
				technical[key] = term
			}
		}
	}

	for key, count := range freq {
		s.MainTopics = append(s.MainTopics, Topic{Term: spelling[key], Count: count})
		s.Keywords = append(s.Keywords, spelling[key])
	}
	sort.Slice(s.MainTopics, func(i, j int) bool {
		if s.MainTopics[i].Count != s.MainTopics[j].Count {
			return s.MainTopics[i].Count > s.MainTopics[j].Count
		}
		return s.MainTopics[i].Term < s.MainTopics[j].Term
	})
	if len(s.MainTopics) > mainTopicLimit {
		s.MainTopics = s.MainTopics[:mainTopicLimit]
	}
	sort.Strings(s.Keywords)
	for _, term := range technical {
		s.TechnicalTerms = append(s.TechnicalTerms, term)
	}
	sort.Strings(s.TechnicalTerms)
	s.Domains = termscore.ClassifyDomains(corpus.String())
	s.PrimaryDomain = termscore.PrimaryDomain(s.Domains)
	return s
}
