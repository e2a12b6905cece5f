package enrich_test

import (
	"context"
	"reflect"
	"slices"
	"testing"

	"lectern/internal/enrich"
	"lectern/internal/lecture"
	"lectern/internal/testsupport"
	"lectern/internal/textutil"
)

const (
	slideText      = "Neural network layer overview"
	transcriptText = "each layer applies a gradient update to the weights"
)

func textSlide() lecture.Slide {
	return lecture.Slide{
		SlideIndex:               0,
		ChapterName:              lecture.UnassignedChapter,
		ChapterSequence:          1,
		ExtractedText:            slideText,
		ContentType:              lecture.ContentText,
		ClassificationConfidence: 0.7,
		OCRConfidence:            0.9,
		StartTime:                0,
		EndTime:                  10,
	}
}

func rawSegment(text string) lecture.ContentSegment {
	return lecture.ContentSegment{
		SlideIndex:     0,
		StartTime:      1,
		EndTime:        6,
		TranscriptText: text,
		Keywords:       []string{},
		TechnicalTerms: []string{},
	}
}

func TestEnrichKeywordPartition(t *testing.T) {
	scorer := testsupport.TableScorer{
		slideText:      testsupport.Terms(0.8, "network", "layer"),
		transcriptText: testsupport.Terms(0.6, "layer", "gradient"),
	}
	e := enrich.New(scorer, nil)
	slide := textSlide()

	terms := e.ScoreSlide(context.Background(), slide, nil)
	got := e.Enrich(context.Background(), rawSegment(transcriptText), slide, terms, nil)

	if want := []string{"layer", "gradient"}; !reflect.DeepEqual(got.Keywords, want) {
		t.Fatalf("keywords = %v, want %v", got.Keywords, want)
	}
	if slices.Contains(got.Keywords, "network") {
		t.Fatal("slide-only keyword leaked into segment")
	}
	if got.Confidence.KeywordRelevance != 0.6 {
		t.Fatalf("keyword relevance = %v, want 0.6", got.Confidence.KeywordRelevance)
	}
	if len(got.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", got.Warnings)
	}
}

func TestEnrichTechnicalTermsAppearInTranscript(t *testing.T) {
	slide := textSlide()
	slide.ExtractedText = "TCP handshake and UDP datagrams"
	transcript := "The tcp handshake needs three packets."
	scorer := testsupport.TableScorer{
		slide.ExtractedText: {
			{Term: "TCP", Relevance: 0.9, Technical: true},
			{Term: "UDP", Relevance: 0.8, Technical: true},
			{Term: "handshake", Relevance: 0.5},
		},
		transcript: {
			{Term: "tcp handshake", Relevance: 0.9},
			{Term: "packets", Relevance: 0.4},
		},
	}
	e := enrich.New(scorer, nil)
	terms := e.ScoreSlide(context.Background(), slide, nil)
	got := e.Enrich(context.Background(), rawSegment(transcript), slide, terms, nil)

	if want := []string{"TCP"}; !reflect.DeepEqual(got.TechnicalTerms, want) {
		t.Fatalf("technical terms = %v, want %v", got.TechnicalTerms, want)
	}
	for _, term := range got.TechnicalTerms {
		if !textutil.ContainsFold(got.TranscriptText, term) {
			t.Fatalf("technical term %q not in transcript", term)
		}
	}
	if got.Confidence.TechnicalTerm != 0.5 {
		t.Fatalf("technical confidence = %v, want 0.5", got.Confidence.TechnicalTerm)
	}
}

func TestEnrichConfidences(t *testing.T) {
	tests := []struct {
		name           string
		content        lecture.ContentType
		text           string
		ocr            float64
		wantExtraction float64
	}{
		{name: "text uses ocr", content: lecture.ContentText, text: "some slide text here", ocr: 0.8, wantExtraction: 0.8},
		{name: "mixed uses ocr", content: lecture.ContentMixed, text: "diagram with caption", ocr: 0.6, wantExtraction: 0.6},
		{name: "blank diagram is certain", content: lecture.ContentDiagram, text: "", ocr: 0.1, wantExtraction: 1},
		{name: "labelled diagram uses ocr", content: lecture.ContentDiagram, text: "x", ocr: 0.3, wantExtraction: 0.3},
		{name: "ocr clamped", content: lecture.ContentText, text: "some slide text here", ocr: 1.4, wantExtraction: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slide := textSlide()
			slide.ContentType = tt.content
			slide.ExtractedText = tt.text
			slide.OCRConfidence = tt.ocr
			slide.ClassificationConfidence = 0.55

			e := enrich.New(testsupport.TableScorer{}, nil)
			got := e.Enrich(context.Background(), rawSegment(""), slide, enrich.SlideTerms{}, nil)

			if got.Confidence.Extraction != tt.wantExtraction {
				t.Fatalf("extraction = %v, want %v", got.Confidence.Extraction, tt.wantExtraction)
			}
			if got.Confidence.ContentType != 0.55 {
				t.Fatalf("content type confidence = %v", got.Confidence.ContentType)
			}
			if got.Confidence.KeywordRelevance != 0 || got.Confidence.TechnicalTerm != 0 {
				t.Fatalf("expected zero keyword confidences, got %+v", got.Confidence)
			}
			if got.Keywords == nil || got.TechnicalTerms == nil {
				t.Fatal("expected empty, non-nil keyword slices")
			}
		})
	}
}

func TestEnrichScorerUnavailable(t *testing.T) {
	e := enrich.New(testsupport.FailingScorer(), nil)
	slide := textSlide()

	terms := e.ScoreSlide(context.Background(), slide, nil)
	if len(terms.Keywords) != 0 || len(terms.Technical) != 0 {
		t.Fatalf("expected empty slide terms, got %+v", terms)
	}
	got := e.Enrich(context.Background(), rawSegment(transcriptText), slide, terms, nil)

	if len(got.Keywords) != 0 || len(got.TechnicalTerms) != 0 {
		t.Fatalf("expected empty sets, got %v / %v", got.Keywords, got.TechnicalTerms)
	}
	if want := []string{lecture.WarnTermScorerUnavailable}; !reflect.DeepEqual(got.Warnings, want) {
		t.Fatalf("warnings = %v, want %v", got.Warnings, want)
	}
	if got.Confidence.Extraction != 0.9 {
		t.Fatalf("extraction confidence should survive scorer failure, got %v", got.Confidence.Extraction)
	}
}

func TestEnrichNilScorerDegrades(t *testing.T) {
	e := enrich.New(nil, nil)
	slide := textSlide()
	got := e.Enrich(context.Background(), rawSegment(transcriptText), slide, e.ScoreSlide(context.Background(), slide, nil), nil)
	if !slices.Contains(got.Warnings, lecture.WarnTermScorerUnavailable) {
		t.Fatalf("expected scorer warning, got %v", got.Warnings)
	}
}

func TestKnowledgeBasePromotesAndRecords(t *testing.T) {
	slide := textSlide()
	slide.ExtractedText = "Kubernetes pods and services"
	transcript := "pods are scheduled by kubernetes onto nodes"
	scorer := testsupport.TableScorer{
		slide.ExtractedText: {
			{Term: "kubernetes", Relevance: 0.7},
			{Term: "pods", Relevance: 0.6},
			{Term: "services", Relevance: 0.5},
		},
		transcript: testsupport.Terms(0.5, "pods", "kubernetes", "nodes"),
	}
	kb := testsupport.NewMemoryKnowledge("Kubernetes", "services")
	e := enrich.New(scorer, nil)

	terms := e.ScoreSlide(context.Background(), slide, kb)
	if want := []string{"kubernetes", "services"}; !reflect.DeepEqual(terms.Technical, want) {
		t.Fatalf("slide technical = %v, want %v", terms.Technical, want)
	}
	got := e.Enrich(context.Background(), rawSegment(transcript), slide, terms, kb)

	if want := []string{"kubernetes"}; !reflect.DeepEqual(got.TechnicalTerms, want) {
		t.Fatalf("technical terms = %v, want %v", got.TechnicalTerms, want)
	}
	if kb.Count("kubernetes") != 2 {
		t.Fatalf("expected kubernetes recorded once more, count=%d", kb.Count("kubernetes"))
	}
	if kb.Count("services") != 1 {
		t.Fatalf("services should not be recorded, count=%d", kb.Count("services"))
	}
}

func TestKnowledgeBaseFailuresBecomeWarnings(t *testing.T) {
	slide := textSlide()
	slide.ExtractedText = "GPU kernels"
	transcript := "the gpu runs kernels"
	scorer := testsupport.TableScorer{
		slide.ExtractedText: {{Term: "GPU", Relevance: 0.9, Technical: true}, {Term: "kernels", Relevance: 0.4}},
		transcript:          testsupport.Terms(0.5, "gpu", "kernels"),
	}
	kb := testsupport.NewMemoryKnowledge()
	kb.FailOn = "GPU"
	kb.FailLookup = true
	e := enrich.New(scorer, nil)

	terms := e.ScoreSlide(context.Background(), slide, kb)
	if !slices.Contains(terms.Warnings, lecture.WarnKnowledgeBaseUnavailable) {
		t.Fatalf("expected lookup warning, got %v", terms.Warnings)
	}
	got := e.Enrich(context.Background(), rawSegment(transcript), slide, terms, kb)

	if want := []string{"GPU"}; !reflect.DeepEqual(got.TechnicalTerms, want) {
		t.Fatalf("technical terms = %v, want %v", got.TechnicalTerms, want)
	}
	if want := []string{lecture.WarnKnowledgeBaseUnavailable}; !reflect.DeepEqual(got.Warnings, want) {
		t.Fatalf("warnings = %v, want %v", got.Warnings, want)
	}
}

func TestEnrichAllScoresEachSlideOnce(t *testing.T) {
	var slideCalls int
	scorer := lecture.TermScorerFunc(func(_ context.Context, text string) ([]lecture.ScoredTerm, error) {
		if text == slideText {
			slideCalls++
			return testsupport.Terms(0.8, "layer"), nil
		}
		return testsupport.Terms(0.5, "layer"), nil
	})
	e := enrich.New(scorer, nil)
	slides := []lecture.Slide{textSlide()}
	segments := []lecture.ContentSegment{rawSegment("first layer"), rawSegment("second layer")}
	segments[1].SegmentIndex = 1

	got, err := e.EnrichAll(context.Background(), slides, segments, nil)
	if err != nil {
		t.Fatalf("EnrichAll: %v", err)
	}
	if slideCalls != 1 {
		t.Fatalf("slide scored %d times, want 1", slideCalls)
	}
	if len(got) != 2 || got[1].SegmentIndex != 1 {
		t.Fatalf("unexpected segments %+v", got)
	}
}

func TestEnrichAllRejectsDanglingSegment(t *testing.T) {
	e := enrich.New(testsupport.TableScorer{}, nil)
	seg := rawSegment("")
	seg.SlideIndex = 3
	if _, err := e.EnrichAll(context.Background(), []lecture.Slide{textSlide()}, []lecture.ContentSegment{seg}, nil); err == nil {
		t.Fatal("expected invariant error")
	}
}
