package pipeline_test

import (
	"context"
	"errors"
	"image"
	"reflect"
	"testing"

	"lectern/internal/lecture"
	"lectern/internal/pipeline"
	"lectern/internal/services"
	"lectern/internal/similarity"
	"lectern/internal/testsupport"
	"lectern/internal/textutil"
)

const gradientText = "Gradient descent updates the weights"

func lectureInput() pipeline.Input {
	textSlide := testsupport.SlideImage(320, 180, testsupport.TextLines(4)...)
	otherSlide := testsupport.SlideImage(320, 180, testsupport.TextLines(2)...)
	diagram := testsupport.SlideImage(320, 180, image.Rect(30, 40, 120, 140), image.Rect(200, 40, 290, 140))
	blank := testsupport.SlideImage(320, 180)
	frame := func(ts float64, img image.Image, text string) lecture.FrameCandidate {
		return lecture.FrameCandidate{Timestamp: ts, Image: img, ExtractedText: text, OCRConfidence: 0.9}
	}
	return pipeline.Input{
		VideoID: "lec-01",
		Title:   "Optimisation basics",
		Frames: []lecture.FrameCandidate{
			frame(0, textSlide, gradientText),
			frame(1.5, testsupport.NoisyCopy(textSlide, 2, 1), gradientText),
			frame(3, blank, ""),
			frame(4.5, otherSlide, "Backpropagation computes partial derivatives"),
			frame(6, otherSlide, "Backpropagation computes partial derivative"),
			frame(9, diagram, ""),
			frame(10, diagram, ""),
			frame(12, textSlide, gradientText),
		},
		Transcript: []lecture.TranscriptSpan{
			{StartTime: 0.5, EndTime: 1.4, Text: "we start with gradient descent"},
			{StartTime: 5, EndTime: 5.9, Text: "backpropagation applies the chain rule to every layer"},
			{StartTime: 9.2, EndTime: 9.8, Text: "this diagram shows the neural network"},
			{StartTime: 12, EndTime: 13, Text: "recap of gradient descent"},
		},
		Chapters: []lecture.Chapter{
			{Name: "Introduction", StartTime: 0, EndTime: 3},
			{Name: "Gradients", StartTime: 3, EndTime: 60},
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	engine, err := pipeline.NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	kb := testsupport.MustOpenKnowledge(t, cfg)

	result, err := engine.Run(context.Background(), lectureInput(), kb)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Slides) != 4 {
		t.Fatalf("expected 4 slides, got %d", len(result.Slides))
	}
	wantTypes := []lecture.ContentType{lecture.ContentText, lecture.ContentText, lecture.ContentDiagram, lecture.ContentText}
	wantChapters := []string{lecture.UnassignedChapter, "Gradients", "Gradients", "Gradients"}
	wantSequence := []int{1, 1, 2, 3}
	for i, slide := range result.Slides {
		if slide.ContentType != wantTypes[i] {
			t.Errorf("slide %d content type = %v, want %v", i, slide.ContentType, wantTypes[i])
		}
		if slide.ChapterName != wantChapters[i] || slide.ChapterSequence != wantSequence[i] {
			t.Errorf("slide %d chapter = %s/%d, want %s/%d", i, slide.ChapterName, slide.ChapterSequence, wantChapters[i], wantSequence[i])
		}
	}

	covered := map[int]bool{}
	for _, seg := range result.Segments {
		covered[seg.SlideIndex] = true
		for _, term := range seg.TechnicalTerms {
			if !textutil.ContainsFold(seg.TranscriptText, term) {
				t.Errorf("technical term %q missing from transcript %q", term, seg.TranscriptText)
			}
		}
		if seg.Keywords == nil || seg.TechnicalTerms == nil {
			t.Errorf("segment %d/%d has nil keyword sets", seg.SlideIndex, seg.SegmentIndex)
		}
	}
	for i := range result.Slides {
		if !covered[i] {
			t.Errorf("slide %d has no segment", i)
		}
	}

	if result.Summary.SlideCount != 4 || result.Summary.SegmentCount != len(result.Segments) {
		t.Fatalf("unexpected summary counts %+v", result.Summary)
	}
	if result.Summary.ContentTypes["DIAGRAM"] != 1 {
		t.Fatalf("expected one diagram segment, got %v", result.Summary.ContentTypes)
	}

	known, err := kb.Lookup(context.Background(), "gradient descent")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !known {
		t.Fatal("expected gradient descent to be learned")
	}
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	engine, err := pipeline.NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	first, err := engine.Run(context.Background(), lectureInput(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := engine.Run(context.Background(), lectureInput(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(first.Segments, second.Segments) {
		t.Fatal("segments differ between runs")
	}
	if !reflect.DeepEqual(first.Summary, second.Summary) {
		t.Fatal("summaries differ between runs")
	}
}

func TestRunEmptyInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	engine, err := pipeline.NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	result, err := engine.Run(context.Background(), pipeline.Input{VideoID: "empty"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Slides) != 0 || len(result.Segments) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*pipeline.Input)
		want   error
	}{
		{
			name:   "missing video id",
			mutate: func(in *pipeline.Input) { in.VideoID = " " },
			want:   services.ErrValidation,
		},
		{
			name: "frames out of order",
			mutate: func(in *pipeline.Input) {
				in.Frames[1], in.Frames[2] = in.Frames[2], in.Frames[1]
				in.Frames[1].Timestamp, in.Frames[2].Timestamp = 3, 1.5
			},
			want: services.ErrOrdering,
		},
		{
			name: "overlapping chapters",
			mutate: func(in *pipeline.Input) {
				in.Chapters[1].StartTime = 2
			},
			want: services.ErrOrdering,
		},
		{
			name: "transcript out of order",
			mutate: func(in *pipeline.Input) {
				in.Transcript[0], in.Transcript[1] = in.Transcript[1], in.Transcript[0]
			},
			want: services.ErrOrdering,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := pipeline.New(pipeline.Options{
				Settings:   lecture.DefaultSettings(),
				Evaluator:  similarity.NewEvaluator(16, 8),
				Classifier: &testsupport.StaticClassifier{},
				Scorer:     testsupport.TableScorer{},
			})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			in := lectureInput()
			tt.mutate(&in)
			_, err = engine.Run(context.Background(), in, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !services.IsFatal(err) {
				t.Fatalf("expected fatal error, got %v", err)
			}
		})
	}
}

func TestRunDegradesWithoutCollaborators(t *testing.T) {
	engine, err := pipeline.New(pipeline.Options{
		Settings:   lecture.DefaultSettings(),
		Evaluator:  similarity.NewEvaluator(16, 8),
		Classifier: testsupport.FailingClassifier(),
		Scorer:     testsupport.FailingScorer(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := engine.Run(context.Background(), lectureInput(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Slides) == 0 {
		t.Fatal("expected slides despite failing collaborators")
	}
	for _, seg := range result.Segments {
		if len(seg.Keywords) != 0 {
			t.Fatalf("expected no keywords, got %v", seg.Keywords)
		}
	}
	if result.Summary.Warnings == 0 {
		t.Fatal("expected warnings to be counted")
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	settings := lecture.DefaultSettings()
	settings.IntroOutroPatterns = []string{"("}
	if _, err := pipeline.New(pipeline.Options{Settings: settings}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
