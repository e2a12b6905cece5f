package similarity_test

import (
	"image"
	"testing"

	"lectern/internal/lecture"
	"lectern/internal/similarity"
	"lectern/internal/testsupport"
)

func TestTextual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{name: "both empty", a: "", b: "  ", min: 1, max: 1},
		{name: "one empty", a: "Intro", b: "", min: 0, max: 0},
		{name: "case and whitespace", a: "Gradient  Descent\nBasics", b: "gradient descent basics", min: 1, max: 1},
		{name: "ocr typo", a: "Convolutional neural networks", b: "Convolutiona1 neural networks", min: 0.8, max: 0.99},
		{name: "different slide", a: "Intro", b: "Next Topic", min: 0, max: 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := similarity.Textual(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Fatalf("Textual(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
			}
			if back := similarity.Textual(tt.b, tt.a); back != got {
				t.Fatalf("Textual not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestVisualIdenticalAndNoisy(t *testing.T) {
	eval := similarity.Evaluator{}
	slide := testsupport.SlideImage(320, 180, testsupport.TextLines(4)...)

	if got := eval.Visual(slide, slide); got != 1 {
		t.Fatalf("identical images scored %v", got)
	}
	noisy := testsupport.NoisyCopy(slide, 3, 7)
	if got := eval.Visual(slide, noisy); got < 0.9 {
		t.Fatalf("compression noise scored %v, want >= 0.9", got)
	}
}

func TestVisualDetectsNewContent(t *testing.T) {
	eval := similarity.Evaluator{}
	base := testsupport.SlideImage(320, 180, testsupport.TextLines(2)...)
	diagram := testsupport.SlideImage(320, 180,
		image.Rect(30, 40, 120, 140),
		image.Rect(200, 40, 290, 140),
	)
	if got := eval.Visual(base, diagram); got > 0.5 {
		t.Fatalf("different content scored %v, want <= 0.5", got)
	}
	grown := testsupport.SlideImage(320, 180, testsupport.TextLines(4)...)
	if got := eval.Visual(base, grown); got >= 0.92 {
		t.Fatalf("slide with added lines scored %v, want < 0.92", got)
	}
}

func TestVisualBlankAndNil(t *testing.T) {
	eval := similarity.NewEvaluator(8, 0)
	blankA := testsupport.SlideImage(320, 180)
	blankB := testsupport.NoisyCopy(blankA, 2, 3)
	if got := eval.Visual(blankA, blankB); got != 1 {
		t.Fatalf("blank frames scored %v, want 1", got)
	}
	if got := eval.Visual(nil, nil); got != 1 {
		t.Fatalf("nil pair scored %v, want 1", got)
	}
	if got := eval.Visual(blankA, nil); got != 0 {
		t.Fatalf("nil vs image scored %v, want 0", got)
	}
}

func TestSimilarityDeterministic(t *testing.T) {
	eval := similarity.Evaluator{}
	a := lecture.FrameCandidate{Timestamp: 1, Image: testsupport.SlideImage(320, 180, testsupport.TextLines(3)...), ExtractedText: "Layer normalization"}
	b := lecture.FrameCandidate{Timestamp: 2, Image: testsupport.NoisyCopy(a.Image.(*image.Gray), 4, 11), ExtractedText: "layer  NORMALIZATION"}
	first := eval.Similarity(a, b)
	second := eval.Similarity(a, b)
	if first != second {
		t.Fatalf("scores differ between runs: %+v vs %+v", first, second)
	}
	if first.Textual <= 0.85 || first.Visual < 0.9 {
		t.Fatalf("expected near-duplicate scores, got %+v", first)
	}
}

func TestCompareMatchesSimilarity(t *testing.T) {
	eval := similarity.NewEvaluator(8, 0)
	slide := testsupport.SlideImage(320, 180, testsupport.TextLines(3)...)
	frames := []lecture.FrameCandidate{
		{Image: slide, ExtractedText: "Gradient descent"},
		{Image: testsupport.NoisyCopy(slide, 3, 5), ExtractedText: "gradient  DESCENT"},
		{Image: testsupport.SlideImage(320, 180, image.Rect(30, 40, 120, 140)), ExtractedText: ""},
		{ExtractedText: "Backpropagation"},
		{},
	}
	prepared := make([]similarity.Frame, len(frames))
	for i, f := range frames {
		prepared[i] = eval.Prepare(f)
	}
	for i := range frames {
		for j := range frames {
			want := eval.Similarity(frames[i], frames[j])
			got := eval.Compare(prepared[i], prepared[j])
			if got != want {
				t.Fatalf("pair (%d,%d): Compare %+v, Similarity %+v", i, j, got, want)
			}
			visual := eval.Visual(frames[i].Image, frames[j].Image)
			textual := similarity.Textual(frames[i].ExtractedText, frames[j].ExtractedText)
			if got.Visual != visual || got.Textual != textual {
				t.Fatalf("pair (%d,%d): Compare %+v, direct visual %v textual %v", i, j, got, visual, textual)
			}
		}
	}
}
