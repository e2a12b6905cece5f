package chapters_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"lectern/internal/chapters"
	"lectern/internal/lecture"
	"lectern/internal/services"
)

func slidesAt(times ...float64) []lecture.Slide {
	out := make([]lecture.Slide, len(times))
	for i, ts := range times {
		out[i] = lecture.Slide{SlideIndex: i, StartTime: ts, EndTime: ts + 1, ChapterName: lecture.UnassignedChapter}
	}
	return out
}

func newAligner(t *testing.T) *chapters.Aligner {
	t.Helper()
	a, err := chapters.NewAligner(lecture.DefaultSettings(), nil)
	if err != nil {
		t.Fatalf("NewAligner: %v", err)
	}
	return a
}

func TestAlignAssignsChaptersAndSequences(t *testing.T) {
	chs := []lecture.Chapter{
		{Name: "Welcome", StartTime: 0, EndTime: 60},
		{Name: "Linear Models", StartTime: 60, EndTime: 300},
		{Name: "Neural Nets", StartTime: 300, EndTime: 600},
	}
	slides := slidesAt(5, 59.9, 60, 120, 300, 600, 700)

	got, err := newAligner(t).Align(context.Background(), slides, chs)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	want := []struct {
		chapter string
		seq     int
		name    string
	}{
		{"Welcome", 1, "Welcome_001"},
		{"Welcome", 2, "Welcome_002"},
		{"Linear Models", 1, "Linear_Models_001"},
		{"Linear Models", 2, "Linear_Models_002"},
		{"Neural Nets", 1, "Neural_Nets_001"},
		{"Neural Nets", 2, "Neural_Nets_002"},
		{lecture.UnassignedChapter, 1, "Unassigned_001"},
	}
	for i, w := range want {
		if got[i].ChapterName != w.chapter || got[i].ChapterSequence != w.seq || got[i].Name != w.name {
			t.Fatalf("slide %d = (%q, %d, %q), want (%q, %d, %q)", i,
				got[i].ChapterName, got[i].ChapterSequence, got[i].Name, w.chapter, w.seq, w.name)
		}
	}
	if slides[0].ChapterSequence != 0 {
		t.Fatal("Align must not mutate its input")
	}
}

func TestAlignIntroOutroChaptersBecomeUnassigned(t *testing.T) {
	chs := []lecture.Chapter{
		{Name: "Opening", StartTime: 0, EndTime: 20},
		{Name: "Body", StartTime: 20, EndTime: 400},
		{Name: "Credits", StartTime: 400, EndTime: 520},
		{Name: "Bye", StartTime: 520, EndTime: 530},
	}
	got, err := newAligner(t).Align(context.Background(), slidesAt(1, 30, 410, 525), chs)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("slides in excluded chapters must still be returned, got %d", len(got))
	}
	wantChapters := []string{lecture.UnassignedChapter, "Body", lecture.UnassignedChapter, lecture.UnassignedChapter}
	wantSeq := []int{1, 1, 2, 3}
	for i := range got {
		if got[i].ChapterName != wantChapters[i] || got[i].ChapterSequence != wantSeq[i] {
			t.Fatalf("slide %d = (%q, %d), want (%q, %d)", i, got[i].ChapterName, got[i].ChapterSequence, wantChapters[i], wantSeq[i])
		}
	}
}

func TestExcludedFlags(t *testing.T) {
	a := newAligner(t)
	chs := []lecture.Chapter{
		{Name: "Intro", StartTime: 0, EndTime: 90},
		{Name: "Short middle", StartTime: 90, EndTime: 95},
		{Name: "Main", StartTime: 95, EndTime: 500},
		{Name: "Wrap-up", StartTime: 500, EndTime: 560},
	}
	got := a.Excluded(chs)
	want := []bool{true, false, false, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chapter %d excluded = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAlignWithoutChapters(t *testing.T) {
	got, err := newAligner(t).Align(context.Background(), slidesAt(0, 10), nil)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	for i, s := range got {
		if s.ChapterName != lecture.UnassignedChapter || s.ChapterSequence != i+1 {
			t.Fatalf("slide %d = (%q, %d)", i, s.ChapterName, s.ChapterSequence)
		}
	}
}

func TestAlignRejectsBadChapters(t *testing.T) {
	tests := []struct {
		name   string
		chs    []lecture.Chapter
		target error
	}{
		{"overlap", []lecture.Chapter{{Name: "a", StartTime: 0, EndTime: 100}, {Name: "b", StartTime: 90, EndTime: 200}}, services.ErrOrdering},
		{"inverted", []lecture.Chapter{{Name: "a", StartTime: 50, EndTime: 10}}, services.ErrValidation},
		{"nan start", []lecture.Chapter{{Name: "a", StartTime: 0, EndTime: 10}, {Name: "b", StartTime: math.NaN(), EndTime: 20}}, services.ErrValidation},
		{"nan end", []lecture.Chapter{{Name: "a", StartTime: 0, EndTime: math.NaN()}}, services.ErrValidation},
		{"infinite end", []lecture.Chapter{{Name: "a", StartTime: 0, EndTime: math.Inf(1)}}, services.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newAligner(t).Align(context.Background(), slidesAt(0), tt.chs)
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestAlignRejectsUnorderedSlides(t *testing.T) {
	_, err := newAligner(t).Align(context.Background(), slidesAt(10, 5), nil)
	var ordering *services.OrderingError
	if !errors.As(err, &ordering) || ordering.Stream != "slides" {
		t.Fatalf("expected slide ordering error, got %v", err)
	}
}

func TestNewAlignerRejectsBadPattern(t *testing.T) {
	settings := lecture.DefaultSettings()
	settings.IntroOutroPatterns = []string{"("}
	if _, err := chapters.NewAligner(settings, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
