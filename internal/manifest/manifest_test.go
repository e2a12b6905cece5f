package manifest_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"lectern/internal/manifest"
	"lectern/internal/services"
	"lectern/internal/testsupport"
)

const yamlManifest = `video_id: lec-01
title: Optimisation basics
frames:
  - timestamp: 0
    image: frames/0000.png
    text: Gradient descent updates the weights
    confidence: 0.93
  - timestamp: 2.5
    text: ""
transcript_file: captions/lecture.srt
chapters:
  - {name: Introduction, start: 0, end: 45}
  - {name: " Gradients ", start: 45, end: 600}
`

const lectureSRT = `1
00:00:01,000 --> 00:00:04,000
we start with <i>gradient</i>
descent

2
00:00:04,500 --> 00:00:06,000 X1:40 X2:600
and the learning rate

3
00:00:07,000 --> 00:00:08,000
Subtitles by example.org
`

func TestLoadYAMLManifest(t *testing.T) {
	dir := t.TempDir()
	testsupport.WritePNG(t, filepath.Join(dir, "frames", "0000.png"), testsupport.SlideImage(64, 36, testsupport.TextLines(1)...))
	testsupport.WriteFile(t, filepath.Join(dir, "captions", "lecture.srt"), []byte(lectureSRT))
	path := filepath.Join(dir, "lecture.yaml")
	testsupport.WriteFile(t, path, []byte(yamlManifest))

	m, err := manifest.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.VideoID != "lec-01" || m.Dir() != dir {
		t.Fatalf("unexpected manifest %+v", m)
	}

	in, err := m.Input(context.Background())
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if len(in.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(in.Frames))
	}
	if in.Frames[0].Image == nil || in.Frames[0].Image.Bounds().Dx() != 64 {
		t.Fatalf("frame image not decoded: %+v", in.Frames[0])
	}
	if in.Frames[1].Image != nil {
		t.Fatal("frame without path should have no image")
	}
	if in.Frames[0].OCRConfidence != 0.93 || in.Frames[0].ImagePath != "frames/0000.png" {
		t.Fatalf("unexpected frame %+v", in.Frames[0])
	}
	if len(in.Transcript) != 2 {
		t.Fatalf("expected 2 spans, got %+v", in.Transcript)
	}
	if in.Transcript[0].Text != "we start with gradient descent" || in.Transcript[0].StartTime != 1 || in.Transcript[0].EndTime != 4 {
		t.Fatalf("unexpected first span %+v", in.Transcript[0])
	}
	if in.Transcript[1].StartTime != 4.5 {
		t.Fatalf("unexpected second span %+v", in.Transcript[1])
	}
	if len(in.Chapters) != 2 || in.Chapters[1].Name != "Gradients" || in.Chapters[1].EndTime != 600 {
		t.Fatalf("unexpected chapters %+v", in.Chapters)
	}
}

func TestLoadJSONManifestDefaultsVideoID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "week-3.json")
	testsupport.WriteFile(t, path, []byte(`{
  "title": "Week 3",
  "frames": [{"timestamp": 0, "text": "Intro", "confidence": 0.9}],
  "transcript": [{"start": 0.5, "end": 2, "text": "hello"}]
}`))

	m, err := manifest.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.VideoID != "week-3" {
		t.Fatalf("video id = %q, want week-3", m.VideoID)
	}
	in, err := m.Input(context.Background())
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if len(in.Transcript) != 1 || in.Transcript[0].Text != "hello" {
		t.Fatalf("unexpected transcript %+v", in.Transcript)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "unknown yaml field", file: "a.yaml", content: "video_id: x\nfps: 30\n"},
		{name: "unknown json field", file: "a.json", content: `{"video_id": "x", "fps": 30}`},
		{name: "bad extension", file: "a.toml", content: "video_id = 'x'"},
		{name: "both transcripts", file: "a.yaml", content: "transcript_file: a.srt\ntranscript:\n  - {start: 0, end: 1, text: hi}\n"},
		{name: "confidence out of range", file: "a.yaml", content: "frames:\n  - {timestamp: 0, confidence: 2}\n"},
		{name: "unnamed chapter", file: "a.yaml", content: "chapters:\n  - {name: '', start: 0, end: 1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			testsupport.WriteFile(t, path, []byte(tt.content))
			if _, err := manifest.Load(path); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestInputMissingImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lec.yaml")
	testsupport.WriteFile(t, path, []byte("frames:\n  - {timestamp: 0, image: missing.png}\n"))
	m, err := manifest.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := m.Input(context.Background()); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInputImageDigestTracksFileContent(t *testing.T) {
	dir := t.TempDir()
	framePath := filepath.Join(dir, "frames", "0000.png")
	path := filepath.Join(dir, "lec.yaml")
	testsupport.WriteFile(t, path, []byte("frames:\n  - {timestamp: 0, image: frames/0000.png, text: Intro}\n"))

	digestOf := func() string {
		t.Helper()
		m, err := manifest.Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		in, err := m.Input(context.Background())
		if err != nil {
			t.Fatalf("Input: %v", err)
		}
		return in.Frames[0].ImageDigest
	}

	testsupport.WritePNG(t, framePath, testsupport.SlideImage(64, 36, testsupport.TextLines(1)...))
	first := digestOf()
	if first == "" {
		t.Fatal("expected image digest for a loaded frame")
	}
	if again := digestOf(); again != first {
		t.Fatalf("digest not stable: %q vs %q", first, again)
	}
	testsupport.WritePNG(t, framePath, testsupport.SlideImage(64, 36, testsupport.TextLines(3)...))
	if replaced := digestOf(); replaced == first {
		t.Fatal("digest unchanged after the frame image was replaced")
	}
}
