package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"lectern/internal/imaging"
	"lectern/internal/lecture"
	"lectern/internal/pipeline"
	"lectern/internal/services"
)

// Frame is one sampled frame entry.
type Frame struct {
	Timestamp  float64 `yaml:"timestamp" json:"timestamp"`
	Image      string  `yaml:"image" json:"image"`
	Text       string  `yaml:"text" json:"text"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
}

// Span is one inline transcript span.
type Span struct {
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
	Text  string  `yaml:"text" json:"text"`
}

// Chapter is one chapter entry.
type Chapter struct {
	Name  string  `yaml:"name" json:"name"`
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
}

// Manifest describes one video.
type Manifest struct {
	VideoID        string    `yaml:"video_id" json:"video_id"`
	Title          string    `yaml:"title" json:"title"`
	Frames         []Frame   `yaml:"frames" json:"frames"`
	Transcript     []Span    `yaml:"transcript" json:"transcript"`
	TranscriptFile string    `yaml:"transcript_file" json:"transcript_file"`
	Chapters       []Chapter `yaml:"chapters" json:"chapters"`

	// Path is the manifest file location, set by Load.
	Path string `yaml:"-" json:"-"`
}

// Load reads and validates a manifest file. A missing video_id defaults to
// the file name without extension.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, services.Wrap(services.ErrValidation, "manifest", "parse", path, err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, services.Wrap(services.ErrValidation, "manifest", "parse", path, err)
		}
	default:
		return nil, services.Wrap(services.ErrValidation, "manifest", "parse",
			fmt.Sprintf("unsupported manifest extension %q (want .yaml, .yml or .json)", ext), nil)
	}

	m.Path = path
	m.VideoID = strings.TrimSpace(m.VideoID)
	if m.VideoID == "" {
		m.VideoID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if len(m.Transcript) > 0 && strings.TrimSpace(m.TranscriptFile) != "" {
		return services.Wrap(services.ErrValidation, "manifest", "validate", "transcript and transcript_file are mutually exclusive", nil)
	}
	for i, f := range m.Frames {
		if f.Confidence < 0 || f.Confidence > 1 {
			return services.Wrap(services.ErrValidation, "manifest", "validate",
				fmt.Sprintf("frame %d confidence %.3f outside [0, 1]", i, f.Confidence), nil)
		}
	}
	for i, ch := range m.Chapters {
		if strings.TrimSpace(ch.Name) == "" {
			return services.Wrap(services.ErrValidation, "manifest", "validate", fmt.Sprintf("chapter %d has no name", i), nil)
		}
	}
	return nil
}

// Dir returns the directory relative paths are resolved against.
func (m *Manifest) Dir() string {
	if m.Path == "" {
		return "."
	}
	return filepath.Dir(m.Path)
}

func (m *Manifest) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.Dir(), path)
}

// Input decodes the frame images and transcript and returns the engine input.
// Frames without an image path keep a nil image.
func (m *Manifest) Input(ctx context.Context) (pipeline.Input, error) {
	in := pipeline.Input{
		VideoID:  m.VideoID,
		Title:    strings.TrimSpace(m.Title),
		Frames:   make([]lecture.FrameCandidate, 0, len(m.Frames)),
		Chapters: make([]lecture.Chapter, 0, len(m.Chapters)),
	}
	for i, f := range m.Frames {
		if err := ctx.Err(); err != nil {
			return pipeline.Input{}, err
		}
		candidate := lecture.FrameCandidate{
			Timestamp:     f.Timestamp,
			ImagePath:     f.Image,
			ExtractedText: f.Text,
			OCRConfidence: f.Confidence,
		}
		if f.Image != "" {
			img, digest, err := imaging.Load(m.resolve(f.Image))
			if err != nil {
				return pipeline.Input{}, services.Wrap(services.ErrNotFound, "manifest", "load frame", fmt.Sprintf("frame %d", i), err)
			}
			candidate.Image = img
			candidate.ImageDigest = digest
		}
		in.Frames = append(in.Frames, candidate)
	}

	switch {
	case strings.TrimSpace(m.TranscriptFile) != "":
		data, err := os.ReadFile(m.resolve(m.TranscriptFile))
		if err != nil {
			return pipeline.Input{}, services.Wrap(services.ErrNotFound, "manifest", "load transcript", m.TranscriptFile, err)
		}
		spans, err := ParseSRT(data)
		if err != nil {
			return pipeline.Input{}, err
		}
		in.Transcript = spans
	default:
		in.Transcript = make([]lecture.TranscriptSpan, 0, len(m.Transcript))
		for _, s := range m.Transcript {
			in.Transcript = append(in.Transcript, lecture.TranscriptSpan{StartTime: s.Start, EndTime: s.End, Text: s.Text})
		}
	}

	for _, ch := range m.Chapters {
		in.Chapters = append(in.Chapters, lecture.Chapter{Name: strings.TrimSpace(ch.Name), StartTime: ch.Start, EndTime: ch.End})
	}
	return in, nil
}
