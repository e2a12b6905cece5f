package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"lectern/internal/fileutil"
	"lectern/internal/lecture"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	CacheDir      string `toml:"cache_dir"`
	LogDir        string `toml:"log_dir"`
	KnowledgeBase string `toml:"knowledge_base"`
}

// Dedup contains the slide deduplication thresholds.
type Dedup struct {
	TextMergeThreshold    float64 `toml:"text_merge_threshold"`
	VisualMergeFloor      float64 `toml:"visual_merge_floor"`
	DiagramMergeThreshold float64 `toml:"diagram_merge_threshold"`
	MinTextLength         int     `toml:"min_text_length"`
}

// Similarity tunes the perceptual frame hash.
type Similarity struct {
	// HashSize is the thumbnail edge length used for gradient hashing. Default: 16
	HashSize int `toml:"hash_size"`
	// GradientDelta is the minimum luma step (0-255) counted as an edge. Default: 8
	GradientDelta int `toml:"gradient_delta"`
}

// Chapters contains intro/outro detection settings.
type Chapters struct {
	IntroOutroMinSeconds float64  `toml:"intro_outro_min_seconds"`
	IntroOutroPatterns   []string `toml:"intro_outro_patterns"`
}

// Segmenter contains transcript segmentation settings.
type Segmenter struct {
	GapThreshold      float64 `toml:"gap_threshold"`
	OverlapTolerance  float64 `toml:"overlap_tolerance"`
	ExtendToNextSlide bool    `toml:"extend_to_next_slide"`
}

// Terms configures the built-in keyword scorer.
type Terms struct {
	MinRelevance     float64  `toml:"min_relevance"`
	MaxTerms         int      `toml:"max_terms"`
	TechnicalPhrases []string `toml:"technical_phrases"`
}

// Workers controls batch parallelism.
type Workers struct {
	Concurrency int `toml:"concurrency"`
}

// Cache controls the per-video result cache.
type Cache struct {
	Enabled bool `toml:"enabled"` // Default: false
}

// Knowledge controls the persistent technical-term store.
type Knowledge struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Config encapsulates all configuration values for lectern.
//
// Configuration sections by subsystem:
//   - Paths: cache, log, and knowledge base locations
//   - Dedup: merge thresholds for consecutive frames
//   - Similarity: perceptual hash parameters
//   - Chapters: intro/outro handling during chapter alignment
//   - Segmenter: transcript gap merging and overlap tolerance
//   - Terms: keyword scorer thresholds and extra technical phrases
//   - Workers: batch concurrency
//   - Cache: result cache toggle
//   - Knowledge: technical-term store toggle
//   - Logging: log format, level, and per-stage overrides
type Config struct {
	Paths      Paths      `toml:"paths"`
	Dedup      Dedup      `toml:"dedup"`
	Similarity Similarity `toml:"similarity"`
	Chapters   Chapters   `toml:"chapters"`
	Segmenter  Segmenter  `toml:"segmenter"`
	Terms      Terms      `toml:"terms"`
	Workers    Workers    `toml:"workers"`
	Cache      Cache      `toml:"cache"`
	Knowledge  Knowledge  `toml:"knowledge"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lectern.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories, plus the knowledge
// base parent directory when the store is enabled.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.CacheDir, c.Paths.LogDir}
	if c.Knowledge.Enabled && c.Paths.KnowledgeBase != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.KnowledgeBase))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ResultCachePath returns the JSON file backing the result cache.
func (c *Config) ResultCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "results.json")
}

// EngineSettings builds the per-invocation engine thresholds.
func (c *Config) EngineSettings() lecture.Settings {
	patterns := make([]string, len(c.Chapters.IntroOutroPatterns))
	copy(patterns, c.Chapters.IntroOutroPatterns)
	return lecture.Settings{
		TextMergeThreshold:    c.Dedup.TextMergeThreshold,
		VisualMergeFloor:      c.Dedup.VisualMergeFloor,
		DiagramMergeThreshold: c.Dedup.DiagramMergeThreshold,
		MinTextLength:         c.Dedup.MinTextLength,
		IntroOutroMinSeconds:  c.Chapters.IntroOutroMinSeconds,
		IntroOutroPatterns:    patterns,
		SegmentGapThreshold:   c.Segmenter.GapThreshold,
		OverlapTolerance:      c.Segmenter.OverlapTolerance,
		ExtendToNextSlide:     c.Segmenter.ExtendToNextSlide,
	}
}

// Engine is every configured value that shapes a video's result.
type Engine struct {
	Settings   lecture.Settings `json:"settings"`
	Similarity Similarity       `json:"similarity"`
	Terms      Terms            `json:"terms"`
}

// Engine returns the result-shaping configuration. Cached results are keyed
// on it, so any change here invalidates them.
func (c *Config) Engine() Engine {
	phrases := make([]string, len(c.Terms.TechnicalPhrases))
	copy(phrases, c.Terms.TechnicalPhrases)
	terms := c.Terms
	terms.TechnicalPhrases = phrases
	return Engine{Settings: c.EngineSettings(), Similarity: c.Similarity, Terms: terms}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "lectern")
	}
	return defaultCacheDirFallback
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
