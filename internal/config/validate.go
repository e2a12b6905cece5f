package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDedup(); err != nil {
		return err
	}
	if err := c.validateSimilarity(); err != nil {
		return err
	}
	if err := c.validateChapters(); err != nil {
		return err
	}
	if err := c.validateSegmenter(); err != nil {
		return err
	}
	if err := c.validateTerms(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Cache.Enabled && strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set when cache.enabled is true")
	}
	if c.Knowledge.Enabled && strings.TrimSpace(c.Paths.KnowledgeBase) == "" {
		return errors.New("paths.knowledge_base must be set when knowledge.enabled is true")
	}
	return nil
}

func (c *Config) validateDedup() error {
	if err := ensureUnitInterval(map[string]float64{
		"dedup.text_merge_threshold":    c.Dedup.TextMergeThreshold,
		"dedup.visual_merge_floor":      c.Dedup.VisualMergeFloor,
		"dedup.diagram_merge_threshold": c.Dedup.DiagramMergeThreshold,
	}); err != nil {
		return err
	}
	if c.Dedup.MinTextLength < 0 {
		return errors.New("dedup.min_text_length must be >= 0")
	}
	return nil
}

func (c *Config) validateSimilarity() error {
	if c.Similarity.HashSize < 4 || c.Similarity.HashSize > 64 {
		return errors.New("similarity.hash_size must be between 4 and 64")
	}
	if c.Similarity.GradientDelta < 0 || c.Similarity.GradientDelta > 255 {
		return errors.New("similarity.gradient_delta must be between 0 and 255")
	}
	return nil
}

func (c *Config) validateChapters() error {
	if c.Chapters.IntroOutroMinSeconds < 0 {
		return errors.New("chapters.intro_outro_min_seconds must be >= 0")
	}
	for _, pattern := range c.Chapters.IntroOutroPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("chapters.intro_outro_patterns: invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateSegmenter() error {
	if c.Segmenter.GapThreshold < 0 {
		return errors.New("segmenter.gap_threshold must be >= 0")
	}
	if c.Segmenter.OverlapTolerance < 0 {
		return errors.New("segmenter.overlap_tolerance must be >= 0")
	}
	return nil
}

func (c *Config) validateTerms() error {
	if err := ensureUnitInterval(map[string]float64{
		"terms.min_relevance": c.Terms.MinRelevance,
	}); err != nil {
		return err
	}
	if c.Terms.MaxTerms <= 0 {
		return errors.New("terms.max_terms must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	for stage, level := range c.Logging.StageOverrides {
		switch level {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("logging.stage_overrides.%s: unsupported level %q", stage, level)
		}
	}
	return nil
}

func ensureUnitInterval(values map[string]float64) error {
	for key, value := range values {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", key)
		}
	}
	return nil
}
