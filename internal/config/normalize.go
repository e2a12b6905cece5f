package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeChapters()
	c.normalizeTerms()
	if c.Workers.Concurrency <= 0 {
		c.Workers.Concurrency = defaultConcurrency
	}
	if c.Similarity.HashSize <= 0 {
		c.Similarity.HashSize = defaultHashSize
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if value, ok := os.LookupEnv("LECTERN_KNOWLEDGE_BASE"); ok && strings.TrimSpace(value) != "" {
		c.Paths.KnowledgeBase = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.KnowledgeBase) == "" {
		c.Paths.KnowledgeBase = defaultKnowledgeBase
	}
	if c.Paths.KnowledgeBase, err = expandPath(c.Paths.KnowledgeBase); err != nil {
		return fmt.Errorf("paths.knowledge_base: %w", err)
	}
	return nil
}

func (c *Config) normalizeChapters() {
	patterns := make([]string, 0, len(c.Chapters.IntroOutroPatterns))
	for _, pattern := range c.Chapters.IntroOutroPatterns {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	c.Chapters.IntroOutroPatterns = patterns
}

func (c *Config) normalizeTerms() {
	if len(c.Terms.TechnicalPhrases) == 0 {
		return
	}
	phrases := make([]string, 0, len(c.Terms.TechnicalPhrases))
	seen := make(map[string]struct{}, len(c.Terms.TechnicalPhrases))
	for _, phrase := range c.Terms.TechnicalPhrases {
		normalized := strings.ToLower(strings.Join(strings.Fields(phrase), " "))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		phrases = append(phrases, normalized)
	}
	c.Terms.TechnicalPhrases = phrases
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "":
		c.Logging.Format = defaultLogFormat
	case "console", "json", "auto":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv("LECTERN_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.StageOverrides) > 0 {
		overrides := make(map[string]string, len(c.Logging.StageOverrides))
		for stage, level := range c.Logging.StageOverrides {
			key := strings.ToLower(strings.TrimSpace(stage))
			if key == "" {
				continue
			}
			overrides[key] = strings.ToLower(strings.TrimSpace(level))
		}
		c.Logging.StageOverrides = overrides
	}
}
