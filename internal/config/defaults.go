package config

const (
	defaultConfigPath            = "~/.config/lectern/config.toml"
	defaultCacheDirFallback      = "~/.cache/lectern"
	defaultLogDir                = "~/.local/share/lectern/logs"
	defaultKnowledgeBase         = "~/.local/share/lectern/knowledge.db"
	defaultTextMergeThreshold    = 0.85
	defaultVisualMergeFloor      = 0.5
	defaultDiagramMergeThreshold = 0.92
	defaultMinTextLength         = 20
	defaultHashSize              = 16
	defaultGradientDelta         = 8
	defaultIntroOutroMinSeconds  = 30
	defaultIntroOutroPattern     = `(?i)^\s*(intro|introduction|outro|credits|end\s*screen)\b`
	defaultGapThreshold          = 2.0
	defaultOverlapTolerance      = 0.1
	defaultMinRelevance          = 0.3
	defaultMaxTerms              = 10
	defaultConcurrency           = 2
	defaultLogFormat             = "auto"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:      defaultCacheDir(),
			LogDir:        defaultLogDir,
			KnowledgeBase: defaultKnowledgeBase,
		},
		Dedup: Dedup{
			TextMergeThreshold:    defaultTextMergeThreshold,
			VisualMergeFloor:      defaultVisualMergeFloor,
			DiagramMergeThreshold: defaultDiagramMergeThreshold,
			MinTextLength:         defaultMinTextLength,
		},
		Similarity: Similarity{
			HashSize:      defaultHashSize,
			GradientDelta: defaultGradientDelta,
		},
		Chapters: Chapters{
			IntroOutroMinSeconds: defaultIntroOutroMinSeconds,
			IntroOutroPatterns:   []string{defaultIntroOutroPattern},
		},
		Segmenter: Segmenter{
			GapThreshold:     defaultGapThreshold,
			OverlapTolerance: defaultOverlapTolerance,
		},
		Terms: Terms{
			MinRelevance: defaultMinRelevance,
			MaxTerms:     defaultMaxTerms,
		},
		Workers: Workers{
			Concurrency: defaultConcurrency,
		},
		Knowledge: Knowledge{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
