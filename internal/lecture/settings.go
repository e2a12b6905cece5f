package lecture

// Settings carries every engine threshold for one invocation. There is no
// package-level default instance; callers build one per run.
type Settings struct {
	// Deduplication
	TextMergeThreshold    float64
	VisualMergeFloor      float64
	DiagramMergeThreshold float64
	MinTextLength         int

	// Chapter alignment
	IntroOutroMinSeconds float64
	IntroOutroPatterns   []string

	// Segmentation
	SegmentGapThreshold float64
	OverlapTolerance    float64
	ExtendToNextSlide   bool
}

// DefaultSettings returns the empirically chosen defaults.
func DefaultSettings() Settings {
	return Settings{
		TextMergeThreshold:    0.85,
		VisualMergeFloor:      0.5,
		DiagramMergeThreshold: 0.92,
		MinTextLength:         20,
		IntroOutroMinSeconds:  30,
		IntroOutroPatterns:    []string{`(?i)^\s*(intro|introduction|outro|credits|end\s*screen)\b`},
		SegmentGapThreshold:   2.0,
		OverlapTolerance:      0.1,
	}
}
