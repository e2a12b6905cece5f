package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lectern/internal/chapters"
	"lectern/internal/classify"
	"lectern/internal/config"
	"lectern/internal/dedup"
	"lectern/internal/enrich"
	"lectern/internal/lecture"
	"lectern/internal/logging"
	"lectern/internal/segment"
	"lectern/internal/services"
	"lectern/internal/similarity"
	"lectern/internal/termscore"
)

// Input is everything the engine needs for one video.
type Input struct {
	VideoID    string                   `json:"video_id"`
	Title      string                   `json:"title,omitempty"`
	Frames     []lecture.FrameCandidate `json:"frames"`
	Transcript []lecture.TranscriptSpan `json:"transcript"`
	Chapters   []lecture.Chapter        `json:"chapters"`
}

// Result is the engine output for one video.
type Result struct {
	VideoID  string                   `json:"video_id"`
	Title    string                   `json:"title,omitempty"`
	Slides   []lecture.Slide          `json:"slides"`
	Segments []lecture.ContentSegment `json:"segments"`
	Summary  Summary                  `json:"summary"`
}

// Options wires the engine collaborators.
type Options struct {
	Settings   lecture.Settings
	Evaluator  similarity.Evaluator
	Classifier lecture.Classifier
	Scorer     lecture.TermScorer
	Logger     *slog.Logger
	// StageLevels maps stage names to minimum log levels.
	StageLevels map[string]string
}

// Engine runs the stage chain.
type Engine struct {
	logger    *slog.Logger
	dedup     *dedup.Deduplicator
	aligner   *chapters.Aligner
	segmenter *segment.Segmenter
	enricher  *enrich.Enricher
}

// New builds an Engine from explicit collaborators.
func New(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	aligner, err := chapters.NewAligner(opts.Settings, logging.ForStage(logger, chapters.Stage, opts.StageLevels))
	if err != nil {
		return nil, err
	}
	return &Engine{
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		dedup:     dedup.New(opts.Settings, opts.Evaluator, opts.Classifier, logging.ForStage(logger, dedup.Stage, opts.StageLevels)),
		aligner:   aligner,
		segmenter: segment.New(opts.Settings, logging.ForStage(logger, segment.Stage, opts.StageLevels)),
		enricher:  enrich.New(opts.Scorer, logging.ForStage(logger, enrich.Stage, opts.StageLevels)),
	}, nil
}

// NewFromConfig builds an Engine with the built-in classifier and term scorer.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "build engine", "config is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	evaluator := similarity.NewEvaluator(cfg.Similarity.HashSize, cfg.Similarity.GradientDelta)
	return New(Options{
		Settings:   cfg.EngineSettings(),
		Evaluator:  evaluator,
		Classifier: classify.New(evaluator, logging.ForStage(logger, "classify", cfg.Logging.StageOverrides)),
		Scorer: termscore.New(termscore.Options{
			MinRelevance: cfg.Terms.MinRelevance,
			MaxTerms:     cfg.Terms.MaxTerms,
			ExtraPhrases: cfg.Terms.TechnicalPhrases,
		}),
		Logger:      logger,
		StageLevels: cfg.Logging.StageOverrides,
	})
}

// Run processes one video. kb may be nil, in which case no terms are looked
// up or learned. Ordering and invariant violations abort the run; collaborator
// failures surface as warnings on the affected slides and segments.
func (e *Engine) Run(ctx context.Context, in Input, kb lecture.KnowledgeBase) (*Result, error) {
	videoID := strings.TrimSpace(in.VideoID)
	if videoID == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "run", "video id is required", nil)
	}
	ctx = services.WithVideoID(ctx, videoID)
	logger := logging.WithContext(ctx, e.logger)
	started := time.Now()

	logger.Info("video processing started",
		logging.String(logging.FieldEventType, "video_start"),
		logging.Int("frames", len(in.Frames)),
		logging.Int("transcript_spans", len(in.Transcript)),
		logging.Int("chapters", len(in.Chapters)),
	)

	var (
		slides   []lecture.Slide
		segments []lecture.ContentSegment
	)
	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{dedup.Stage, func(ctx context.Context) (err error) {
			slides, err = e.dedup.Deduplicate(ctx, in.Frames)
			return err
		}},
		{chapters.Stage, func(ctx context.Context) (err error) {
			slides, err = e.aligner.Align(ctx, slides, in.Chapters)
			return err
		}},
		{segment.Stage, func(ctx context.Context) (err error) {
			segments, err = e.segmenter.Segment(ctx, slides, in.Transcript)
			return err
		}},
		{enrich.Stage, func(ctx context.Context) (err error) {
			segments, err = e.enricher.EnrichAll(ctx, slides, segments, kb)
			return err
		}},
	}
	for _, st := range stages {
		if err := runStage(ctx, e.logger, st.name, st.run); err != nil {
			return nil, err
		}
	}

	result := &Result{
		VideoID:  videoID,
		Title:    strings.TrimSpace(in.Title),
		Slides:   slides,
		Segments: segments,
		Summary:  Summarize(slides, segments),
	}
	logger.Info("video processing completed",
		logging.String(logging.FieldEventType, "video_complete"),
		logging.Int("slides", len(slides)),
		logging.Int("segments", len(segments)),
		logging.Int("warnings", result.Summary.Warnings),
		logging.Duration("duration", time.Since(started)),
	)
	return result, nil
}

func runStage(ctx context.Context, logger *slog.Logger, name string, run func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stageCtx := services.WithStage(ctx, name)
	started := time.Now()
	stageLogger := logging.WithContext(stageCtx, logger)
	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	if err := run(stageCtx); err != nil {
		logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure",
			logging.Bool("fatal", services.IsFatal(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check input ordering and time ranges"),
		)
		return fmt.Errorf("%s stage: %w", name, err)
	}
	stageLogger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("duration", time.Since(started)),
	)
	return nil
}
