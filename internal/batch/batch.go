// Package batch processes many videos in parallel with per-video failure
// isolation.
//
// Each video runs on its own worker (bounded by the configured concurrency)
// and owns its slides and segments. A failed video is reported in the
// outcome list; the remaining videos keep going. Only cancellation of the
// parent context stops the whole batch.
package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lectern/internal/lecture"
	"lectern/internal/logging"
	"lectern/internal/pipeline"
	"lectern/internal/services"
)

// Runner processes one video.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input, kb lecture.KnowledgeBase) (*pipeline.Result, error)
}

// Cache memoizes results by video id and input digest.
type Cache interface {
	Lookup(videoID, digest string) (*pipeline.Result, bool)
	Store(videoID, digest string, result *pipeline.Result) error
}

// DigestFunc fingerprints an input for cache lookups.
type DigestFunc func(pipeline.Input) (string, error)

// Job is one video to process.
type Job struct {
	// Source describes where the input came from, typically a manifest path.
	Source string
	Input  pipeline.Input
}

// Outcome is the per-video result of a batch.
type Outcome struct {
	VideoID  string           `json:"video_id"`
	Source   string           `json:"source,omitempty"`
	Result   *pipeline.Result `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
	Cached   bool             `json:"cached,omitempty"`
	Duration time.Duration    `json:"duration_ns"`

	err error
}

// Err returns the processing error, if any.
func (o Outcome) Err() error { return o.err }

// Stats aggregates a batch.
type Stats struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Cached    int           `json:"cached"`
	Slides    int           `json:"slides"`
	Segments  int           `json:"segments"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// Report is the outcome of Run. Outcomes follow job order.
type Report struct {
	RunID    string    `json:"run_id"`
	Outcomes []Outcome `json:"outcomes"`
	Stats    Stats     `json:"stats"`
}

// Options configures Run.
type Options struct {
	Concurrency int
	Runner      Runner
	Knowledge   lecture.KnowledgeBase
	// Cache and Digest are optional; both are needed for memoization.
	Cache  Cache
	Digest DigestFunc
	Logger *slog.Logger
}

// Run processes jobs and reports every outcome. The returned error is
// non-nil only when ctx ends before the batch completes.
func Run(ctx context.Context, opts Options, jobs []Job) (Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	report := Report{RunID: uuid.NewString(), Outcomes: make([]Outcome, len(jobs))}
	if opts.Runner == nil {
		return report, services.Wrap(services.ErrConfiguration, "batch", "run", "runner is required", nil)
	}
	ctx = services.WithRunID(ctx, report.RunID)
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "batch"))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}
	started := time.Now()
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("videos", len(jobs)),
		logging.Int("concurrency", limit),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Outcomes[i] = failed(job, err, 0)
				return err
			}
			report.Outcomes[i] = process(gctx, opts, logger, job)
			return nil
		})
	}
	waitErr := g.Wait()

	report.Stats = summarize(report.Outcomes, time.Since(started))
	logger.Info("batch completed",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("succeeded", report.Stats.Succeeded),
		logging.Int("failed", report.Stats.Failed),
		logging.Int("cached", report.Stats.Cached),
		logging.Duration("elapsed", report.Stats.Elapsed),
	)
	if waitErr != nil {
		return report, waitErr
	}
	return report, ctx.Err()
}

func process(ctx context.Context, opts Options, logger *slog.Logger, job Job) Outcome {
	started := time.Now()
	videoLogger := logging.WithContext(services.WithVideoID(ctx, job.Input.VideoID), logger)

	var digest string
	if opts.Cache != nil && opts.Digest != nil {
		d, err := opts.Digest(job.Input)
		if err != nil {
			logging.WarnWithContext(videoLogger, "input digest failed", "cache_digest_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "video processed without the result cache"),
			)
		} else {
			digest = d
			if cached, ok := opts.Cache.Lookup(job.Input.VideoID, digest); ok {
				videoLogger.Info("using cached result", logging.String(logging.FieldEventType, "cache_hit"))
				return Outcome{VideoID: job.Input.VideoID, Source: job.Source, Result: cached, Cached: true, Duration: time.Since(started)}
			}
		}
	}

	result, err := opts.Runner.Run(ctx, job.Input, opts.Knowledge)
	if err != nil {
		logging.ErrorWithContext(videoLogger, "video failed", "video_failure",
			logging.String("source", job.Source),
			logging.Error(err),
		)
		return failed(job, err, time.Since(started))
	}
	if digest != "" {
		if err := opts.Cache.Store(job.Input.VideoID, digest, result); err != nil {
			logging.WarnWithContext(videoLogger, "failed to cache result", "cache_store_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the cache directory"),
				logging.String(logging.FieldImpact, "video will be processed again next time"),
			)
		}
	}
	return Outcome{VideoID: job.Input.VideoID, Source: job.Source, Result: result, Duration: time.Since(started)}
}

func failed(job Job, err error, elapsed time.Duration) Outcome {
	return Outcome{
		VideoID:  job.Input.VideoID,
		Source:   job.Source,
		Error:    err.Error(),
		Duration: elapsed,
		err:      err,
	}
}

func summarize(outcomes []Outcome, elapsed time.Duration) Stats {
	stats := Stats{Total: len(outcomes), Elapsed: elapsed}
	for _, o := range outcomes {
		if o.err != nil || o.Result == nil {
			stats.Failed++
			continue
		}
		stats.Succeeded++
		if o.Cached {
			stats.Cached++
		}
		stats.Slides += len(o.Result.Slides)
		stats.Segments += len(o.Result.Segments)
	}
	return stats
}
