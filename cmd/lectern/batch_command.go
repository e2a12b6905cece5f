package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/batch"
	"lectern/internal/manifest"
	"lectern/internal/pipeline"
	"lectern/internal/resultcache"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "batch <manifest>...",
		Short: "Process many videos in parallel",
		Long: `Process several manifests with bounded parallelism.

A video that fails is reported and skipped; the rest of the batch continues.
The command exits non-zero when any video failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			jobs := make([]batch.Job, 0, len(args))
			var loadFailures []batch.Outcome
			for _, path := range args {
				in, err := loadManifestInput(cmd, path)
				if err != nil {
					loadFailures = append(loadFailures, batch.Outcome{Source: path, Error: err.Error()})
					continue
				}
				jobs = append(jobs, batch.Job{Source: path, Input: in})
			}

			engine, err := pipeline.NewFromConfig(cfg, logger)
			if err != nil {
				return err
			}
			kb, closeKB, err := ctx.openKnowledge()
			if err != nil {
				return err
			}
			defer closeKB()

			opts := batch.Options{
				Concurrency: cfg.Workers.Concurrency,
				Runner:      engine,
				Knowledge:   kb,
				Logger:      logger,
			}
			if concurrency > 0 {
				opts.Concurrency = concurrency
			}
			cache, err := ctx.resultCache()
			if err != nil {
				return err
			}
			if cache != nil {
				engineConfig := cfg.Engine()
				opts.Cache = cache
				opts.Digest = func(in pipeline.Input) (string, error) {
					return resultcache.Digest(in, engineConfig)
				}
			}

			report, runErr := batch.Run(cmd.Context(), opts, jobs)
			report.Outcomes = append(report.Outcomes, loadFailures...)
			report.Stats.Total += len(loadFailures)
			report.Stats.Failed += len(loadFailures)
			if runErr != nil {
				return runErr
			}

			if ctx.JSONMode() {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printBatchReport(cmd, report)
			}
			if report.Stats.Failed > 0 {
				return fmt.Errorf("%d of %d videos failed", report.Stats.Failed, report.Stats.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Override workers.concurrency")
	return cmd
}

func loadManifestInput(cmd *cobra.Command, path string) (pipeline.Input, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return pipeline.Input{}, err
	}
	return m.Input(cmd.Context())
}

func printBatchReport(cmd *cobra.Command, report batch.Report) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(report.Outcomes))
	for _, outcome := range report.Outcomes {
		status := "ok"
		slides, segments := "-", "-"
		switch {
		case outcome.Error != "":
			status = "failed"
		case outcome.Cached:
			status = "cached"
		}
		if outcome.Result != nil {
			slides = strconv.Itoa(len(outcome.Result.Slides))
			segments = strconv.Itoa(len(outcome.Result.Segments))
		}
		rows = append(rows, []string{
			outcome.VideoID,
			outcome.Source,
			status,
			slides,
			segments,
			outcome.Duration.Round(time.Millisecond).String(),
			truncate(outcome.Error, 50),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Video", "Source", "Status", "Slides", "Segments", "Duration", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	stats := report.Stats
	fmt.Fprintf(out, "Run %s: %d succeeded, %d failed, %d cached in %s\n",
		report.RunID, stats.Succeeded, stats.Failed, stats.Cached, stats.Elapsed.Round(time.Millisecond))
}
