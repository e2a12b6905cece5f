package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lectern/internal/manifest"
	"lectern/internal/pipeline"
	"lectern/internal/resultcache"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "process <manifest>",
		Short: "Deduplicate slides and segment the transcript of one video",
		Long: `Process one lecture video described by a YAML or JSON manifest.

The manifest lists OCR'd frame candidates, the transcript (inline spans or an
SRT file) and the chapter list. The result is the deduplicated slide list and
the enriched content segments.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			in, err := m.Input(cmd.Context())
			if err != nil {
				return err
			}

			var cache *resultcache.Cache
			var digest string
			if !noCache {
				if cache, err = ctx.resultCache(); err != nil {
					return err
				}
			}
			if cache != nil {
				if digest, err = resultcache.Digest(in, cfg.Engine()); err != nil {
					return err
				}
				if result, ok := cache.Lookup(in.VideoID, digest); ok {
					return printResult(cmd, ctx, result, true)
				}
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

			result, err := engine.Run(cmd.Context(), in, kb)
			if err != nil {
				return err
			}
			if cache != nil {
				if err := cache.Store(in.VideoID, digest, result); err != nil {
					return fmt.Errorf("store cached result: %w", err)
				}
			}
			return printResult(cmd, ctx, result, false)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore the result cache for this run")
	return cmd
}

func printResult(cmd *cobra.Command, ctx *commandContext, result *pipeline.Result, cached bool) error {
	if ctx.JSONMode() {
		return writeJSON(cmd, result)
	}
	out := cmd.OutOrStdout()

	title := result.VideoID
	if result.Title != "" {
		title = fmt.Sprintf("%s (%s)", result.Title, result.VideoID)
	}
	fmt.Fprintf(out, "Video: %s\n", title)
	fmt.Fprintf(out, "Slides: %d | Segments: %d | Cached: %s\n\n",
		result.Summary.SlideCount, result.Summary.SegmentCount, yesNo(cached))

	slideRows := make([][]string, 0, len(result.Slides))
	for _, slide := range result.Slides {
		contentType := slide.ContentType.String()
		if slide.DiagramType != "" {
			contentType = fmt.Sprintf("%s (%s)", contentType, slide.DiagramType)
		}
		slideRows = append(slideRows, []string{
			strconv.Itoa(slide.SlideIndex),
			formatSpan(slide.StartTime, slide.EndTime),
			fmt.Sprintf("%s #%d", slide.ChapterName, slide.ChapterSequence),
			contentType,
			strconv.Itoa(slide.FrameCount),
			truncate(slide.ExtractedText, 40),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"#", "Time", "Chapter", "Type", "Frames", "Text"},
		slideRows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))

	if len(result.Segments) > 0 {
		segmentRows := make([][]string, 0, len(result.Segments))
		for _, seg := range result.Segments {
			segmentRows = append(segmentRows, []string{
				fmt.Sprintf("%d.%d", seg.SlideIndex, seg.SegmentIndex),
				formatSpan(seg.StartTime, seg.EndTime),
				truncate(strings.Join(seg.Keywords, ", "), 40),
				truncate(strings.Join(seg.TechnicalTerms, ", "), 30),
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(out,
			[]string{"Segment", "Time", "Keywords", "Technical"},
			segmentRows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
		))
	}

	if len(result.Summary.MainTopics) > 0 {
		topics := make([]string, 0, len(result.Summary.MainTopics))
		for _, topic := range result.Summary.MainTopics {
			topics = append(topics, fmt.Sprintf("%s (%d)", topic.Term, topic.Count))
		}
		fmt.Fprintf(out, "\nMain topics: %s\n", strings.Join(topics, ", "))
	}
	if result.Summary.PrimaryDomain != "" {
		fmt.Fprintf(out, "Primary domain: %s\n", result.Summary.PrimaryDomain)
	}
	if result.Summary.Warnings > 0 {
		fmt.Fprintf(out, "Warnings: %d (see --json for details)\n", result.Summary.Warnings)
	}
	return nil
}

func formatSpan(start, end float64) string {
	return fmt.Sprintf("%s-%s", formatSeconds(start), formatSeconds(end))
}

func formatSeconds(value float64) string {
	if value < 0 {
		value = 0
	}
	total := int(value)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
