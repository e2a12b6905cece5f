package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lectern/internal/resultcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the result cache",
		Long: `Inspect and manage the result cache.

The result cache stores processed videos keyed by video id and a digest of
the input and engine settings, so unchanged videos are not processed twice.

Commands:
  list     - List cached videos, newest first
  remove   - Remove one video by id
  clear    - Remove all cached entries`,
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

var errCacheDisabled = errors.New("result cache is disabled (set cache.enabled = true)")

func cacheManager(ctx *commandContext) (*resultcache.Cache, error) {
	cache, err := ctx.resultCache()
	if err != nil {
		return nil, err
	}
	if cache == nil {
		return nil, errCacheDisabled
	}
	return cache, nil
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			entries := cache.List()
			if ctx.JSONMode() {
				if entries == nil {
					entries = []resultcache.Entry{}
				}
				for i := range entries {
					entries[i].Result = nil
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Result cache: empty")
				return nil
			}
			fmt.Fprintf(out, "Result cache: %d entries\n", len(entries))

			const stampLayout = "2006-01-02 15:04"
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				cachedAt := "unknown"
				if !entry.CachedAt.IsZero() {
					cachedAt = entry.CachedAt.Local().Format(stampLayout)
				}
				rows = append(rows, []string{
					entry.VideoID,
					truncate(entry.Title, 40),
					strconv.Itoa(entry.Slides),
					strconv.Itoa(entry.Segments),
					cachedAt,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Video", "Title", "Slides", "Segments", "Cached"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <video-id>",
		Short: "Remove one cached result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			if err := cache.Remove(args[0]); err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"removed": true, "video_id": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed cached result for %s\n", args[0])
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			count := cache.Count()
			if err := cache.Clear(); err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"cleared": count})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached results\n", count)
			return nil
		},
	}
}
