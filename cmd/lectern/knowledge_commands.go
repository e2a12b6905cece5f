package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lectern/internal/knowledge"
)

func newKnowledgeCommand(ctx *commandContext) *cobra.Command {
	kbCmd := &cobra.Command{
		Use:     "kb",
		Aliases: []string{"knowledge"},
		Short:   "Inspect and curate the technical-term knowledge base",
	}

	kbCmd.AddCommand(newKnowledgeListCommand(ctx))
	kbCmd.AddCommand(newKnowledgeAddCommand(ctx))
	kbCmd.AddCommand(newKnowledgeRemoveCommand(ctx))

	return kbCmd
}

func withKnowledgeStore(ctx *commandContext, fn func(*knowledge.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Knowledge.Enabled {
		return errors.New("knowledge base is disabled (set knowledge.enabled = true)")
	}
	store, err := knowledge.Open(cfg)
	if err != nil {
		return fmt.Errorf("open knowledge base: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newKnowledgeListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known technical terms, most frequent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKnowledgeStore(ctx, func(store *knowledge.Store) error {
				terms, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if terms == nil {
						terms = []knowledge.Term{}
					}
					return writeJSON(cmd, terms)
				}

				out := cmd.OutOrStdout()
				if len(terms) == 0 {
					fmt.Fprintln(out, "Knowledge base: empty")
					return nil
				}
				const stampLayout = "2006-01-02"
				rows := make([][]string, 0, len(terms))
				for _, term := range terms {
					rows = append(rows, []string{
						term.Term,
						term.Source,
						strconv.Itoa(term.Occurrences),
						term.LastSeen.Local().Format(stampLayout),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Term", "Source", "Seen", "Last Seen"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of terms to show (0 for all)")
	return cmd
}

func newKnowledgeAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <term>...",
		Short: "Mark terms as technical",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKnowledgeStore(ctx, func(store *knowledge.Store) error {
				added := make([]string, 0, len(args))
				for _, term := range args {
					if err := store.Add(cmd.Context(), term); err != nil {
						return err
					}
					added = append(added, strings.TrimSpace(term))
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"added": added})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d terms: %s\n", len(added), strings.Join(added, ", "))
				return nil
			})
		},
	}
}

func newKnowledgeRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <term>",
		Short: "Forget a technical term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKnowledgeStore(ctx, func(store *knowledge.Store) error {
				if err := store.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"removed": true, "term": args[0]})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}
