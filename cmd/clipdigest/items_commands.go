package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipdigest/internal/blob"
	"clipdigest/internal/config"
	"clipdigest/internal/githubmatch"
	"clipdigest/internal/items"
	"clipdigest/internal/services/github"
)

func newItemsCommand(ctx *commandContext) *cobra.Command {
	itemsCmd := &cobra.Command{
		Use:   "items",
		Short: "Inspect and enrich stored content items",
	}

	itemsCmd.AddCommand(newItemsListCommand(ctx))
	itemsCmd.AddCommand(newItemsStatsCommand(ctx))
	itemsCmd.AddCommand(newItemsEnrichCommand(ctx))

	return itemsCmd
}

func newItemsListCommand(ctx *commandContext) *cobra.Command {
	var fromFlag string
	var toFlag string
	var minViewsFlag int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items in a date range, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseDayRange(fromFlag, toFlag)
			if err != nil {
				return err
			}
			return ctx.withItemStore(func(cfg *config.Config, store *items.Store) error {
				records, err := store.ListByDateRange(cmd.Context(), from, to, items.Filters{MinViews: minViewsFlag})
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No items found")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, item := range records {
					rows = append(rows, []string{
						item.ID,
						item.Title,
						string(item.Status),
						fmt.Sprintf("%.0fs", item.DurationSeconds),
						fmt.Sprintf("%d", item.ViewCount),
						fmt.Sprintf("%d", item.ContentScore),
						item.CreatedAt.UTC().Format(time.RFC3339),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Status", "Duration", "Views", "Score", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "Range start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "Range end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&minViewsFlag, "min-views", 0, "Minimum view count filter")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newItemsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show item counts by processing status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withItemStore(func(cfg *config.Config, store *items.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if len(stats) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No items recorded")
					return nil
				}
				rows := buildStatusCountRows(stats)
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Status", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func newItemsEnrichCommand(ctx *commandContext) *cobra.Command {
	var fromFlag string
	var toFlag string
	var repoFlag string

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Attach development context to items in a date range",
		Long: "Fetches repository events around each item's capture time and " +
			"stores the matched context in the blob store, advancing items to " +
			"the enhanced status.",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseDayRange(fromFlag, toFlag)
			if err != nil {
				return err
			}
			return ctx.withItemStore(func(cfg *config.Config, store *items.Store) error {
				githubCfg := cfg.GitHub
				if repo := strings.TrimSpace(repoFlag); repo != "" {
					githubCfg.Repository = repo
				}
				feed, err := github.New(githubCfg)
				if err != nil {
					return err
				}
				matcher := githubmatch.NewMatcher(feed, time.Duration(cfg.Matcher.WindowMinutes)*time.Minute)

				blobs, err := blob.NewFSStore(cfg.Paths.BlobDir)
				if err != nil {
					return err
				}
				artifacts := items.NewArtifacts(blobs)

				records, err := store.ListByDateRange(cmd.Context(), from, to, items.Filters{})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				enriched := 0
				for _, item := range records {
					devContext, err := matcher.Match(cmd.Context(), item.CreatedAt)
					if err != nil {
						return fmt.Errorf("match context for item %s: %w", item.ID, err)
					}
					if err := artifacts.SaveContext(cmd.Context(), item, devContext); err != nil {
						return fmt.Errorf("store context for item %s: %w", item.ID, err)
					}
					if items.CanAdvance(item.Status, items.StatusEnhanced) && item.Status != items.StatusEnhanced {
						if err := item.Advance(items.StatusEnhanced, time.Now().UTC()); err != nil {
							return fmt.Errorf("advance item %s: %w", item.ID, err)
						}
					}
					if err := store.Upsert(cmd.Context(), item); err != nil {
						return fmt.Errorf("persist item %s: %w", item.ID, err)
					}
					fmt.Fprintf(out, "%s confidence=%.2f (%s)\n", item.ID, devContext.Confidence, devContext.MatchReason)
					enriched++
				}
				fmt.Fprintf(out, "Enriched %d items\n", enriched)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "Range start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "Range end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&repoFlag, "repo", "", "Repository override (owner/repo)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func parseDayRange(fromValue, toValue string) (time.Time, time.Time, error) {
	from, err := parseDayFlag(fromValue, "--from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDayFlag(toValue, "--to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to = to.Add(24*time.Hour - time.Second)
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to precedes --from")
	}
	return from, to, nil
}
