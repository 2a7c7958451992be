package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipdigest/internal/config"
	"clipdigest/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Create and inspect content generation jobs",
	}

	jobsCmd.AddCommand(newJobsCreateCommand(ctx))
	jobsCmd.AddCommand(newJobsStatusCommand(ctx))
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	jobsCmd.AddCommand(newJobsStatsCommand(ctx))

	return jobsCmd
}

func newJobsCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		fromFlag          string
		toFlag            string
		typeFlag          string
		repoFlag          string
		minViewsFlag      int
		minDurationFlag   float64
		maxDurationFlag   float64
		categoriesFlag    []string
		minConfidenceFlag float64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Queue a content generation job",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDayFlag(fromFlag, "--from")
			if err != nil {
				return err
			}
			to, err := parseDayFlag(toFlag, "--to")
			if err != nil {
				return err
			}
			// The end date is inclusive: cover the whole final day.
			to = to.Add(24*time.Hour - time.Second)

			request := jobs.ContentGenerationRequest{
				DateRange:   jobs.DateRange{Start: from, End: to},
				ContentType: jobs.ContentType(strings.TrimSpace(typeFlag)),
				Repository:  strings.TrimSpace(repoFlag),
			}
			if minViewsFlag > 0 || minDurationFlag > 0 || maxDurationFlag > 0 ||
				len(categoriesFlag) > 0 || minConfidenceFlag > 0 {
				request.Filters = &jobs.RequestFilters{
					MinViews:      minViewsFlag,
					MinDuration:   minDurationFlag,
					MaxDuration:   maxDurationFlag,
					Categories:    categoriesFlag,
					MinConfidence: minConfidenceFlag,
				}
			}

			return ctx.withJobStore(func(cfg *config.Config, store *jobs.Store) error {
				job, _, err := store.CreateJob(cmd.Context(), request)
				if err != nil {
					return err
				}
				view := jobs.NewStatusView(job, cfg.Paths.PublicBaseURL)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued job %s (%s)\n", job.ID, request.ContentType)
				if view.StatusURL != "" {
					fmt.Fprintf(out, "Status: %s\n", view.StatusURL)
				}
				fmt.Fprintf(out, "Expires: %s\n", job.ExpiresAt.UTC().Format(time.RFC3339))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "Range start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "Range end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&typeFlag, "type", string(jobs.ContentDailyRecap), "Content type (daily_recap, weekly_summary, topic_focus)")
	cmd.Flags().StringVar(&repoFlag, "repo", "", "Repository override (owner/repo)")
	cmd.Flags().IntVar(&minViewsFlag, "min-views", 0, "Minimum view count filter")
	cmd.Flags().Float64Var(&minDurationFlag, "min-duration", 0, "Minimum clip duration in seconds")
	cmd.Flags().Float64Var(&maxDurationFlag, "max-duration", 0, "Maximum clip duration in seconds")
	cmd.Flags().StringSliceVar(&categoriesFlag, "category", nil, "Category filter (repeatable)")
	cmd.Flags().Float64Var(&minConfidenceFlag, "min-confidence", 0, "Minimum context confidence for digest sections")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newJobsStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the polling view of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobStore(func(cfg *config.Config, store *jobs.Store) error {
				job, err := store.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %s not found", args[0])
				}
				view := jobs.NewStatusView(job, cfg.Paths.PublicBaseURL)
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(view)
			})
		},
	}
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status jobs.Status
			if trimmed := strings.TrimSpace(statusFlag); trimmed != "" {
				parsed, ok := jobs.ParseJobStatus(trimmed)
				if !ok {
					return fmt.Errorf("unknown job status %q", trimmed)
				}
				status = parsed
			}
			return ctx.withJobStore(func(cfg *config.Config, store *jobs.Store) error {
				records, err := store.List(cmd.Context(), status, limitFlag)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs found")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, job := range records {
					rows = append(rows, []string{
						job.ID,
						string(job.Status),
						string(job.Request.ContentType),
						formatProgress(job.Progress),
						job.CreatedAt.UTC().Format(time.RFC3339),
						job.ExpiresAt.UTC().Format(time.RFC3339),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Status", "Type", "Progress", "Created", "Expires"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Filter by job status")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum rows to return")
	return cmd
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Requeue a failed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobStore(func(cfg *config.Config, store *jobs.Store) error {
				job, err := store.RetryFailed(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued job %s\n", job.ID)
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove completed and failed jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobStore(func(cfg *config.Config, store *jobs.Store) error {
				removed, err := store.ClearTerminal(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d terminal jobs\n", removed)
				return nil
			})
		},
	}
}

func newJobsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show job counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobStore(func(cfg *config.Config, store *jobs.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if len(stats) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
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

func buildStatusCountRows[K ~string](stats map[K]int) [][]string {
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, fmt.Sprintf("%d", stats[K(key)])})
	}
	return rows
}

func formatProgress(progress *jobs.Progress) string {
	if progress == nil {
		return "-"
	}
	return fmt.Sprintf("%s %d/%d", progress.Step, progress.Current, progress.Total)
}

func parseDayFlag(value, flag string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%s is required", flag)
	}
	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD: %w", flag, err)
	}
	return parsed.UTC(), nil
}
