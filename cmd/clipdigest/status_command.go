package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clipdigest/internal/items"
	"clipdigest/internal/jobs"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline health and queue summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Environment", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("data dir", statusInfo, cfg.Paths.DataDir, colorize))
			fmt.Fprintln(out, renderStatusLine("blob dir", statusInfo, cfg.Paths.BlobDir, colorize))

			repoKind, repoMsg := statusOK, cfg.GitHub.Repository
			if strings.TrimSpace(cfg.GitHub.Repository) == "" {
				repoKind, repoMsg = statusWarn, "no repository configured; context matching disabled"
			}
			fmt.Fprintln(out, renderStatusLine("github", repoKind, repoMsg, colorize))

			judgeKind, judgeMsg := statusOK, "enabled"
			switch {
			case !cfg.Judge.Enabled:
				judgeKind, judgeMsg = statusInfo, "disabled"
			case strings.TrimSpace(cfg.Judge.APIKey) == "":
				judgeKind, judgeMsg = statusWarn, "enabled but no API key set"
			}
			fmt.Fprintln(out, renderStatusLine("judge", judgeKind, judgeMsg, colorize))

			notifyKind, notifyMsg := statusOK, "ntfy topic configured"
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
				notifyKind, notifyMsg = statusInfo, "notifications disabled"
			}
			fmt.Fprintln(out, renderStatusLine("notifications", notifyKind, notifyMsg, colorize))

			jobStore, err := jobs.Open(cfg)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("job store", statusError, err.Error(), colorize))
				return nil
			}
			defer jobStore.Close()

			jobStats, err := jobStore.Stats(cmd.Context())
			if err != nil {
				return err
			}

			itemStore, err := items.Open(cfg)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("item store", statusError, err.Error(), colorize))
				return nil
			}
			defer itemStore.Close()

			itemStats, err := itemStore.Stats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Jobs", colorize) {
				fmt.Fprintln(out, line)
			}
			queued := jobStats[jobs.StatusQueued]
			processing := jobStats[jobs.StatusProcessing]
			failed := jobStats[jobs.StatusFailed]
			fmt.Fprintln(out, renderStatusLine("queued", statusInfo, fmt.Sprintf("%d", queued), colorize))
			fmt.Fprintln(out, renderStatusLine("processing", statusInfo, fmt.Sprintf("%d", processing), colorize))
			fmt.Fprintln(out, renderStatusLine("completed", statusOK, fmt.Sprintf("%d", jobStats[jobs.StatusCompleted]), colorize))
			failedKind := statusOK
			if failed > 0 {
				failedKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("failed", failedKind, fmt.Sprintf("%d", failed), colorize))

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Items", colorize) {
				fmt.Fprintln(out, line)
			}
			total := 0
			for _, count := range itemStats {
				total += count
			}
			fmt.Fprintln(out, renderStatusLine("total", statusInfo, fmt.Sprintf("%d", total), colorize))
			fmt.Fprintln(out, renderStatusLine("ready", statusOK, fmt.Sprintf("%d", itemStats[items.StatusReadyForContent]), colorize))
			return nil
		},
	}
}
