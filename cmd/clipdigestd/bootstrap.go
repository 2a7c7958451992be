package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"clipdigest/internal/blob"
	"clipdigest/internal/config"
	"clipdigest/internal/items"
	"clipdigest/internal/jobs"
	"clipdigest/internal/logging"
	"clipdigest/internal/manifest"
	"clipdigest/internal/notifications"
	"clipdigest/internal/scoring"
	"clipdigest/internal/services/judge"
)

// run wires the worker's collaborators and drains the job queue until the
// context is cancelled. A file lock enforces single-instance execution.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	lockPath := filepath.Join(cfg.Paths.LogDir, "clipdigestd.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return errors.New("another clipdigestd instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release daemon lock", logging.Error(err))
		}
	}()

	pidPath := filepath.Join(cfg.Paths.LogDir, "clipdigestd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	jobStore, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer jobStore.Close()

	itemStore, err := items.Open(cfg)
	if err != nil {
		return fmt.Errorf("open item store: %w", err)
	}
	defer itemStore.Close()

	blobs, err := blob.NewFSStore(cfg.Paths.BlobDir)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	artifacts := items.NewArtifacts(blobs)

	weights, err := scoring.Normalize(scoring.WeightsFromConfig(cfg.Scoring))
	if err != nil {
		return fmt.Errorf("scoring weights: %w", err)
	}
	engine := scoring.NewEngine(weights, scoring.LimitsFromConfig(cfg.Scoring))
	builder := manifest.NewBuilder(artifacts, engine, manifest.OptionsFromConfig(cfg.Manifest), logger)

	var digestJudge jobs.DigestJudge
	if cfg.Judge.Enabled {
		digestJudge = judge.NewClient(cfg.Judge)
	}

	notifier := notifications.NewService(cfg)
	tracker := jobs.NewLogErrorTracker(logger)
	processor := jobs.NewProcessor(jobStore, itemStore, builder, digestJudge, notifier, tracker, logger)
	worker := jobs.NewWorker(cfg, jobStore, processor, logger)

	logger.Info("clipdigestd started",
		logging.String("lock", lockPath),
		logging.String("worker_id", worker.WorkerID()),
		logging.Bool("judge_enabled", cfg.Judge.Enabled),
		logging.Bool("matching_configured", strings.TrimSpace(cfg.GitHub.Repository) != ""),
	)

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker loop: %w", err)
	}

	logger.Info("clipdigestd shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
