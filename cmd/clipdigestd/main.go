// Command clipdigestd runs the clipdigest background worker: it claims
// queued content-generation jobs, drives them through the pipeline, and
// sweeps expired records until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"clipdigest/internal/config"
	"clipdigest/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewWithFile(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir, os.Stdout)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("daemon exited", logging.Error(err))
		os.Exit(1)
	}
}
