// Command dashboard serves the coastal hazard dashboard API, runs its polling
// timers and, when enabled, consumes the live hazard report feed.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/app"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/config"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to build dashboard", "error", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		logger.Error("dashboard stopped with error", "error", err)
		os.Exit(1)
	}
}
