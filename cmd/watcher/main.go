package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/app"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/config"
)

func main() {
	once := flag.Bool("once", false, "run a single check cycle and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	builder := app.NewBuilder(&cfg, app.WithLogger(logger))
	application, err := builder.Build(ctx)
	if err != nil {
		logger.Error("app build error", "error", err)
		os.Exit(1)
	}

	if *once {
		runOnce(ctx, application, logger)
		return
	}

	if err := application.Start(); err != nil {
		logger.Error("app start error", "error", err)
		os.Exit(1)
	}

	waitForShutdown(application, logger)
}

// runOnce runs a single check cycle and exits, for cron-driven setups where
// an external scheduler owns the cadence.
func runOnce(ctx context.Context, application *app.App, logger *slog.Logger) {
	stats := application.Monitor.RunCycle(ctx)
	logger.Info("single cycle finished", "run", stats.Run, "notified", stats.Notified)

	if err := application.Store.Close(); err != nil {
		logger.Warn("failed to close seen store", "error", err)
	}
}

func waitForShutdown(application *app.App, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
