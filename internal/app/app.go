package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/config"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/scheduler"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/seen"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/services/monitor"
)

type App struct {
	Config    *config.Config
	Store     seen.Store
	Notifier  monitor.Notifier
	Sources   []monitor.Source
	Monitor   *monitor.Service
	Scheduler *scheduler.Scheduler
	Server    *http.Server

	logger    *slog.Logger
	ownsStore bool
}

func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return err
	}

	go func() {
		a.logger.Info("HTTP server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()
	if err := a.Server.Shutdown(ctx); err != nil {
		return err
	}
	if a.ownsStore {
		if err := a.Store.Close(); err != nil {
			a.logger.Warn("failed to close seen store", "error", err)
		}
	}
	return nil
}
