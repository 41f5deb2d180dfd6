package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/config"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/email"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/httpapi"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/providers/olx"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/providers/rss"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/scheduler"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/seen"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/services/monitor"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/telegram"
)

type Builder struct {
	cfg    *config.Config
	logger *slog.Logger

	store    seen.Store
	notifier monitor.Notifier
	sources  []monitor.Source
	client   *http.Client

	scheduler *scheduler.Scheduler
	server    *http.Server
}

type BuilderOption func(*Builder)

func NewBuilder(cfg *config.Config, options ...BuilderOption) *Builder {
	builder := &Builder{cfg: cfg}
	for _, option := range options {
		option(builder)
	}
	return builder
}

func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

func WithStore(store seen.Store) BuilderOption {
	return func(b *Builder) {
		b.store = store
	}
}

func WithNotifier(notifier monitor.Notifier) BuilderOption {
	return func(b *Builder) {
		b.notifier = notifier
	}
}

func WithSources(sources []monitor.Source) BuilderOption {
	return func(b *Builder) {
		b.sources = sources
	}
}

func WithHTTPClient(client *http.Client) BuilderOption {
	return func(b *Builder) {
		b.client = client
	}
}

func WithScheduler(scheduler *scheduler.Scheduler) BuilderOption {
	return func(b *Builder) {
		b.scheduler = scheduler
	}
}

func WithHTTPServer(server *http.Server) BuilderOption {
	return func(b *Builder) {
		b.server = server
	}
}

func (b *Builder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, errors.New("config is required")
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	app := &App{Config: b.cfg, logger: b.logger}

	if b.store == nil {
		store, err := seen.Open(ctx, seen.Options{
			Driver:      b.cfg.StoreDriver,
			Path:        b.cfg.StorePath,
			PostgresDSN: b.cfg.PostgresDSN(),
			TTL:         b.cfg.StoreTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("open seen store: %w", err)
		}
		b.store = store
		app.ownsStore = true
	}
	app.Store = b.store

	if count, err := b.store.Count(ctx); err == nil {
		b.logger.Info("seen store opened", "driver", b.cfg.StoreDriver, "entries", count)
	}

	if b.client == nil {
		// Backstop only; fetch paths set tighter per-request deadlines.
		b.client = &http.Client{Timeout: 60 * time.Second}
	}

	if b.notifier == nil {
		notifier, err := b.buildNotifier()
		if err != nil {
			return nil, err
		}
		b.notifier = notifier
	}
	app.Notifier = b.notifier

	if b.sources == nil {
		sources, err := b.buildSources()
		if err != nil {
			return nil, err
		}
		b.sources = sources
	}
	app.Sources = b.sources

	app.Monitor = monitor.NewService(app.Store, app.Notifier, app.Sources, b.logger)

	if b.scheduler == nil {
		b.scheduler = scheduler.New(b.cfg.CronSpec, app.Monitor, b.logger)
	}
	app.Scheduler = b.scheduler

	if b.server == nil {
		handler := httpapi.NewHandler(app.Monitor)
		b.server = &http.Server{
			Addr:              ":" + b.cfg.HTTPPort,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	app.Server = b.server

	return app, nil
}

func (b *Builder) buildNotifier() (monitor.Notifier, error) {
	switch b.cfg.NotifyChannel {
	case config.ChannelTelegram:
		return telegram.NewSender(b.client, b.logger, b.cfg.TelegramToken, b.cfg.TelegramChat, b.cfg.TelegramThreadID)
	case config.ChannelEmail:
		return email.NewSender(email.Config{
			Host:     b.cfg.SMTPHost,
			Port:     b.cfg.SMTPPort,
			Username: b.cfg.SMTPUsername,
			Password: b.cfg.SMTPPassword,
			From:     b.cfg.EmailFrom,
			To:       b.cfg.EmailTo,
		})
	default:
		return nil, fmt.Errorf("unknown notify channel %q", b.cfg.NotifyChannel)
	}
}

func (b *Builder) buildSources() ([]monitor.Source, error) {
	watches, err := b.cfg.ResolveWatches()
	if err != nil {
		return nil, err
	}

	sources := make([]monitor.Source, 0, len(watches))
	for _, watch := range watches {
		if watch.Feed != "" {
			feed, err := rss.New(b.client, rss.Config{
				Name:     watch.Name,
				FeedURL:  watch.Feed,
				Limit:    watch.Limit,
				Keywords: watch.Keywords,
				Timeout:  watch.Timeout.Duration,
			})
			if err != nil {
				return nil, err
			}
			sources = append(sources, feed)
			continue
		}

		scraper, err := olx.New(b.client, b.logger, olx.Config{
			Name:     watch.Name,
			URL:      watch.URL,
			Pages:    watch.Pages,
			Keywords: watch.Keywords,
			MinPrice: watch.MinPrice,
			MaxPrice: watch.MaxPrice,
			Timeout:  watch.Timeout.Duration,
		})
		if err != nil {
			return nil, err
		}
		sources = append(sources, scraper)
	}

	b.logger.Info("watches configured", "count", len(sources))
	return sources, nil
}
