package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/config"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/model"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/seen"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/services/monitor"
)

type nopNotifier struct{}

func (nopNotifier) Send(_ context.Context, _ model.Listing) error { return nil }

type nopSource struct{ name string }

func (s nopSource) Name() string { return s.name }

func (s nopSource) Fetch(_ context.Context) ([]model.Listing, error) { return nil, nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		NotifyChannel: config.ChannelTelegram,
		TelegramToken: "123456789:AAtest",
		TelegramChat:  "42",
		StoreDriver:   seen.DriverMemory,
		HTTPPort:      "8099",
		CronSpec:      "*/5 * * * *",
		WatchesFile:   filepath.Join(t.TempDir(), "missing.yaml"),
		QueryURL:      "https://www.olx.ua/uk/list/q-playstation-tv/",
		Keywords:      []string{"tv", "playstation"},
	}
}

func TestBuild_RequiresConfig(t *testing.T) {
	if _, err := NewBuilder(nil).Build(context.Background()); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestBuild_WiresEverything(t *testing.T) {
	cfg := testConfig(t)
	store := seen.NewMemoryStore()

	application, err := NewBuilder(cfg,
		WithLogger(testLogger()),
		WithStore(store),
		WithNotifier(nopNotifier{}),
		WithSources([]monitor.Source{nopSource{name: "vita"}}),
	).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if application.Store != store {
		t.Error("injected store not used")
	}
	if application.Monitor == nil {
		t.Error("monitor service not built")
	}
	if application.Scheduler == nil {
		t.Error("scheduler not built")
	}
	if application.Server == nil || application.Server.Addr != ":8099" {
		t.Errorf("server addr = %v", application.Server)
	}
	if len(application.Sources) != 1 || application.Sources[0].Name() != "vita" {
		t.Errorf("sources = %v", application.Sources)
	}
}

func TestBuild_DefaultsFromConfig(t *testing.T) {
	cfg := testConfig(t)

	application, err := NewBuilder(cfg, WithLogger(testLogger())).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if application.Store == nil {
		t.Fatal("store not opened")
	}
	if application.Notifier == nil {
		t.Fatal("notifier not built")
	}
	if len(application.Sources) != 1 {
		t.Fatalf("sources = %d, want the default watch", len(application.Sources))
	}
	if application.Sources[0].Name() != "default" {
		t.Errorf("source name = %q", application.Sources[0].Name())
	}
}

func TestBuild_UnknownChannel(t *testing.T) {
	cfg := testConfig(t)
	cfg.NotifyChannel = "pigeon"

	if _, err := NewBuilder(cfg, WithLogger(testLogger())).Build(context.Background()); err == nil {
		t.Fatal("expected error for unknown notify channel")
	}
}

func TestBuild_EmailNotifier(t *testing.T) {
	cfg := testConfig(t)
	cfg.NotifyChannel = config.ChannelEmail
	cfg.SMTPHost = "smtp.example.com"
	cfg.SMTPPort = 587
	cfg.EmailFrom = "bot@example.com"
	cfg.EmailTo = "me@example.com"

	application, err := NewBuilder(cfg, WithLogger(testLogger())).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if application.Notifier == nil {
		t.Fatal("notifier not built")
	}
}

func TestBuild_WatchesFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "watches.yaml")
	content := `watches:
  - name: vita-kyiv
    url: https://www.olx.ua/uk/kiev/q-ps-vita/
  - name: vita-feed
    feed: https://example.com/search.rss
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write watches: %v", err)
	}
	cfg.WatchesFile = path

	application, err := NewBuilder(cfg, WithLogger(testLogger())).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(application.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(application.Sources))
	}
	names := map[string]bool{}
	for _, src := range application.Sources {
		names[src.Name()] = true
	}
	if !names["vita-kyiv"] || !names["vita-feed"] {
		t.Errorf("source names = %v", names)
	}
}
