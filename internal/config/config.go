package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/providers/common"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/seen"
)

const (
	ChannelTelegram = "telegram"
	ChannelEmail    = "email"

	// The query the bot was born to watch; used when no watches file and no
	// OLX_QUERY_URL override are present.
	defaultQueryURL = "https://www.olx.ua/uk/list/q-playstation-tv/"
	defaultKeywords = "tv,playstation"
)

type Config struct {
	TelegramToken    string
	TelegramChat     string
	TelegramThreadID *int

	NotifyChannel string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	EmailTo      string

	StoreDriver string
	StorePath   string
	StoreTTL    time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	HTTPPort string
	CronSpec string

	WatchesFile string
	QueryURL    string
	Keywords    []string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChat:  os.Getenv("TELEGRAM_CHAT_ID"),

		NotifyChannel: envOrDefault("NOTIFY_CHANNEL", ChannelTelegram),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    os.Getenv("EMAIL_FROM"),
		EmailTo:      os.Getenv("EMAIL_TO"),

		StoreDriver: envOrDefault("STORE_DRIVER", seen.DriverFile),
		StorePath:   os.Getenv("STORE_PATH"),

		DBHost:     envOrDefault("DB_HOST", "localhost"),
		DBPort:     envOrDefault("DB_PORT", "5432"),
		DBUser:     envOrDefault("DB_USERNAME", "postgres"),
		DBPassword: envOrDefault("DB_PASSWORD", "postgres"),
		DBName:     envOrDefault("DB_DATABASE", "olxbot"),
		DBSSLMode:  envOrDefault("DB_SSLMODE", "disable"),

		HTTPPort: envOrDefault("HTTP_PORT", "3000"),
		CronSpec: envOrDefault("POLL_CRON", "*/5 * * * *"),

		WatchesFile: envOrDefault("WATCHES_FILE", "watches.yaml"),
		QueryURL:    envOrDefault("OLX_QUERY_URL", defaultQueryURL),
		Keywords:    common.SplitKeywords(envOrDefault("OLX_TITLE_KEYWORDS", defaultKeywords)),
	}

	threadID, err := envOrIntPtr("TELEGRAM_CHAT_THREAD_ID")
	if err != nil {
		return cfg, err
	}
	cfg.TelegramThreadID = threadID

	cfg.SMTPPort, err = envOrInt("SMTP_PORT", 587)
	if err != nil {
		return cfg, err
	}

	cfg.StoreTTL, err = envOrDuration("STORE_TTL", 0)
	if err != nil {
		return cfg, err
	}

	if cfg.StorePath == "" {
		switch cfg.StoreDriver {
		case seen.DriverFile:
			cfg.StorePath = "seen_ads.json"
		case seen.DriverSQLite:
			cfg.StorePath = "data/seen.db"
		case seen.DriverBadger:
			cfg.StorePath = "data/seen"
		}
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.NotifyChannel {
	case ChannelTelegram:
		if c.TelegramToken == "" || c.TelegramChat == "" {
			return errors.New("missing TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID")
		}
	case ChannelEmail:
		if c.SMTPHost == "" || c.EmailFrom == "" || c.EmailTo == "" {
			return errors.New("missing SMTP_HOST, EMAIL_FROM or EMAIL_TO")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_CHANNEL %q (expected telegram or email)", c.NotifyChannel)
	}

	switch c.StoreDriver {
	case seen.DriverFile, seen.DriverSQLite, seen.DriverBadger, seen.DriverMemory:
	case seen.DriverPostgres:
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return errors.New("missing database configuration for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	return nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envOrInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func envOrIntPtr(key string) (*int, error) {
	val := os.Getenv(key)
	if val == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &parsed, nil
}

func envOrDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
