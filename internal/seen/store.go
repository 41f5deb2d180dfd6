package seen

import (
	"context"
	"fmt"
	"time"
)

// Store is the durable set of listing keys that have already been notified.
// The monitor only calls Mark after the notification channel confirmed
// delivery, so a key's presence means "the user has been told about this ad
// at least once".
type Store interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
	Count(ctx context.Context) (int, error)
	Close() error
}

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Options selects and configures a store driver.
type Options struct {
	Driver      string
	Path        string        // state file (file), database file (sqlite) or directory (badger)
	PostgresDSN string        // postgres only
	TTL         time.Duration // sqlite only: re-notify after this window, 0 keeps keys forever
}

// Open builds the store named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverFile, "":
		return NewFileStore(opts.Path)
	case DriverSQLite:
		return NewSQLiteStore(opts.Path, opts.TTL)
	case DriverBadger:
		return NewBadgerStore(opts.Path)
	case DriverPostgres:
		return NewPostgresStore(ctx, opts.PostgresDSN)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
