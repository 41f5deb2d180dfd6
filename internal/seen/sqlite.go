package seen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the seen set in a single-table SQLite database. A
// non-zero ttl turns the set into a sliding window: keys older than the
// window read as unseen again, so long-running deployments can re-surface
// relisted ads without external housekeeping.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite store path is required")
	}
	if ttl < 0 {
		return nil, errors.New("sqlite store ttl must be >= 0")
	}
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, ttl: ttl}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS seen_listings (
		key TEXT PRIMARY KEY,
		notified_at TIMESTAMP NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create seen_listings table: %w", err)
	}
	index := "CREATE INDEX IF NOT EXISTS seen_listings_notified_at_idx ON seen_listings (notified_at)"
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("create seen_listings index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Seen(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	var notifiedAt time.Time
	err := s.db.QueryRowContext(ctx, "SELECT notified_at FROM seen_listings WHERE key = ?", key).Scan(&notifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if s.ttl <= 0 {
		return true, nil
	}
	if notifiedAt.Before(time.Now().UTC().Add(-s.ttl)) {
		_, err := s.db.ExecContext(ctx, "DELETE FROM seen_listings WHERE key = ?", key)
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) Mark(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO seen_listings (key, notified_at) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET notified_at = excluded.notified_at",
		key,
		time.Now().UTC(),
	)
	return err
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM seen_listings").Scan(&count)
	return count, err
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
