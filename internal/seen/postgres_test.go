package seen

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// Runs only when TEST_POSTGRES_DSN points at a disposable database.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer store.Close()

	key := fmt.Sprintf("olx/test-%d", time.Now().UnixNano())

	seen, err := store.Seen(ctx, key)
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if seen {
		t.Error("unmarked key reports seen")
	}

	if err := store.Mark(ctx, key); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if err := store.Mark(ctx, key); err != nil {
		t.Fatalf("second Mark: %v", err)
	}

	seen, err = store.Seen(ctx, key)
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if !seen {
		t.Error("marked key reports unseen")
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count < 1 {
		t.Errorf("count = %d, want >= 1", count)
	}
}
