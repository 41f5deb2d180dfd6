package monitor

import (
	"context"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/model"
)

// Source produces the current listings for one configured watch.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Listing, error)
}

// Notifier pushes a single listing alert and reports whether delivery was
// confirmed. The cycle marks a listing as seen only on a nil return.
type Notifier interface {
	Send(ctx context.Context, listing model.Listing) error
}
