package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/model"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/seen"
)

const sourceFetchLimit = 4

// Service runs the poll cycle: fetch every watch, diff against the seen set,
// notify each new listing, and mark it seen once delivery is confirmed. A
// listing whose notification fails stays out of the seen set so the next
// cycle retries it; duplicate notifications on partial failure are accepted,
// silent drops are not.
type Service struct {
	store    seen.Store
	notifier Notifier
	sources  []Source
	logger   *slog.Logger

	mu      sync.Mutex
	running bool

	cycleMu sync.Mutex
	last    *CycleStats
}

// SourceStats counts what happened to one watch's listings during a cycle.
type SourceStats struct {
	Fetched    int    `json:"fetched"`
	New        int    `json:"new"`
	Notified   int    `json:"notified"`
	Duplicates int    `json:"duplicates"`
	Failed     int    `json:"failed"`
	FetchError string `json:"fetch_error,omitempty"`
}

// CycleStats summarizes one completed cycle for logs and the status endpoint.
type CycleStats struct {
	Run        string                  `json:"run"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Sources    map[string]*SourceStats `json:"sources"`
	Notified   int                     `json:"notified"`
	SeenCount  int                     `json:"seen_count"`
}

func NewService(store seen.Store, notifier Notifier, sources []Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, notifier: notifier, sources: sources, logger: logger}
}

// Run executes one cycle unless another is already in flight, in which case
// the trigger is dropped. Cycles never overlap, so no locking is needed
// around the diff itself.
func (s *Service) Run(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("check already running; skipping trigger")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.RunCycle(ctx)
}

// RunCycle performs the fetch → diff → notify → persist iteration and
// records its stats. Unlike Run it does not guard against overlap; callers
// that need the guard go through Run.
func (s *Service) RunCycle(ctx context.Context) CycleStats {
	stats := CycleStats{
		Run:       fmt.Sprintf("run-%d", time.Now().UnixNano()),
		StartedAt: time.Now().UTC(),
		Sources:   make(map[string]*SourceStats, len(s.sources)),
	}
	logger := s.logger.With("run", stats.Run)
	logger.Info("check started", "watches", len(s.sources))

	type result struct {
		name     string
		listings []model.Listing
		err      error
	}

	results := make(chan result, len(s.sources))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(sourceFetchLimit)

	for _, source := range s.sources {
		src := source
		group.Go(func() error {
			listings, err := src.Fetch(gctx)
			results <- result{name: src.Name(), listings: listings, err: err}
			return nil
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("fetch group error", "error", err)
	}
	close(results)

	handled := make(map[string]bool)
	for res := range results {
		st := stats.Sources[res.name]
		if st == nil {
			st = &SourceStats{}
			stats.Sources[res.name] = st
		}
		if res.err != nil {
			st.FetchError = res.err.Error()
			logger.Warn("fetch failed; watch skipped this cycle", "watch", res.name, "error", res.err)
			continue
		}
		st.Fetched += len(res.listings)

		for _, listing := range res.listings {
			key := listing.Key()
			if handled[key] {
				st.Duplicates++
				continue
			}
			alreadySeen, err := s.store.Seen(ctx, key)
			if err != nil {
				logger.Error("seen lookup failed; listing deferred to next cycle", "watch", res.name, "listing", key, "error", err)
				continue
			}
			if alreadySeen {
				st.Duplicates++
				continue
			}

			st.New++
			handled[key] = true

			if err := s.notifier.Send(ctx, listing); err != nil {
				st.Failed++
				logger.Warn("notification failed; listing stays unmarked for retry", "watch", res.name, "listing", key, "error", err)
				continue
			}
			st.Notified++
			stats.Notified++
			logger.Info("notified", "watch", res.name, "listing", key, "title", listing.Title)

			if err := s.store.Mark(ctx, key); err != nil {
				// Delivery happened but the mark did not stick; the listing
				// will be notified again next cycle (at-least-once).
				logger.Error("failed to mark listing as seen", "watch", res.name, "listing", key, "error", err)
			}
		}
	}

	for name, st := range stats.Sources {
		logger.Info("watch summary",
			"watch", name,
			"fetched", st.Fetched,
			"new", st.New,
			"notified", st.Notified,
			"duplicates", st.Duplicates,
			"failed", st.Failed,
		)
	}

	if count, err := s.store.Count(ctx); err == nil {
		stats.SeenCount = count
	}
	stats.FinishedAt = time.Now().UTC()
	logger.Info("check complete", "new", stats.Notified, "seen_total", stats.SeenCount)

	s.cycleMu.Lock()
	s.last = &stats
	s.cycleMu.Unlock()
	return stats
}

// LastCycle returns the most recent cycle stats, or false before the first
// cycle has completed.
func (s *Service) LastCycle() (CycleStats, bool) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	if s.last == nil {
		return CycleStats{}, false
	}
	return *s.last, true
}
