package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy bounds how Do retries a failing operation. Zero values fall back to
// defaults suitable for polite scraping: 3 attempts, 500ms base delay doubling
// up to 5s, with up to 250ms of jitter.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.Jitter <= 0 {
		p.Jitter = 250 * time.Millisecond
	}
	return p
}

// Do runs fn until it succeeds or the attempt budget is spent, sleeping with
// exponential backoff between attempts. Context cancellation interrupts the
// wait and is returned as-is.
func Do(ctx context.Context, policy Policy, fn func() error) error {
	policy = policy.withDefaults()

	var lastErr error
	delay := policy.BaseDelay
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == policy.Attempts {
			break
		}

		sleep := delay + time.Duration(rand.Int63n(int64(policy.Jitter)))
		if sleep > policy.MaxDelay {
			sleep = policy.MaxDelay
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return fmt.Errorf("%d attempts failed: %w", policy.Attempts, lastErr)
}
