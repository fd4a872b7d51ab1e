// Package poll drives a remote job to its terminal status by fetching it on a
// fixed interval and reporting each snapshot to the caller.
package poll

import (
	"context"
	"log"
	"time"
)

// DefaultInterval is the delay between fetches when the caller supplies none.
const DefaultInterval = 3 * time.Second

// Options controls a polling loop.
type Options[T any] struct {
	// Interval between fetches. Zero means DefaultInterval.
	Interval time.Duration
	// Fetch retrieves the current snapshot of the job.
	Fetch func(ctx context.Context) (T, error)
	// Terminal reports whether a snapshot represents a finished job.
	Terminal func(T) bool
	// OnUpdate, if non-nil, is called with every successful snapshot,
	// including the terminal one.
	OnUpdate func(T)
}

// Until fetches immediately, then on every interval tick, until a snapshot is
// terminal or ctx is canceled. Once terminal, one more fetch is performed to
// capture any last-moment update before returning. Fetch errors on
// intermediate ticks are logged and the loop continues. Ticks never overlap:
// the next fetch is scheduled only after the previous one returns.
func Until[T any](ctx context.Context, opts Options[T]) (T, error) {
	var zero T
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	snap, err := opts.Fetch(ctx)
	if err == nil {
		if opts.OnUpdate != nil {
			opts.OnUpdate(snap)
		}
		if opts.Terminal(snap) {
			return finalFetch(ctx, opts, snap)
		}
	} else {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		log.Printf("[Poll] fetch failed, will retry: %v", err)
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-timer.C:
		}

		snap, err := opts.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			log.Printf("[Poll] fetch failed, will retry: %v", err)
			timer.Reset(interval)
			continue
		}
		if opts.OnUpdate != nil {
			opts.OnUpdate(snap)
		}
		if opts.Terminal(snap) {
			return finalFetch(ctx, opts, snap)
		}
		timer.Reset(interval)
	}
}

// finalFetch re-reads the job once after a terminal status was seen. If the
// extra fetch fails, the already-terminal snapshot stands.
func finalFetch[T any](ctx context.Context, opts Options[T], terminal T) (T, error) {
	snap, err := opts.Fetch(ctx)
	if err != nil {
		return terminal, nil
	}
	if opts.OnUpdate != nil {
		opts.OnUpdate(snap)
	}
	return snap, nil
}
