package poll

import (
	"context"
	"errors"
	"testing"
	"time"
)

type job struct {
	status string
	seq    int
}

// TestImmediateTerminal tests that an already-terminal job returns without
// waiting for a tick.
func TestImmediateTerminal(t *testing.T) {
	calls := 0
	start := time.Now()

	got, err := Until(context.Background(), Options[job]{
		Interval: time.Hour,
		Fetch: func(ctx context.Context) (job, error) {
			calls++
			return job{status: "completed", seq: calls}, nil
		},
		Terminal: func(j job) bool { return j.status == "completed" },
	})
	if err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("Expected immediate return, waited for a tick")
	}
	// One initial fetch plus one final fetch after the terminal status.
	if calls != 2 {
		t.Errorf("Expected 2 fetches, got %d", calls)
	}
	if got.seq != 2 {
		t.Errorf("Expected the final fetch's snapshot, got seq %d", got.seq)
	}
}

// TestPollsUntilTerminal tests that intermediate snapshots keep the loop
// going and every successful snapshot reaches OnUpdate.
func TestPollsUntilTerminal(t *testing.T) {
	statuses := []string{"pending", "processing", "completed", "completed"}
	calls := 0
	var seen []string

	got, err := Until(context.Background(), Options[job]{
		Interval: 5 * time.Millisecond,
		Fetch: func(ctx context.Context) (job, error) {
			s := statuses[calls]
			calls++
			return job{status: s, seq: calls}, nil
		},
		Terminal: func(j job) bool { return j.status == "completed" },
		OnUpdate: func(j job) { seen = append(seen, j.status) },
	})
	if err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if got.status != "completed" {
		t.Errorf("Expected completed, got %q", got.status)
	}
	if len(seen) != 4 {
		t.Fatalf("Expected 4 OnUpdate calls, got %d (%v)", len(seen), seen)
	}
}

// TestFetchErrorRetries tests that a failing tick is swallowed and the loop
// continues to the next interval.
func TestFetchErrorRetries(t *testing.T) {
	calls := 0

	got, err := Until(context.Background(), Options[job]{
		Interval: 5 * time.Millisecond,
		Fetch: func(ctx context.Context) (job, error) {
			calls++
			if calls == 2 {
				return job{}, errors.New("transient")
			}
			if calls >= 3 {
				return job{status: "completed"}, nil
			}
			return job{status: "pending"}, nil
		},
		Terminal: func(j job) bool { return j.status == "completed" },
	})
	if err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if got.status != "completed" {
		t.Errorf("Expected completed, got %q", got.status)
	}
	if calls < 3 {
		t.Errorf("Expected the loop to survive the failing tick, got %d calls", calls)
	}
}

// TestContextCancel tests that cancellation stops the loop with ctx.Err().
func TestContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Until(ctx, Options[job]{
		Interval: time.Hour,
		Fetch: func(ctx context.Context) (job, error) {
			return job{status: "pending"}, nil
		},
		Terminal: func(j job) bool { return false },
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

// TestFinalFetchErrorKeepsTerminalSnapshot tests that a failing final fetch
// does not discard the terminal snapshot already in hand.
func TestFinalFetchErrorKeepsTerminalSnapshot(t *testing.T) {
	calls := 0

	got, err := Until(context.Background(), Options[job]{
		Interval: time.Hour,
		Fetch: func(ctx context.Context) (job, error) {
			calls++
			if calls == 1 {
				return job{status: "failed", seq: 1}, nil
			}
			return job{}, errors.New("gone")
		},
		Terminal: func(j job) bool { return j.status == "failed" },
	})
	if err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if got.status != "failed" || got.seq != 1 {
		t.Errorf("Expected the terminal snapshot to stand, got %+v", got)
	}
}
