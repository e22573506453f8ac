package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeExpirer struct {
	calls []time.Time
	err   error
}

func (f *fakeExpirer) ExpireAllOverdue(_ context.Context, now time.Time) (int64, error) {
	f.calls = append(f.calls, now)
	return 2, f.err
}

func TestSweepPassesCurrentTime(t *testing.T) {
	expirer := &fakeExpirer{}
	w := NewExpiryWorker(expirer, 15*time.Second, zerolog.Nop())

	fixed := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	w.sweep(context.Background())
	if len(expirer.calls) != 1 || !expirer.calls[0].Equal(fixed) {
		t.Fatalf("sweep calls %v, want one at %v", expirer.calls, fixed)
	}
}

func TestSweepSurvivesErrors(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("db down")}
	w := NewExpiryWorker(expirer, 15*time.Second, zerolog.Nop())

	// Must not panic; the next tick retries.
	w.sweep(context.Background())
	w.sweep(context.Background())
	if len(expirer.calls) != 2 {
		t.Fatalf("sweep attempts %d, want 2", len(expirer.calls))
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	expirer := &fakeExpirer{}
	w := NewExpiryWorker(expirer, time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	if len(expirer.calls) == 0 {
		t.Fatal("worker never swept")
	}
}
