package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// OverdueExpirer is the conditional bulk expiry the worker drives.
type OverdueExpirer interface {
	ExpireAllOverdue(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryWorker periodically expires overdue exams so time-boxes are enforced
// even when the student never comes back. The update is conditional on the
// in-progress status, so racing with lazy expiry is harmless.
type ExpiryWorker struct {
	exams    OverdueExpirer
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(exams OverdueExpirer, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		exams:    exams,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine; returns when ctx is done.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	n, err := w.exams.ExpireAllOverdue(ctx, w.now())
	if err != nil {
		// One failed sweep is not fatal; the next tick tries again.
		w.log.Error().Err(err).Msg("Expiry sweep failed")
		return
	}
	if n > 0 {
		w.log.Info().Int64("expired", n).Msg("Overdue exams expired")
	}
}
