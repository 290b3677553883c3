package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically purges sessions whose TTL has elapsed. It talks to
// the store only through its public delete path, so expiry takes the same
// per-session scope as a client-triggered delete and never pulls a file out
// from under an in-progress conversion.
type Sweeper struct {
	store    *Store
	interval time.Duration
	ttl      time.Duration
	log      zerolog.Logger
}

// NewSweeper creates a sweeper. The interval should be shorter than the TTL.
func NewSweeper(store *Store, interval, ttl time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{store: store, interval: interval, ttl: ttl, log: log}
}

// Run ticks until the context is cancelled.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(time.Now())
		}
	}
}

// Sweep deletes every expired session and returns how many were removed.
// A single session's cleanup failure is logged and skipped, never fatal.
func (w *Sweeper) Sweep(now time.Time) int {
	removed := 0
	for _, token := range w.store.Tokens() {
		sess, ok := w.store.Peek(token)
		if !ok || now.Sub(sess.LastActivity()) < w.ttl {
			continue
		}
		if err := w.store.Delete(token); err != nil {
			w.log.Warn().Err(err).Str("session", token).Msg("expiry cleanup failed")
			continue
		}
		w.log.Info().Str("session", token).Msg("expired session cleaned up")
		removed++
	}
	return removed
}
