package kiosk

import (
	"context"
	"log/slog"
	"time"
)

// Store persists application records. Implementations must be safe for
// concurrent use.
type Store interface {
	SaveApplication(ctx context.Context, rec Record) error
}

// DefaultSaveInterval is how often an active session is flushed to the
// store.
const DefaultSaveInterval = 10 * time.Second

// Saver periodically snapshots a session into a store. Persistence is
// best-effort: a failed save is logged and retried on the next tick, the
// kiosk flow never blocks on storage.
type Saver struct {
	session  *Session
	store    Store
	interval time.Duration
	logger   *slog.Logger
}

// NewSaver creates a saver for the session. A non-positive interval uses
// DefaultSaveInterval.
func NewSaver(session *Session, store Store, interval time.Duration, logger *slog.Logger) *Saver {
	if interval <= 0 {
		interval = DefaultSaveInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{session: session, store: store, interval: interval, logger: logger}
}

// Run flushes the session on every tick until ctx is cancelled, then
// performs one final save so the last state is not lost on shutdown.
func (sv *Saver) Run(ctx context.Context) {
	ticker := time.NewTicker(sv.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sv.save(ctx)
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			sv.save(final)
			cancel()
			return
		}
	}
}

func (sv *Saver) save(ctx context.Context) {
	rec := sv.session.Snapshot()
	if err := sv.store.SaveApplication(ctx, rec); err != nil {
		sv.logger.Warn("application save failed", "session", rec.ID, "error", err)
	}
}
