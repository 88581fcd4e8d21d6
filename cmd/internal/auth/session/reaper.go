package session

import (
	"context"
	"log/slog"
	"time"
)

// Reaper periodically evicts sessions idle past the configured TTL.
//
// It touches only the session store. One reaper per store is expected; it
// runs for the lifetime of the process.
type Reaper struct {
	log   *slog.Logger
	store *Store
	cfg   Config
}

// NewReaper constructs a reaper for the given store.
func NewReaper(log *slog.Logger, store *Store, cfg Config) *Reaper {
	if log == nil {
		log = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}
	return &Reaper{log: log, store: store, cfg: cfg}
}

// Sweep runs one eviction pass at the given time and returns the removed ids.
func (r *Reaper) Sweep(now time.Time) []int64 {
	removed := r.store.SweepExpired(now, r.cfg.TTL)
	if len(removed) > 0 {
		r.log.Info("session.reaper.sweep", "removed", len(removed), "live", r.store.Len())
	}
	return removed
}

// Run sweeps on a recurring ticker until ctx is canceled.
func (r *Reaper) Run(ctx context.Context) {
	r.log.Info("session.reaper.start", "interval", r.cfg.SweepInterval, "ttl", r.cfg.TTL)

	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("session.reaper.stop")
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}
