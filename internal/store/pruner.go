package store

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPruneInterval is how often the Pruner sweeps expired sessions.
const DefaultPruneInterval = 10 * time.Minute

// Pruner periodically deletes sessions that have outlived their TTL.
type Pruner struct {
	store    Store
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewPruner creates a Pruner. A non-positive interval falls back to DefaultPruneInterval.
func NewPruner(s Store, ttl, interval time.Duration) *Pruner {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	return &Pruner{store: s, ttl: ttl, interval: interval, now: time.Now}
}

// Run starts the sweep loop. It blocks until the context is cancelled.
// A zero TTL disables pruning and Run returns immediately.
func (p *Pruner) Run(ctx context.Context) {
	if p.ttl <= 0 {
		slog.Debug("Pruner.Run: ttl disabled, not starting")
		return
	}
	slog.Info("Pruner.Run: starting session pruner", "interval", p.interval, "ttl", p.ttl)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Pruner.Run: stopping")
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep deletes every session last updated more than ttl ago and returns the count.
func (p *Pruner) Sweep(ctx context.Context) int {
	n, err := p.store.PruneSessions(ctx, p.now().Add(-p.ttl))
	if err != nil {
		slog.Error("Pruner.Sweep: prune failed", "error", err)
		return 0
	}
	if n > 0 {
		slog.Info("Pruner.Sweep: pruned expired sessions", "count", n)
	}
	return n
}
