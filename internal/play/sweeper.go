package play

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper discards play sessions nobody has touched for a while.
type Sweeper struct {
	mgr      *Manager
	idle     time.Duration
	interval time.Duration
}

// NewSweeper creates a new Sweeper.
func NewSweeper(mgr *Manager, idle, interval time.Duration) *Sweeper {
	return &Sweeper{
		mgr:      mgr,
		idle:     idle,
		interval: interval,
	}
}

// Start runs the sweep loop. It blocks until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("play sweeper started", "interval", s.interval.String(), "idleTimeout", s.idle.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("play sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep discards idle sessions once and returns how many were removed.
func (s *Sweeper) Sweep() int {
	n := s.mgr.sweep(s.mgr.now().Add(-s.idle))
	if n > 0 {
		slog.Debug("play sweeper discarded sessions", "count", n, "remaining", s.mgr.Len())
	}
	return n
}
