package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/iudanet/tokenauth/internal/server/storage"
)

// Sweeper periodically deletes sessions whose expiry has passed. Validation
// already refuses them; sweeping only reclaims space.
type Sweeper struct {
	store    storage.SessionStorage
	logger   *slog.Logger
	now      func() time.Time
	interval time.Duration
}

// NewSweeper returns a Sweeper running every interval.
func NewSweeper(store storage.SessionStorage, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// A non-positive interval disables the loop.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce deletes every session expired at the current time.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now())
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.SweepOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "failed to sweep expired sessions", slog.Any("error", err))
		}
		return
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired sessions swept", slog.Int("count", n))
	}
}
