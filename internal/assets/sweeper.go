package assets

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically removes expired files below a prefix.
type Sweeper struct {
	store    *Store
	prefix   string
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSweeper creates a sweeper for prefix.
func NewSweeper(store *Store, prefix string, maxAge, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:    store,
		prefix:   prefix,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// SweepOnce runs a single pass and returns the number of removed files.
func (s *Sweeper) SweepOnce() (int, error) {
	removed, err := s.store.Sweep(s.prefix, s.maxAge, s.now())
	if len(removed) > 0 {
		s.logger.Info("swept expired assets", "prefix", s.prefix, "removed", len(removed))
	}
	if err != nil {
		s.logger.Warn("asset sweep incomplete", "prefix", s.prefix, "err", err)
	}
	return len(removed), err
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Debug("asset sweeper started", "prefix", s.prefix, "max_age", s.maxAge, "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.SweepOnce()
		}
	}
}
