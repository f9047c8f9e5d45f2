// Package sched drives periodic health scans on a fixed interval.
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/devdeck/devdeck/internal/scan"
)

// Scanner is the scan surface the scheduler drives.
type Scanner interface {
	Run(ctx context.Context) (*scan.Summary, error)
}

// Scheduler triggers a scan immediately on start and then once per interval
// until its context is cancelled. A scan overrunning the interval delays the
// next tick rather than overlapping it.
type Scheduler struct {
	scanner  Scanner
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

// New creates a scheduler.
func New(scanner Scanner, interval, timeout time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scanner:  scanner,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With().Str("component", "sched").Logger(),
	}
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("scheduler started")

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	scanCtx := ctx
	var cancel context.CancelFunc
	if s.timeout > 0 {
		scanCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if _, err := s.scanner.Run(scanCtx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled scan failed")
	}
}
