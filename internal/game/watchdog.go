package game

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/kelime-arena/internal/metrics"
)

const watchdogLock = "watchdog"

// Watchdog fails turns whose deadline passed more than the grace period ago.
// Only one instance sweeps at a time when a Locker is configured.
type Watchdog struct {
	svc      *Service
	index    DeadlineIndex
	locker   Locker
	interval time.Duration
	batch    int
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// WatchdogOptions configures the sweep cadence.
type WatchdogOptions struct {
	Interval time.Duration
	Batch    int
	Metrics  *metrics.Metrics
}

// NewWatchdog creates a watchdog sweeping index on behalf of svc.
func NewWatchdog(svc *Service, index DeadlineIndex, locker Locker, opts WatchdogOptions, logger zerolog.Logger) *Watchdog {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.Batch <= 0 {
		opts.Batch = 100
	}
	return &Watchdog{
		svc:      svc,
		index:    index,
		locker:   locker,
		interval: opts.Interval,
		batch:    opts.Batch,
		metrics:  opts.Metrics,
		logger:   logger.With().Str("component", "watchdog").Logger(),
	}
}

// Run sweeps on every tick until ctx is cancelled.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.interval).Msg("turn watchdog started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("turn watchdog stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep expires overdue turns once and returns how many it failed.
func (w *Watchdog) Sweep(ctx context.Context) int {
	if w.locker != nil {
		unlock, ok, err := w.locker.TryLock(ctx, watchdogLock, w.interval)
		if err != nil {
			w.logger.Warn().Err(err).Msg("watchdog lock failed")
			return 0
		}
		if !ok {
			return 0
		}
		defer func() {
			if err := unlock(); err != nil {
				w.logger.Warn().Err(err).Msg("watchdog unlock failed")
			}
		}()
	}

	cutoff := w.svc.Now().Add(-w.svc.opts.TimeoutGrace)
	ids, err := w.index.Overdue(ctx, cutoff, w.batch)
	if err != nil {
		w.logger.Error().Err(err).Msg("load overdue turns")
		return 0
	}

	expired := 0
	for _, id := range ids {
		ok, err := w.svc.ExpireTurn(ctx, id)
		if err != nil {
			w.logger.Warn().Err(err).Str("game_id", id).Msg("expire turn failed")
			continue
		}
		if ok {
			expired++
			w.metrics.WatchdogExpired()
		}
	}
	return expired
}
