package game

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TimeLeft is the remaining budget of the running turn, floored at zero.
// It is the full limit before the round starts and zero once finished.
func TimeLeft(rec *Record, now time.Time) time.Duration {
	limit := time.Duration(rec.TimeLimitSeconds) * time.Second
	if rec.Status == StatusFinished {
		return 0
	}
	deadline, ok := rec.Deadline()
	if !ok {
		return limit
	}
	left := deadline.Sub(now)
	if left < 0 {
		return 0
	}
	if left > limit {
		return limit
	}
	return left
}

// FailFunc reports an expired turn identified by its seq.
type FailFunc func(ctx context.Context, seq int) error

// TurnTimer is the countdown one participant runs against its own turns.
// It ticks at a fixed interval and calls fail once per expired turn while
// playerID is the active player.
type TurnTimer struct {
	playerID string
	fail     FailFunc
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewTurnTimer builds a 1 Hz timer for playerID.
func NewTurnTimer(playerID string, fail FailFunc, logger zerolog.Logger) *TurnTimer {
	return &TurnTimer{
		playerID: playerID,
		fail:     fail,
		interval: time.Second,
		now:      time.Now,
		logger:   logger.With().Str("component", "turn_timer").Str("player_id", playerID).Logger(),
	}
}

// WithClock overrides the tick interval and time source.
func (t *TurnTimer) WithClock(interval time.Duration, now func() time.Time) *TurnTimer {
	t.interval = interval
	t.now = now
	return t
}

// Run consumes snapshots until ctx is done or the channel closes.
// Snapshots may arrive out of order; older versions are ignored.
func (t *TurnTimer) Run(ctx context.Context, snapshots <-chan *Record) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	var current *Record
	firedSeq := 0

	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-snapshots:
			if !ok {
				return
			}
			if current == nil || rec.Version >= current.Version {
				current = rec
			}
		case <-ticker.C:
			if current == nil || current.Status != StatusPlaying || current.Turn == nil {
				continue
			}
			if current.Turn.PlayerID != t.playerID || current.Turn.Seq == firedSeq {
				continue
			}
			if TimeLeft(current, t.now()) > 0 {
				continue
			}
			firedSeq = current.Turn.Seq
			if err := t.fail(ctx, firedSeq); err != nil {
				t.logger.Warn().Err(err).Str("game_id", current.ID).Int("seq", firedSeq).Msg("fail turn rejected")
			}
		}
	}
}
