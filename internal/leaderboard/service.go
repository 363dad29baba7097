package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/kelime-arena/internal/game"
)

// Supported leaderboard windows.
const (
	WindowWeekly  = "weekly"
	WindowAllTime = "all_time"
)

var defaultWindows = []string{WindowWeekly, WindowAllTime}

// Entry represents a leaderboard row sent to clients.
type Entry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Wins     int    `json:"wins"`
	Games    int    `json:"games"`
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN           int
	WeeklyTTL      time.Duration
	RedisKeyPrefix string
	Clock          func() time.Time
}

// Service ranks players by match points in Redis sorted sets.
// The weekly window is keyed by ISO week, so it resets on Monday (UTC).
type Service struct {
	redis     *redis.Client
	logger    zerolog.Logger
	topN      int
	weeklyTTL time.Duration
	prefix    string
	now       func() time.Time
}

// NewService constructs a leaderboard service instance.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	weeklyTTL := opts.WeeklyTTL
	if weeklyTTL <= 0 {
		weeklyTTL = 14 * 24 * time.Hour
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb"
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &Service{
		redis:     redis,
		logger:    logger.With().Str("component", "leaderboard").Logger(),
		topN:      topN,
		weeklyTTL: weeklyTTL,
		prefix:    prefix,
		now:       now,
	}
}

// RecordMatch adds a concluded match to every window. The CPU seat is never ranked.
func (s *Service) RecordMatch(ctx context.Context, report game.MatchReport) error {
	for _, p := range report.Players {
		if p.PlayerID == game.CPUPlayerID {
			continue
		}
		for _, window := range defaultWindows {
			if err := s.updateWindow(ctx, window, p, p.PlayerID == report.WinnerID); err != nil {
				return err
			}
		}
	}

	s.logger.Debug().Str("game_id", report.GameID).Int("players", len(report.Players)).Msg("leaderboard updated")
	return nil
}

// Top retrieves the top entries for a given window.
func (s *Service) Top(ctx context.Context, window string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	zKey := s.leaderboardKey(window)
	results, err := s.redis.ZRevRangeWithScores(ctx, zKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		playerID := z.Member.(string)
		entry, err := s.readMeta(ctx, window, playerID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard metadata")
			continue
		}
		entry.Score = int(z.Score)
		entries = append(entries, entry)
	}
	return rank(entries), nil
}

func (s *Service) updateWindow(ctx context.Context, window string, p game.PlayerResult, won bool) error {
	zKey := s.leaderboardKey(window)
	metaKey := s.metaKey(window, p.PlayerID)

	pipe := s.redis.TxPipeline()
	pipe.ZIncrBy(ctx, zKey, float64(p.Score), p.PlayerID)
	pipe.HIncrBy(ctx, metaKey, "wins", int64(boolToInt(won)))
	pipe.HIncrBy(ctx, metaKey, "games", 1)
	pipe.HSet(ctx, metaKey, "username", p.Username)
	if window == WindowWeekly {
		pipe.Expire(ctx, zKey, s.weeklyTTL)
		pipe.Expire(ctx, metaKey, s.weeklyTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard window %s: %w", window, err)
	}
	return nil
}

func (s *Service) readMeta(ctx context.Context, window, playerID string) (Entry, error) {
	data, err := s.redis.HGetAll(ctx, s.metaKey(window, playerID)).Result()
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		PlayerID: playerID,
		Username: data["username"],
		Wins:     parseInt(data["wins"]),
		Games:    parseInt(data["games"]),
	}, nil
}

func (s *Service) leaderboardKey(window string) string {
	if window == WindowWeekly {
		year, week := s.now().UTC().ISOWeek()
		return fmt.Sprintf("%s:%s:%d-W%02d", s.prefix, window, year, week)
	}
	return fmt.Sprintf("%s:%s", s.prefix, window)
}

func (s *Service) metaKey(window, playerID string) string {
	return fmt.Sprintf("%s:meta:%s", s.leaderboardKey(window), playerID)
}
