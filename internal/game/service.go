package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/kelime-arena/internal/game/scoring"
	"github.com/gokatarajesh/kelime-arena/internal/metrics"
	"github.com/gokatarajesh/kelime-arena/internal/words"
)

// Oracle supplies secrets and validates guesses.
type Oracle interface {
	RandomSecret(ctx context.Context, length int) (string, error)
	IsValid(ctx context.Context, word string) bool
}

// CPUPlayer chooses the computer's next guess from the visible history.
type CPUPlayer interface {
	ChooseNextGuess(history []Guess, length int) (string, bool)
}

// Service orchestrates session transitions. Every transition is one Store.Update;
// oracle calls happen before the transaction so a failure never leaves a partial write.
type Service struct {
	store   Store
	oracle  Oracle
	cpu     CPUPlayer
	machine *Machine
	opts    ServiceOptions
	logger  zerolog.Logger
}

// ServiceOptions configures the session service.
type ServiceOptions struct {
	ScoringConfig      scoring.ScoringConfig
	DefaultTimeLimit   time.Duration
	DefaultMatchLength int
	MaxMatchLength     int
	// TimeoutGrace is how long past the deadline a turn may be failed by someone other
	// than the active player.
	TimeoutGrace time.Duration

	Deadlines   DeadlineIndex
	Archive     Archive
	Leaderboard MatchRecorder
	Metrics     *metrics.Metrics
	Clock       func() time.Time
}

// NewService creates the session service.
func NewService(store Store, oracle Oracle, cpu CPUPlayer, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.DefaultTimeLimit <= 0 {
		opts.DefaultTimeLimit = 60 * time.Second
	}
	if opts.DefaultMatchLength <= 0 {
		opts.DefaultMatchLength = 3
	}
	if opts.MaxMatchLength <= 0 {
		opts.MaxMatchLength = 10
	}
	if opts.TimeoutGrace <= 0 {
		opts.TimeoutGrace = 5 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if len(opts.ScoringConfig.WinTable) == 0 {
		opts.ScoringConfig = scoring.DefaultScoringConfig()
	}

	return &Service{
		store:   store,
		oracle:  oracle,
		cpu:     cpu,
		machine: NewMachine(scoring.NewEngine(opts.ScoringConfig)),
		opts:    opts,
		logger:  logger.With().Str("component", "game_service").Logger(),
	}
}

func (s *Service) now() time.Time {
	return s.opts.Clock().UTC()
}

// CreateSession draws a secret and stores a new record under a fresh code.
func (s *Service) CreateSession(ctx context.Context, p CreateParams) (*Record, error) {
	if p.Mode == "" {
		p.Mode = ModeDuel
	}
	if p.TimeLimit == 0 {
		p.TimeLimit = s.opts.DefaultTimeLimit
	}
	if p.MatchLength == 0 {
		p.MatchLength = s.opts.DefaultMatchLength
	}
	if p.WordLength == 0 && p.RandomLength {
		p.WordLength = randomLength()
	}
	if p.MatchLength > s.opts.MaxMatchLength || !ValidWordLength(p.WordLength) {
		s.observe("create_session", ErrInvalidConfig)
		return nil, ErrInvalidConfig
	}

	secret, err := s.drawSecret(ctx, p.WordLength)
	if err != nil {
		s.observe("create_session", err)
		return nil, err
	}

	for attempt := 0; attempt < 5; attempt++ {
		rec, err := s.machine.NewRecord(NewCode(), p, secret, s.now())
		if err != nil {
			s.observe("create_session", err)
			return nil, err
		}
		err = s.store.Create(ctx, rec)
		if errors.Is(err, ErrSessionExists) {
			continue
		}
		if err != nil {
			s.observe("create_session", err)
			return nil, fmt.Errorf("create session: %w", err)
		}

		s.observe("create_session", nil)
		s.logger.Info().
			Str("game_id", rec.ID).
			Str("creator_id", rec.CreatorID).
			Str("mode", string(rec.Mode)).
			Int("word_length", rec.WordLength).
			Int("match_length", rec.MatchLength).
			Str("status", string(rec.Status)).
			Msg("session created")
		return s.afterCommit(ctx, rec, nil), nil
	}

	s.observe("create_session", ErrSessionExists)
	return nil, fmt.Errorf("allocate session code: %w", ErrSessionExists)
}

// JoinSession seats playerID. Joining twice returns the unchanged record.
func (s *Service) JoinSession(ctx context.Context, gameID, playerID, username string) (*Record, error) {
	joined := false
	rec, err := s.store.Update(ctx, gameID, func(rec *Record) error {
		joined = false
		if err := s.machine.Join(rec, playerID, username, s.now()); err != nil {
			return err
		}
		joined = true
		return nil
	})
	s.observe("join_session", err)
	if err != nil {
		return nil, err
	}
	if !joined {
		return rec, nil
	}

	s.logger.Info().
		Str("game_id", gameID).
		Str("player_id", playerID).
		Int("player_count", len(rec.Players)).
		Str("status", string(rec.Status)).
		Msg("player joined session")
	return s.afterCommit(ctx, rec, nil), nil
}

// SubmitGuess validates and records a guess. Unknown words are rejected
// with ErrInvalidWord and do not consume a guess.
func (s *Service) SubmitGuess(ctx context.Context, gameID, playerID, word string) (*Record, error) {
	word = words.Normalize(word)
	valid := s.oracle.IsValid(ctx, word)

	var out Outcome
	rec, err := s.store.Update(ctx, gameID, func(rec *Record) error {
		o, err := s.machine.Guess(rec, playerID, word, valid, s.now())
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	s.observe("submit_guess", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("game_id", gameID).
		Str("player_id", playerID).
		Int("round", rec.CurrentRound).
		Bool("round_finished", out.RoundFinished).
		Msg("guess submitted")
	return s.afterCommit(ctx, rec, &out), nil
}

// FailTurn records a timed-out turn. seq identifies the turn the caller saw expire;
// if that turn is already over the call is a silent no-op.
func (s *Service) FailTurn(ctx context.Context, gameID, playerID string, seq int) (*Record, error) {
	var out *Outcome
	rec, err := s.store.Update(ctx, gameID, func(rec *Record) error {
		out = nil
		o, err := s.machine.FailTurn(rec, playerID, seq, s.now())
		if err != nil {
			return err
		}
		out = &o
		return nil
	})
	s.observe("fail_turn", err)
	if err != nil {
		return nil, err
	}
	if out == nil {
		s.logger.Debug().Str("game_id", gameID).Str("player_id", playerID).Int("seq", seq).Msg("stale fail turn ignored")
		return rec, nil
	}

	s.logger.Info().
		Str("game_id", gameID).
		Str("player_id", playerID).
		Int("round", rec.CurrentRound).
		Bool("round_finished", out.RoundFinished).
		Msg("turn failed")
	return s.afterCommit(ctx, rec, out), nil
}

// ClaimTimeout lets any member fail the active player's turn once it is overdue
// by the grace period. It covers an active player who disconnected.
func (s *Service) ClaimTimeout(ctx context.Context, gameID, callerID string) (*Record, error) {
	var out *Outcome
	rec, err := s.store.Update(ctx, gameID, func(rec *Record) error {
		out = nil
		if !rec.IsMember(callerID) {
			return ErrNotMember
		}
		o, err := s.machine.Expire(rec, 0, s.now(), s.opts.TimeoutGrace)
		if err != nil {
			return err
		}
		out = &o
		return nil
	})
	s.observe("claim_timeout", err)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return rec, nil
	}

	s.logger.Info().
		Str("game_id", gameID).
		Str("caller_id", callerID).
		Str("player_id", out.PlayerID).
		Msg("overdue turn claimed")
	return s.afterCommit(ctx, rec, out), nil
}

// ExpireTurn is the watchdog path: it fails the running turn if it is overdue.
// expired is false when the turn is still within its budget or already over.
func (s *Service) ExpireTurn(ctx context.Context, gameID string) (expired bool, err error) {
	var out *Outcome
	rec, err := s.store.Update(ctx, gameID, func(rec *Record) error {
		out = nil
		o, err := s.machine.Expire(rec, 0, s.now(), s.opts.TimeoutGrace)
		if err != nil {
			return err
		}
		out = &o
		return nil
	})
	switch {
	case errors.Is(err, ErrSessionNotFound):
		s.clearDeadline(ctx, gameID)
		return false, nil
	case errors.Is(err, ErrTurnNotExpired):
		if current, getErr := s.store.Get(ctx, gameID); getErr == nil {
			s.trackDeadline(ctx, current)
		}
		return false, nil
	case err != nil:
		return false, err
	}
	if out == nil {
		s.trackDeadline(ctx, rec)
		return false, nil
	}

	s.observe("expire_turn", nil)
	s.logger.Info().
		Str("game_id", gameID).
		Str("player_id", out.PlayerID).
		Int("round", rec.CurrentRound).
		Msg("watchdog failed stalled turn")
	s.afterCommit(ctx, rec, out)
	return true, nil
}

// StartNextRound draws a new secret and resets the record for the next round.
func (s *Service) StartNextRound(ctx context.Context, gameID, playerID string) (*Record, error) {
	current, err := s.store.Get(ctx, gameID)
	if err != nil {
		s.observe("next_round", err)
		return nil, err
	}

	length := current.WordLength
	if current.RandomLength {
		length = randomLength()
	}
	secret, err := s.drawSecret(ctx, length)
	if err != nil {
		s.observe("next_round", err)
		return nil, err
	}

	rec, err := s.store.Update(ctx, gameID, func(rec *Record) error {
		return s.machine.NextRound(rec, playerID, secret, s.now())
	})
	s.observe("next_round", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("game_id", gameID).
		Int("round", rec.CurrentRound).
		Int("word_length", rec.WordLength).
		Msg("next round started")
	return s.afterCommit(ctx, rec, nil), nil
}

// LeaveSession acknowledges a departing player. The record is not modified:
// leaving is a client disconnect, and the player's turns keep timing out.
func (s *Service) LeaveSession(ctx context.Context, gameID, playerID string) error {
	rec, err := s.store.Get(ctx, gameID)
	if err != nil {
		return err
	}
	if !rec.IsMember(playerID) {
		return ErrNotMember
	}
	s.logger.Info().Str("game_id", gameID).Str("player_id", playerID).Msg("player left session")
	return nil
}

// Get returns the current record.
func (s *Service) Get(ctx context.Context, gameID string) (*Record, error) {
	return s.store.Get(ctx, gameID)
}

// Subscribe streams committed records for gameID until ctx is done.
func (s *Service) Subscribe(ctx context.Context, gameID string) (<-chan *Record, error) {
	return s.store.Subscribe(ctx, gameID)
}

// Now is the server clock used for turn timestamps.
func (s *Service) Now() time.Time {
	return s.now()
}

// afterCommit runs the side effects of a committed transition and, in CPU sessions,
// plays the computer's turn. It returns the latest record.
func (s *Service) afterCommit(ctx context.Context, rec *Record, out *Outcome) *Record {
	s.trackDeadline(ctx, rec)
	if out != nil && out.RoundFinished {
		s.reportRound(ctx, rec, *out)
	}

	if rec.Mode == ModeCPU && rec.Status == StatusPlaying && rec.CurrentPlayerID() == CPUPlayerID {
		next, err := s.playCPUTurn(ctx, rec)
		if err != nil {
			s.logger.Warn().Err(err).Str("game_id", rec.ID).Msg("cpu turn failed")
			return rec
		}
		return next
	}
	return rec
}

func (s *Service) playCPUTurn(ctx context.Context, rec *Record) (*Record, error) {
	var history []Guess
	for _, id := range rec.PlayerOrder() {
		history = append(history, rec.Players[id].Guesses...)
	}

	word, ok := s.cpu.ChooseNextGuess(history, rec.WordLength)
	if !ok || !s.oracle.IsValid(ctx, word) {
		return s.FailTurn(ctx, rec.ID, CPUPlayerID, rec.Turn.Seq)
	}
	return s.SubmitGuess(ctx, rec.ID, CPUPlayerID, word)
}

func (s *Service) reportRound(ctx context.Context, rec *Record, out Outcome) {
	outcome := "no_winner"
	if out.WinnerID != "" {
		outcome = "win"
	}
	s.opts.Metrics.RoundFinished(outcome)

	s.logger.Info().
		Str("game_id", rec.ID).
		Int("round", rec.CurrentRound).
		Str("winner_id", out.WinnerID).
		Int("award", out.Award).
		Bool("match_over", out.MatchOver).
		Msg("round finished")

	if s.opts.Archive != nil {
		if err := s.opts.Archive.SaveRound(ctx, newRoundReport(rec)); err != nil {
			s.logger.Warn().Err(err).Str("game_id", rec.ID).Msg("archive round failed")
		}
	}
	if !out.MatchOver {
		return
	}

	report := newMatchReport(rec)
	if s.opts.Archive != nil {
		if err := s.opts.Archive.SaveMatch(ctx, report); err != nil {
			s.logger.Warn().Err(err).Str("game_id", rec.ID).Msg("archive match failed")
		}
	}
	if s.opts.Leaderboard != nil {
		if err := s.opts.Leaderboard.RecordMatch(ctx, report); err != nil {
			s.logger.Warn().Err(err).Str("game_id", rec.ID).Msg("leaderboard update failed")
		}
	}
}

func (s *Service) trackDeadline(ctx context.Context, rec *Record) {
	if s.opts.Deadlines == nil {
		return
	}
	deadline, ok := rec.Deadline()
	if !ok {
		s.clearDeadline(ctx, rec.ID)
		return
	}
	if err := s.opts.Deadlines.SetDeadline(ctx, rec.ID, deadline); err != nil {
		s.logger.Warn().Err(err).Str("game_id", rec.ID).Msg("index deadline failed")
	}
}

func (s *Service) clearDeadline(ctx context.Context, gameID string) {
	if s.opts.Deadlines == nil {
		return
	}
	if err := s.opts.Deadlines.ClearDeadline(ctx, gameID); err != nil {
		s.logger.Warn().Err(err).Str("game_id", gameID).Msg("clear deadline failed")
	}
}

func (s *Service) drawSecret(ctx context.Context, length int) (string, error) {
	secret, err := s.oracle.RandomSecret(ctx, length)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWordUnavailable, err)
	}
	return secret, nil
}

func (s *Service) observe(op string, err error) {
	s.opts.Metrics.Transition(op, Code(err))
}

func randomLength() int {
	return WordLengths[rand.Intn(len(WordLengths))]
}
