package game

import (
	"strings"
	"time"

	"github.com/gokatarajesh/kelime-arena/internal/game/coloring"
	"github.com/gokatarajesh/kelime-arena/internal/game/scoring"
)

// CreateParams configures a new session.
type CreateParams struct {
	CreatorID    string
	Username     string
	Mode         Mode
	WordLength   int
	RandomLength bool
	TimeLimit    time.Duration
	MatchLength  int
	InviteeID    string
}

// Outcome summarizes what a committed transition did.
type Outcome struct {
	PlayerID      string
	Guess         *Guess
	RoundFinished bool
	WinnerID      string
	Award         int
	MatchOver     bool
	MatchWinnerID string
}

// Machine applies transitions to records in memory. It performs no I/O;
// every call is meant to run inside a single Store.Update.
// A transition that returns an error leaves the record untouched.
type Machine struct {
	scoring *scoring.Engine
}

// NewMachine creates a state machine using the given scoring engine.
func NewMachine(engine *scoring.Engine) *Machine {
	if engine == nil {
		engine = scoring.NewEngine(scoring.DefaultScoringConfig())
	}
	return &Machine{scoring: engine}
}

// NewRecord builds the initial record for a session. Solo and CPU sessions start
// playing immediately; duels wait for a second player.
func (m *Machine) NewRecord(id string, p CreateParams, secret string, now time.Time) (*Record, error) {
	username := strings.TrimSpace(p.Username)
	if !ValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	switch {
	case p.CreatorID == "" || p.CreatorID == CPUPlayerID:
		return nil, ErrInvalidConfig
	case !p.Mode.Valid(), !ValidWordLength(p.WordLength):
		return nil, ErrInvalidConfig
	case p.TimeLimit < time.Second, p.MatchLength < 1:
		return nil, ErrInvalidConfig
	case p.InviteeID != "" && (p.Mode != ModeDuel || p.InviteeID == p.CreatorID):
		return nil, ErrInvalidConfig
	case coloring.Len(secret) != p.WordLength:
		return nil, ErrWordUnavailable
	}

	rec := &Record{
		ID:               id,
		Mode:             p.Mode,
		WordLength:       p.WordLength,
		RandomLength:     p.RandomLength,
		SecretWord:       secret,
		GuessLimit:       GuessLimit,
		TimeLimitSeconds: int(p.TimeLimit / time.Second),
		MatchLength:      p.MatchLength,
		CurrentRound:     1,
		CreatorID:        p.CreatorID,
		InviteeID:        p.InviteeID,
		Players:          make(map[string]*PlayerState, p.Mode.Seats()),
		Status:           StatusWaiting,
		Turn:             &Turn{PlayerID: p.CreatorID},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	rec.addPlayer(p.CreatorID, username, now)

	switch {
	case p.Mode == ModeSolo:
		rec.startRound(now)
	case p.Mode == ModeCPU:
		rec.addPlayer(CPUPlayerID, CPUUsername, now)
		rec.startRound(now)
	case p.InviteeID != "":
		rec.Status = StatusInvited
	}
	return rec, nil
}

// Join seats a second player. Rejoining is a no-op (ErrNoChange).
func (m *Machine) Join(rec *Record, playerID, username string, now time.Time) error {
	if rec.IsMember(playerID) {
		return ErrNoChange
	}
	if len(rec.Players) >= rec.Mode.Seats() {
		return ErrSessionFull
	}
	if rec.Status == StatusInvited && playerID != rec.InviteeID {
		return ErrNotInvited
	}
	username = strings.TrimSpace(username)
	if !ValidUsername(username) {
		return ErrInvalidUsername
	}
	if playerID == "" || playerID == CPUPlayerID {
		return ErrNotMember
	}

	rec.addPlayer(playerID, username, now)
	if len(rec.Players) == rec.Mode.Seats() {
		rec.startRound(now)
	}
	return nil
}

// Guess colors and appends word for playerID. inDictionary is the oracle's verdict,
// resolved by the caller before the transaction; an unknown word consumes nothing.
func (m *Machine) Guess(rec *Record, playerID, word string, inDictionary bool, now time.Time) (Outcome, error) {
	if err := checkTurn(rec, playerID); err != nil {
		return Outcome{}, err
	}
	if coloring.Len(word) != rec.WordLength {
		return Outcome{}, ErrInvalidLength
	}
	if !inDictionary {
		return Outcome{}, ErrInvalidWord
	}

	colors, err := coloring.Color(word, rec.SecretWord)
	if err != nil {
		return Outcome{}, ErrInvalidLength
	}
	return m.apply(rec, playerID, Guess{Word: word, Colors: colors}, now), nil
}

// FailTurn records a timed-out turn for playerID. seq is the turn the caller saw
// expire (0 if unknown). A finished round or a stale seq is a silent no-op.
func (m *Machine) FailTurn(rec *Record, playerID string, seq int, now time.Time) (Outcome, error) {
	if rec.Status != StatusPlaying || rec.Turn == nil {
		return Outcome{}, ErrNoChange
	}
	if seq > 0 && seq != rec.Turn.Seq {
		return Outcome{}, ErrNoChange
	}
	p, ok := rec.Players[playerID]
	if !ok {
		return Outcome{}, ErrNotMember
	}
	if rec.Mode.TurnBased() && rec.Turn.PlayerID != playerID {
		return Outcome{}, ErrNotYourTurn
	}
	if len(p.Guesses) >= rec.GuessLimit {
		return Outcome{}, ErrNoChange
	}

	word, tags := coloring.Failed(rec.WordLength)
	return m.apply(rec, playerID, Guess{Word: word, Colors: tags}, now), nil
}

// Expire fails the active player's turn once it is overdue by grace.
func (m *Machine) Expire(rec *Record, seq int, now time.Time, grace time.Duration) (Outcome, error) {
	if rec.Status != StatusPlaying || rec.Turn == nil {
		return Outcome{}, ErrNoChange
	}
	if seq > 0 && seq != rec.Turn.Seq {
		return Outcome{}, ErrNoChange
	}
	deadline, ok := rec.Deadline()
	if !ok || now.Before(deadline.Add(grace)) {
		return Outcome{}, ErrTurnNotExpired
	}
	return m.FailTurn(rec, rec.Turn.PlayerID, rec.Turn.Seq, now)
}

// NextRound starts the following round with a freshly drawn secret.
func (m *Machine) NextRound(rec *Record, playerID, secret string, now time.Time) error {
	if !rec.IsMember(playerID) {
		return ErrNotMember
	}
	if rec.Status != StatusFinished {
		return ErrRoundInProgress
	}
	if rec.CurrentRound >= rec.MatchLength {
		return ErrMatchComplete
	}
	length := coloring.Len(secret)
	if !ValidWordLength(length) {
		return ErrWordUnavailable
	}

	rec.WordLength = length
	rec.SecretWord = secret
	rec.CurrentRound++
	for _, p := range rec.Players {
		p.Guesses = []Guess{}
	}
	rec.startRound(now)
	return nil
}

func checkTurn(rec *Record, playerID string) error {
	switch rec.Status {
	case StatusFinished:
		return ErrAlreadyFinished
	case StatusWaiting, StatusInvited:
		return ErrNotPlaying
	}
	p, ok := rec.Players[playerID]
	if !ok {
		return ErrNotMember
	}
	if p.Won() {
		return ErrAlreadyFinished
	}
	if len(p.Guesses) >= rec.GuessLimit {
		return ErrGuessLimitReached
	}
	if rec.Mode.TurnBased() && rec.CurrentPlayerID() != playerID {
		return ErrNotYourTurn
	}
	return nil
}

// apply appends g and resolves the round: win, exhaustion or next turn.
func (m *Machine) apply(rec *Record, playerID string, g Guess, now time.Time) Outcome {
	p := rec.Players[playerID]
	p.Guesses = append(p.Guesses, g)
	out := Outcome{PlayerID: playerID, Guess: &g}

	switch {
	case coloring.Solved(g.Colors):
		award := m.scoring.RoundAward(len(p.Guesses))
		p.Score += award
		m.finish(rec, playerID, award, now, &out)
	case rec.exhausted():
		m.finish(rec, "", 0, now, &out)
	default:
		rec.rotate(now)
	}
	rec.UpdatedAt = now
	return out
}

func (m *Machine) finish(rec *Record, winnerID string, award int, now time.Time, out *Outcome) {
	res := &RoundResult{WinnerID: winnerID, Award: award, FinishedAt: now}
	if rec.CurrentRound >= rec.MatchLength {
		res.MatchOver = true
		res.MatchWinnerID, _ = scoring.MatchWinner(rec.Scores())
	}
	rec.Status = StatusFinished
	rec.Turn = nil
	rec.Result = res

	out.RoundFinished = true
	out.WinnerID = winnerID
	out.Award = award
	out.MatchOver = res.MatchOver
	out.MatchWinnerID = res.MatchWinnerID
}

func (r *Record) addPlayer(id, username string, now time.Time) {
	r.Players[id] = &PlayerState{Username: username, Guesses: []Guess{}, JoinedAt: now}
	r.JoinOrder = append(r.JoinOrder, id)
}

// startRound hands the first turn to the creator.
func (r *Record) startRound(now time.Time) {
	r.TurnSeq++
	r.Status = StatusPlaying
	r.Result = nil
	r.Turn = &Turn{PlayerID: r.CreatorID, StartedAt: now, Seq: r.TurnSeq}
	r.UpdatedAt = now
}

// rotate passes the turn to the next player in order who still has guesses left.
func (r *Record) rotate(now time.Time) {
	order := r.PlayerOrder()
	current := 0
	for i, id := range order {
		if id == r.CurrentPlayerID() {
			current = i
			break
		}
	}
	next := r.CurrentPlayerID()
	for step := 1; step <= len(order); step++ {
		id := order[(current+step)%len(order)]
		if len(r.Players[id].Guesses) < r.GuessLimit {
			next = id
			break
		}
	}
	r.TurnSeq++
	r.Turn = &Turn{PlayerID: next, StartedAt: now, Seq: r.TurnSeq}
}

// exhausted reports whether every player has used all guesses.
func (r *Record) exhausted() bool {
	for _, p := range r.Players {
		if len(p.Guesses) < r.GuessLimit {
			return false
		}
	}
	return true
}
