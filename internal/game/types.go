package game

import (
	"time"
	"unicode/utf8"

	"github.com/gokatarajesh/kelime-arena/internal/game/coloring"
)

// Mode selects who fills the second seat and how turns are enforced.
type Mode string

const (
	ModeSolo Mode = "solo"
	ModeCPU  Mode = "cpu"
	ModeDuel Mode = "duel"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeSolo, ModeCPU, ModeDuel:
		return true
	default:
		return false
	}
}

// Seats is the session capacity for the mode.
func (m Mode) Seats() int {
	if m == ModeSolo {
		return 1
	}
	return 2
}

// TurnBased reports whether players must alternate guesses.
func (m Mode) TurnBased() bool {
	return m == ModeCPU || m == ModeDuel
}

// Status is the lifecycle tag of a record.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusInvited  Status = "invited"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

const (
	GuessLimit     = 6
	MaxUsernameLen = 12

	CPUPlayerID = "cpu"
	CPUUsername = "Bilgisayar"
)

// WordLengths lists the supported secret lengths.
var WordLengths = []int{4, 5, 6}

// ValidWordLength reports whether n is a supported secret length.
func ValidWordLength(n int) bool {
	for _, l := range WordLengths {
		if l == n {
			return true
		}
	}
	return false
}

// Guess is one submitted word with its feedback.
type Guess struct {
	Word   string         `json:"word"`
	Colors []coloring.Tag `json:"colors"`
}

// Failed reports whether the guess is a timeout sentinel.
func (g Guess) Failed() bool {
	return coloring.IsFailed(g.Word)
}

// PlayerState tracks one participant.
type PlayerState struct {
	Username string    `json:"username"`
	Guesses  []Guess   `json:"guesses"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// Won reports whether the player's last guess solved the round.
func (p *PlayerState) Won() bool {
	if len(p.Guesses) == 0 {
		return false
	}
	return coloring.Solved(p.Guesses[len(p.Guesses)-1].Colors)
}

// Turn exists in every state except finished.
// StartedAt is zero until the round starts.
type Turn struct {
	PlayerID  string    `json:"player_id"`
	StartedAt time.Time `json:"started_at"`
	Seq       int       `json:"seq"`
}

// RoundResult exists only once the round is finished.
type RoundResult struct {
	WinnerID      string    `json:"winner_id,omitempty"`
	Award         int       `json:"award,omitempty"`
	FinishedAt    time.Time `json:"finished_at"`
	MatchOver     bool      `json:"match_over"`
	MatchWinnerID string    `json:"match_winner_id,omitempty"`
}

// Record is the authoritative session document.
type Record struct {
	ID               string                  `json:"id"`
	Mode             Mode                    `json:"mode"`
	WordLength       int                     `json:"word_length"`
	RandomLength     bool                    `json:"random_length,omitempty"`
	SecretWord       string                  `json:"secret_word,omitempty"`
	GuessLimit       int                     `json:"guess_limit"`
	TimeLimitSeconds int                     `json:"time_limit_seconds"`
	MatchLength      int                     `json:"match_length"`
	CurrentRound     int                     `json:"current_round"`
	CreatorID        string                  `json:"creator_id"`
	InviteeID        string                  `json:"invitee_id,omitempty"`
	Players          map[string]*PlayerState `json:"players"`
	JoinOrder        []string                `json:"join_order"`
	Status           Status                  `json:"status"`
	TurnSeq          int                     `json:"turn_seq"`
	Turn             *Turn                   `json:"turn,omitempty"`
	Result           *RoundResult            `json:"result,omitempty"`
	Version          int64                   `json:"version"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// PlayerOrder is the turn sequence: creator first, then join order.
func (r *Record) PlayerOrder() []string {
	order := make([]string, 0, len(r.JoinOrder))
	if _, ok := r.Players[r.CreatorID]; ok {
		order = append(order, r.CreatorID)
	}
	for _, id := range r.JoinOrder {
		if id != r.CreatorID {
			order = append(order, id)
		}
	}
	return order
}

// CurrentPlayerID returns whose turn it is, or "" once the round is finished.
func (r *Record) CurrentPlayerID() string {
	if r.Turn == nil {
		return ""
	}
	return r.Turn.PlayerID
}

// RoundWinner returns the winner of a finished round.
// decided is false while the round is running; winner is "" for a no-winner round.
func (r *Record) RoundWinner() (winner string, decided bool) {
	if r.Status != StatusFinished || r.Result == nil {
		return "", false
	}
	return r.Result.WinnerID, true
}

// IsMember reports whether playerID holds a seat.
func (r *Record) IsMember(playerID string) bool {
	_, ok := r.Players[playerID]
	return ok
}

// Deadline is when the current turn times out. ok is false when no turn is running.
func (r *Record) Deadline() (deadline time.Time, ok bool) {
	if r.Status != StatusPlaying || r.Turn == nil || r.Turn.StartedAt.IsZero() {
		return time.Time{}, false
	}
	return r.Turn.StartedAt.Add(time.Duration(r.TimeLimitSeconds) * time.Second), true
}

// Scores returns cumulative scores keyed by player.
func (r *Record) Scores() map[string]int {
	scores := make(map[string]int, len(r.Players))
	for id, p := range r.Players {
		scores[id] = p.Score
	}
	return scores
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Players = make(map[string]*PlayerState, len(r.Players))
	for id, p := range r.Players {
		ps := *p
		ps.Guesses = make([]Guess, len(p.Guesses))
		for i, g := range p.Guesses {
			ps.Guesses[i] = Guess{Word: g.Word, Colors: append([]coloring.Tag(nil), g.Colors...)}
		}
		out.Players[id] = &ps
	}
	out.JoinOrder = append([]string(nil), r.JoinOrder...)
	if r.Turn != nil {
		t := *r.Turn
		out.Turn = &t
	}
	if r.Result != nil {
		res := *r.Result
		out.Result = &res
	}
	return &out
}

// Validate checks the structural invariants of the record.
func (r *Record) Validate() error {
	switch {
	case !r.Mode.Valid(), !ValidWordLength(r.WordLength):
		return ErrInvalidConfig
	case coloring.Len(r.SecretWord) != r.WordLength:
		return ErrInvalidConfig
	case r.CurrentRound < 1 || r.CurrentRound > r.MatchLength:
		return ErrInvalidConfig
	case len(r.Players) != len(r.JoinOrder) || len(r.Players) > r.Mode.Seats():
		return ErrInvalidConfig
	}
	for _, p := range r.Players {
		if len(p.Guesses) > r.GuessLimit {
			return ErrInvalidConfig
		}
	}

	switch r.Status {
	case StatusWaiting, StatusInvited, StatusPlaying:
		if r.Turn == nil || r.Result != nil || !r.IsMember(r.Turn.PlayerID) {
			return ErrInvalidConfig
		}
		if r.Status == StatusPlaying {
			p := r.Players[r.Turn.PlayerID]
			if len(p.Guesses) >= r.GuessLimit || p.Won() {
				return ErrInvalidConfig
			}
		}
	case StatusFinished:
		if r.Turn != nil || r.Result == nil {
			return ErrInvalidConfig
		}
	default:
		return ErrInvalidConfig
	}
	return nil
}

// ValidUsername reports whether name fits the display-name rules.
func ValidUsername(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= MaxUsernameLen
}
