package game

import (
	"context"
	"time"
)

// PlayerResult is one player's line in a round or match report.
type PlayerResult struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Guesses  int    `json:"guesses"`
	Score    int    `json:"score"`
}

// RoundReport describes a finished round.
type RoundReport struct {
	GameID     string
	Mode       Mode
	Round      int
	WordLength int
	SecretWord string
	WinnerID   string
	Award      int
	Players    []PlayerResult
	FinishedAt time.Time
}

// MatchReport describes a concluded match. Scores are cumulative.
type MatchReport struct {
	GameID     string         `json:"game_id"`
	Mode       Mode           `json:"mode"`
	Rounds     int            `json:"rounds"`
	WinnerID   string         `json:"winner_id,omitempty"`
	Players    []PlayerResult `json:"players"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Archive persists finished rounds and matches.
type Archive interface {
	SaveRound(ctx context.Context, report RoundReport) error
	SaveMatch(ctx context.Context, report MatchReport) error
}

// MatchRecorder receives concluded matches (leaderboards).
type MatchRecorder interface {
	RecordMatch(ctx context.Context, report MatchReport) error
}

func playerResults(rec *Record) []PlayerResult {
	out := make([]PlayerResult, 0, len(rec.Players))
	for _, id := range rec.PlayerOrder() {
		p := rec.Players[id]
		out = append(out, PlayerResult{
			PlayerID: id,
			Username: p.Username,
			Guesses:  len(p.Guesses),
			Score:    p.Score,
		})
	}
	return out
}

func newRoundReport(rec *Record) RoundReport {
	report := RoundReport{
		GameID:     rec.ID,
		Mode:       rec.Mode,
		Round:      rec.CurrentRound,
		WordLength: rec.WordLength,
		SecretWord: rec.SecretWord,
		Players:    playerResults(rec),
	}
	if rec.Result != nil {
		report.WinnerID = rec.Result.WinnerID
		report.Award = rec.Result.Award
		report.FinishedAt = rec.Result.FinishedAt
	}
	return report
}

func newMatchReport(rec *Record) MatchReport {
	report := MatchReport{
		GameID:  rec.ID,
		Mode:    rec.Mode,
		Rounds:  rec.CurrentRound,
		Players: playerResults(rec),
	}
	if rec.Result != nil {
		report.WinnerID = rec.Result.MatchWinnerID
		report.FinishedAt = rec.Result.FinishedAt
	}
	return report
}
