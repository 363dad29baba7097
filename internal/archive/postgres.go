package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gokatarajesh/kelime-arena/internal/game"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PostgresRepository archives into Postgres through a pgx pool.
type PostgresRepository struct {
	db execer
}

// NewPostgresRepository wraps a *pgxpool.Pool (or any pgx executor).
func NewPostgresRepository(db execer) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const insertRoundPG = `
INSERT INTO rounds (game_id, round, mode, word_length, secret_word, winner_id, award, players, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (game_id, round) DO NOTHING`

const insertMatchPG = `
INSERT INTO matches (game_id, mode, rounds, winner_id, players, finished_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (game_id) DO NOTHING`

// SaveRound persists a finished round. Saving the same round twice is a no-op.
func (r *PostgresRepository) SaveRound(ctx context.Context, report game.RoundReport) error {
	players, err := json.Marshal(report.Players)
	if err != nil {
		return fmt.Errorf("encode round players: %w", err)
	}
	_, err = r.db.Exec(ctx, insertRoundPG,
		report.GameID, report.Round, string(report.Mode), report.WordLength, report.SecretWord,
		nullable(report.WinnerID), report.Award, players, report.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

// SaveMatch persists a concluded match.
func (r *PostgresRepository) SaveMatch(ctx context.Context, report game.MatchReport) error {
	players, err := json.Marshal(report.Players)
	if err != nil {
		return fmt.Errorf("encode match players: %w", err)
	}
	_, err = r.db.Exec(ctx, insertMatchPG,
		report.GameID, string(report.Mode), report.Rounds, nullable(report.WinnerID), players, report.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}
