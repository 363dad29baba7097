package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/gokatarajesh/kelime-arena/internal/game"
)

// timestampLayout is fixed width so text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository archives into a local SQLite file for single-node deployments.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (creating if missing) the database at path and applies migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	// A single writer avoids SQLITE_BUSY under concurrent archive calls.
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(Migrations)
	defer goose.SetBaseFS(nil)
	goose.SetTableName("goose_db_version")
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, SQLiteMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// SaveRound persists a finished round. Saving the same round twice is a no-op.
func (r *SQLiteRepository) SaveRound(ctx context.Context, report game.RoundReport) error {
	players, err := json.Marshal(report.Players)
	if err != nil {
		return fmt.Errorf("encode round players: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO rounds (game_id, round, mode, word_length, secret_word, winner_id, award, players, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.GameID, report.Round, string(report.Mode), report.WordLength, report.SecretWord,
		nullable(report.WinnerID), report.Award, string(players), report.FinishedAt.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

// SaveMatch persists a concluded match.
func (r *SQLiteRepository) SaveMatch(ctx context.Context, report game.MatchReport) error {
	players, err := json.Marshal(report.Players)
	if err != nil {
		return fmt.Errorf("encode match players: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO matches (game_id, mode, rounds, winner_id, players, finished_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		report.GameID, string(report.Mode), report.Rounds, nullable(report.WinnerID),
		string(players), report.FinishedAt.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// RecentMatches lists the latest concluded matches, newest first.
func (r *SQLiteRepository) RecentMatches(ctx context.Context, limit int) ([]game.MatchReport, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT game_id, mode, rounds, COALESCE(winner_id, ''), players, finished_at
FROM matches ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var out []game.MatchReport
	for rows.Next() {
		var (
			m                 game.MatchReport
			mode, players, at string
		)
		if err := rows.Scan(&m.GameID, &mode, &m.Rounds, &m.WinnerID, &players, &at); err != nil {
			return nil, err
		}
		m.Mode = game.Mode(mode)
		if err := json.Unmarshal([]byte(players), &m.Players); err != nil {
			return nil, fmt.Errorf("decode players: %w", err)
		}
		if m.FinishedAt, err = time.Parse(timestampLayout, at); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close releases the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
