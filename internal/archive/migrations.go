// Package archive persists finished rounds and concluded matches.
// Archiving is best-effort and never on the gameplay path.
package archive

import "embed"

// Migrations holds the goose migrations, one directory per dialect.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var Migrations embed.FS

const (
	PostgresMigrations = "migrations/postgres"
	SQLiteMigrations   = "migrations/sqlite"
)

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
