package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"kelime-arena"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	Store       Store
	Archive     Archive
	Game        Game
	Words       Words
	Security    Security
	Leaderboard Leaderboard
	CORS        CORS
}

// Postgres captures connection info for the archive database.
// Only required when ARCHIVE_DRIVER=postgres.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER" envDefault:"kelime"`
	Password string `env:"PG_PASSWORD" envDefault:""`
	Database string `env:"PG_DATABASE" envDefault:"kelime"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// DSN renders a pgx connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// Redis holds store, cache and leaderboard connection settings.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Store selects the session record store.
type Store struct {
	Driver    string        `env:"STORE_DRIVER" envDefault:"redis"` // redis | memory
	TxRetries int           `env:"STORE_TX_RETRIES" envDefault:"5"`
	RecordTTL time.Duration `env:"STORE_RECORD_TTL" envDefault:"24h"`
}

// Archive selects where finished rounds and matches are persisted.
type Archive struct {
	Driver     string `env:"ARCHIVE_DRIVER" envDefault:"none"` // postgres | sqlite | none
	SQLitePath string `env:"ARCHIVE_SQLITE_PATH" envDefault:"data/archive.db"`
}

// Game groups gameplay defaults.
type Game struct {
	DefaultTimeLimit   time.Duration `env:"GAME_DEFAULT_TIME_LIMIT" envDefault:"60s"`
	DefaultMatchLength int           `env:"GAME_DEFAULT_MATCH_LENGTH" envDefault:"3"`
	MaxMatchLength     int           `env:"GAME_MAX_MATCH_LENGTH" envDefault:"10"`
	TimeoutGrace       time.Duration `env:"GAME_TIMEOUT_GRACE" envDefault:"5s"`
	WatchdogInterval   time.Duration `env:"GAME_WATCHDOG_INTERVAL" envDefault:"2s"`
	WatchdogBatch      int           `env:"GAME_WATCHDOG_BATCH" envDefault:"100"`
}

// Words configures the dictionary and meaning lookups.
type Words struct {
	File            string        `env:"WORDS_FILE" envDefault:""`
	MeaningURL      string        `env:"WORDS_MEANING_URL" envDefault:"https://sozluk.gov.tr/gts"`
	MeaningTimeout  time.Duration `env:"WORDS_MEANING_TIMEOUT" envDefault:"3s"`
	MeaningCacheTTL time.Duration `env:"WORDS_MEANING_CACHE_TTL" envDefault:"168h"`
}

// Security stores secrets for signing guest tokens.
type Security struct {
	JWTSecret        string        `env:"JWT_SECRET,notEmpty"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET,notEmpty"`
	AccessTTL        time.Duration `env:"JWT_ACCESS_TTL" envDefault:"24h"`
	RefreshTTL       time.Duration `env:"JWT_REFRESH_TTL" envDefault:"720h"`
}

// Leaderboard governs ranking windows.
type Leaderboard struct {
	WeeklyTTL time.Duration `env:"LEADERBOARD_WEEKLY_TTL" envDefault:"336h"`
	TopN      int           `env:"LEADERBOARD_TOP" envDefault:"50"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *App) validate() error {
	switch c.Store.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("parse config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Archive.Driver {
	case "postgres", "sqlite", "none":
	default:
		return fmt.Errorf("parse config: unknown ARCHIVE_DRIVER %q", c.Archive.Driver)
	}
	if c.Game.DefaultMatchLength > c.Game.MaxMatchLength {
		return fmt.Errorf("parse config: GAME_DEFAULT_MATCH_LENGTH exceeds GAME_MAX_MATCH_LENGTH")
	}
	return nil
}
