package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/kelime-arena/internal/archive"
	"github.com/gokatarajesh/kelime-arena/internal/auth"
	"github.com/gokatarajesh/kelime-arena/internal/auth/jwt"
	"github.com/gokatarajesh/kelime-arena/internal/config"
	"github.com/gokatarajesh/kelime-arena/internal/cpu"
	"github.com/gokatarajesh/kelime-arena/internal/game"
	"github.com/gokatarajesh/kelime-arena/internal/game/memstore"
	"github.com/gokatarajesh/kelime-arena/internal/game/redisstore"
	"github.com/gokatarajesh/kelime-arena/internal/leaderboard"
	"github.com/gokatarajesh/kelime-arena/internal/logging"
	"github.com/gokatarajesh/kelime-arena/internal/metrics"
	"github.com/gokatarajesh/kelime-arena/internal/server"
	"github.com/gokatarajesh/kelime-arena/internal/words"
	ws "github.com/gokatarajesh/kelime-arena/pkg/http/ws"
)

// sessionStore is what both store drivers provide.
type sessionStore interface {
	game.Store
	game.DeadlineIndex
	game.Locker
}

// Application aggregates shared infrastructure (store, archive, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool   *pgxpool.Pool
	sqlite *archive.SQLiteRepository
	redis  *redis.Client
	http   *http.Server
	hub    *ws.Hub

	watchdog  *game.Watchdog
	bgCancels []context.CancelFunc
}

// New bootstraps logger, Redis, the session store, the archive and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	m := metrics.New(prometheus.DefaultRegisterer)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	a := &Application{
		cfg:       cfg,
		logger:    logger,
		redis:     redisClient,
		bgCancels: make([]context.CancelFunc, 0, 1),
	}

	var store sessionStore
	switch cfg.Store.Driver {
	case "memory":
		logger.Warn().Msg("using in-memory session store; sessions are lost on restart")
		store = memstore.New(memstore.Options{TTL: cfg.Store.RecordTTL})
	default:
		store = redisstore.New(redisClient, redisstore.Options{
			MaxRetries: cfg.Store.TxRetries,
			TTL:        cfg.Store.RecordTTL,
			OnConflict: m.StoreConflict,
		}, logger)
	}

	var (
		gameArchive game.Archive
		matches     *archive.HTTPHandler
	)
	pingers := []server.Pinger{func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }}
	switch cfg.Archive.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		gameArchive = archive.NewPostgresRepository(pool)
		pingers = append(pingers, pool.Ping)
	case "sqlite":
		repo, err := archive.OpenSQLite(cfg.Archive.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite archive: %w", err)
		}
		a.sqlite = repo
		gameArchive = repo
		matches = archive.NewHTTPHandler(repo, logger)
	default:
		logger.Info().Msg("archive disabled")
	}

	dict, err := loadDictionary(cfg.Words.File)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}

	meanings := words.NewMeaningClient(
		cfg.Words.MeaningURL,
		&http.Client{Timeout: cfg.Words.MeaningTimeout},
		words.NewCache(redisClient, cfg.Words.MeaningCacheTTL),
		logger,
	)

	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		TopN:      cfg.Leaderboard.TopN,
		WeeklyTTL: cfg.Leaderboard.WeeklyTTL,
	})

	gameSvc := game.NewService(store, dict, cpu.Default(), game.ServiceOptions{
		DefaultTimeLimit:   cfg.Game.DefaultTimeLimit,
		DefaultMatchLength: cfg.Game.DefaultMatchLength,
		MaxMatchLength:     cfg.Game.MaxMatchLength,
		TimeoutGrace:       cfg.Game.TimeoutGrace,
		Deadlines:          store,
		Archive:            gameArchive,
		Leaderboard:        leaderboardSvc,
		Metrics:            m,
	}, logger)

	a.watchdog = game.NewWatchdog(gameSvc, store, store, game.WatchdogOptions{
		Interval: cfg.Game.WatchdogInterval,
		Batch:    cfg.Game.WatchdogBatch,
		Metrics:  m,
	}, logger)

	authSvc := auth.NewService(auth.ServiceOptions{
		Tokens: jwt.TokenConfig{
			AccessSecret:  []byte(cfg.Security.JWTSecret),
			RefreshSecret: []byte(cfg.Security.JWTRefreshSecret),
			AccessTTL:     cfg.Security.AccessTTL,
			RefreshTTL:    cfg.Security.RefreshTTL,
			Issuer:        cfg.Name,
		},
		ValidUsername: game.ValidUsername,
	}, logger)

	a.hub = ws.NewHub(logger)

	authHandlers := auth.NewHTTPHandlers(authSvc, logger)
	gameHandlers := game.NewHTTPHandlers(gameSvc, logger)
	wsHandler := game.NewWSHandler(gameSvc, a.hub, authSvc, meanings, m, logger)
	lbHandler := leaderboard.NewHTTPHandler(leaderboardSvc, logger)
	wordsHandler := words.NewHTTPHandler(meanings)

	a.http = server.NewHTTPServer(cfg, logger, server.Routes{
		Public: func(r chi.Router) {
			r.Post("/auth/guest", authHandlers.CreateGuest)
			r.Post("/auth/refresh", authHandlers.RefreshToken)
			r.Get("/words/{word}/meaning", wordsHandler.HandleMeaning)
			r.Get("/leaderboards/{window}", lbHandler.HandleGet)
			if matches != nil {
				r.Get("/matches/recent", matches.HandleRecent)
			}
		},
		Authenticated: gameHandlers.Routes,
		Auth: func(next http.Handler) http.Handler {
			return auth.AuthMiddleware(authSvc, logger)(auth.RequireAuth(next))
		},
		WebSocket: wsHandler.HandleWebSocket,
	}, pingers...)

	logger.Info().
		Str("store", cfg.Store.Driver).
		Str("archive", cfg.Archive.Driver).
		Ints("word_lengths", dict.Lengths()).
		Msg("application ready")

	return a, nil
}

func loadDictionary(path string) (*words.Dictionary, error) {
	if path == "" {
		return words.Embedded()
	}
	return words.LoadFile(path)
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	// Hijacked websocket connections are not tracked by http.Server.
	a.hub.CloseAll()

	for _, cancel := range a.bgCancels {
		cancel()
	}

	if a.pool != nil {
		a.pool.Close()
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			a.logger.Error().Err(err).Msg("sqlite shutdown error")
		}
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go a.watchdog.Run(bgCtx)
}
