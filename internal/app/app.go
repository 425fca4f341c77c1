package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/palavraduelo/arena/internal/auth"
	"github.com/palavraduelo/arena/internal/config"
	"github.com/palavraduelo/arena/internal/duel"
	"github.com/palavraduelo/arena/internal/game"
	"github.com/palavraduelo/arena/internal/logging"
	"github.com/palavraduelo/arena/internal/matchmaking"
	"github.com/palavraduelo/arena/internal/metrics"
	"github.com/palavraduelo/arena/internal/presence"
	"github.com/palavraduelo/arena/internal/puzzle"
	"github.com/palavraduelo/arena/internal/server"
	"github.com/palavraduelo/arena/internal/store"
	"github.com/palavraduelo/arena/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server) and
// the background jobs.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	scheduler *game.Scheduler
	tracker   *presence.Tracker
	bgCancels []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis and all game services.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	m := metrics.New(prometheus.DefaultRegisterer)
	verifier := auth.NewVerifier([]byte(cfg.Security.JWTSecret), cfg.Security.JWTIssuer)

	// Puzzle pipeline
	gate := puzzle.NewGate(logger, nil)
	puzzleCache := puzzle.NewCache(redisClient, 0)
	puzzleSvc := puzzle.NewService(gate, puzzleCache, nil, puzzle.ServiceOptions{
		MaxCrosswordWords:  cfg.Puzzle.MaxCrosswordWords,
		MaxWordSearchWords: cfg.Puzzle.MaxWordSearchWords,
	}, m, logger)

	// Persistence and sync plumbing
	st := store.New(pool)
	notifier := store.NewNotifier(redisClient, logger)
	vault := game.NewFleetVault(redisClient)
	stash := game.NewPuzzleStash(redisClient)
	passLock := matchmaking.NewPassLock(redisClient)

	gameSvc := game.NewService(st, notifier, puzzleSvc, vault, stash, m, passLock, logger)

	tracker := presence.NewTracker(redisClient, cfg.Presence.AnnouncementTTL, logger)

	wsHub := ws.NewHub(logger)
	duelHandler := game.NewHandler(gameSvc, wsHub, verifier, tracker, logger)

	scheduler, err := game.NewScheduler(gameSvc, puzzleSvc, game.SchedulerConfig{
		MatcherInterval:      cfg.Matchmaker.PassInterval,
		ForfeitSweepInterval: cfg.Matchmaker.ForfeitSweepInterval,
		ForfeitTimeout:       cfg.Matchmaker.ForfeitTimeout,
		DailyPuzzleCron:      cfg.Puzzle.DailyCron,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	rest := server.NewRESTHandlers(puzzleSvc, st.Rooms, tracker, verifier)
	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, rest, duelHandler.HandleWebSocket)

	return &Application{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		redis:     redisClient,
		http:      apiServer,
		scheduler: scheduler,
		tracker:   tracker,
		bgCancels: make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and background jobs, then waits for termination.
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
	if err := a.scheduler.Shutdown(); err != nil {
		a.logger.Error().Err(err).Msg("scheduler shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	a.scheduler.Start()

	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := a.tracker.Run(bgCtx, duel.GameTypes); err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("presence tracker stopped")
		}
	}()
}
