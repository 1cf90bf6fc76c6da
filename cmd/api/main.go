package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dealerhub/internal/authz"
	"dealerhub/internal/cache"
	"dealerhub/internal/config"
	"dealerhub/internal/database"
	"dealerhub/internal/featureflag"
	"dealerhub/internal/handlers"
	"dealerhub/internal/jobs"
	"dealerhub/internal/log"
	"dealerhub/internal/repository"
	"dealerhub/internal/security"
	"dealerhub/internal/server"
	"dealerhub/internal/service"
	"dealerhub/internal/session"
	"dealerhub/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if cfg.Postgres.AutoMigrate {
		if err := database.Migrate(ctx, dbPool); err != nil {
			logger.Fatal().Err(err).Msg("schema migration failed")
		}
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		if cfg.Session.Backend == "redis" {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		logger.Warn().Err(err).Msg("redis unavailable, running without cache and job queue")
		redisClient = nil
	}

	secret := cfg.Security.TokenSecret
	if secret == "" {
		// tokens will not survive a restart
		secret, err = session.NewID()
		if err != nil {
			logger.Fatal().Err(err).Msg("generate token secret")
		}
		logger.Warn().Msg("security.tokensecret not set, using an ephemeral secret")
	}

	sessions := session.NewStore(newSessionBackend(cfg, dbPool, redisClient), session.WithTimeout(cfg.Session.Timeout))
	flags := newFlagStore(cfg, dbPool, redisClient, logger)

	users := repository.NewUserRepository(dbPool)
	authService := service.NewAuthService(
		users,
		sessions,
		security.NewTokenIssuer(secret),
		cfg.Session.TTL,
		cfg.Session.Timeout,
		logger.With().Str("service", "auth").Logger(),
	)

	deps := handlers.Deps{
		Log:      logger,
		Config:   cfg,
		Auth:     authService,
		Users:    service.NewUserService(users, logger.With().Str("service", "users").Logger()).WithTimeout(cfg.Session.Timeout),
		Gate:     authz.NewGate(flags, cfg.Flags.Timeout),
		Flags:    flags,
		Database: dbPool,
	}
	if redisClient != nil {
		deps.Cache = redisClient
	}
	httpServer := server.NewHTTPServer(cfg, logger, handlers.NewHandlerSet(deps))

	scheduler := newScheduler(cfg, redisClient, sessions, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func newSessionBackend(cfg *config.AppConfig, db *pgxpool.Pool, redisClient *redis.Client) session.Backend {
	switch cfg.Session.Backend {
	case "redis":
		return session.NewRedisBackend(redisClient, cfg.Session.KeyPrefix)
	case "postgres":
		return session.NewPostgresBackend(db)
	default:
		return session.NewMemoryBackend()
	}
}

func newFlagStore(cfg *config.AppConfig, db *pgxpool.Pool, redisClient *redis.Client, logger zerolog.Logger) featureflag.Store {
	var store featureflag.Store
	switch cfg.Flags.Backend {
	case "postgres":
		store = featureflag.NewPostgresStore(db)
	default:
		store = featureflag.NewMemoryStore()
	}
	if redisClient == nil || cfg.Flags.CacheTTL <= 0 {
		return store
	}
	return featureflag.NewCachedStore(store, redisClient, cfg.Flags.CacheTTL, logger.With().Str("component", "flag-cache").Logger()).
		WithTimeout(cfg.Flags.CacheTimeout)
}

// newScheduler enqueues sweeps for the worker when redis is available. The
// memory backend lives in this process, so it is always swept here.
func newScheduler(cfg *config.AppConfig, redisClient *redis.Client, sessions *session.Store, logger zerolog.Logger) *jobs.Scheduler {
	jobLog := logger.With().Str("component", "scheduler").Logger()
	if cfg.Session.Backend == "memory" || redisClient == nil {
		return jobs.NewScheduler(nil, cfg.Jobs, jobLog).
			WithLocalProcessor(tasks.NewProcessor(jobLog, sessions))
	}
	return jobs.NewScheduler(redisClient, cfg.Jobs, jobLog)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("scheduler jobs still running at shutdown")
	}

	db.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
