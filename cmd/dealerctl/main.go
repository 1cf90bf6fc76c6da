package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dealerhub/internal/cache"
	"dealerhub/internal/cli"
	"dealerhub/internal/config"
	"dealerhub/internal/database"
	"dealerhub/internal/featureflag"
	"dealerhub/internal/log"
	"dealerhub/internal/repository"
	"dealerhub/internal/service"
	"dealerhub/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := log.NewWithComponent(cfg.Environment, "dealerctl")

	app := &cli.App{}

	if cfg.Postgres.DSN != "" {
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		app.Users = service.NewUserService(repository.NewUserRepository(pool), logger).WithTimeout(cfg.Session.Timeout)
		app.Flags = featureflag.NewPostgresStore(pool)
		app.Migrate = func(ctx context.Context) error { return database.Migrate(ctx, pool) }
		if cfg.Session.Backend == "postgres" {
			app.Sessions = session.NewStore(session.NewPostgresBackend(pool), session.WithTimeout(cfg.Session.Timeout))
		}
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	switch {
	case err == nil:
		defer client.Close()
		if cfg.Session.Backend == "redis" {
			app.Sessions = session.NewStore(session.NewRedisBackend(client, cfg.Session.KeyPrefix), session.WithTimeout(cfg.Session.Timeout))
		}
		// flag writes must go through the cache so the api sees them at once
		if app.Flags != nil && cfg.Flags.CacheTTL > 0 {
			app.Flags = featureflag.NewCachedStore(app.Flags, client, cfg.Flags.CacheTTL, logger).
				WithTimeout(cfg.Flags.CacheTimeout)
		}
	case cfg.Session.Backend == "redis":
		return fmt.Errorf("connect redis: %w", err)
	default:
		logger.Warn().Err(err).Msg("redis unavailable; cached flags may lag until they expire")
	}

	return cli.NewRootCmd(app, os.Stdout).ExecuteContext(ctx)
}
