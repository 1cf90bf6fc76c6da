package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"dealerhub/internal/cache"
	"dealerhub/internal/config"
	"dealerhub/internal/database"
	"dealerhub/internal/log"
	"dealerhub/internal/queue"
	"dealerhub/internal/session"
	"dealerhub/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.NewWithComponent(cfg.Environment, "worker")

	client, err := cache.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	var backend session.Backend
	switch cfg.Session.Backend {
	case "postgres":
		pool, err := database.NewPostgresPool(context.Background(), cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		defer pool.Close()
		backend = session.NewPostgresBackend(pool)
	case "redis":
		backend = session.NewRedisBackend(client, cfg.Session.KeyPrefix)
	default:
		logger.Warn().Str("backend", cfg.Session.Backend).Msg("session backend is local to the api; sweeps here are no-ops")
		backend = session.NewMemoryBackend()
	}

	sessions := session.NewStore(backend, session.WithTimeout(cfg.Session.Timeout))
	processor := tasks.NewProcessor(logger, sessions)
	consumer := queue.NewConsumer(client, cfg.Worker, logger, processor)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("consumer stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("consumer did not stop in time")
	}
}
