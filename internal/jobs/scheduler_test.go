package jobs

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealerhub/internal/config"
	"dealerhub/internal/models"
	"dealerhub/internal/session"
	"dealerhub/internal/tasks"
)

func TestEnqueueRunsLocallyWithoutQueue(t *testing.T) {
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	backend := session.NewMemoryBackend()
	ctx := context.Background()
	require.NoError(t, backend.Insert(ctx, models.Session{
		ID: "old", UserID: "u1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, backend.Insert(ctx, models.Session{
		ID: "live", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))
	store := session.NewStore(backend, session.WithClock(func() time.Time { return now }))

	s := NewScheduler(nil, config.JobsConfig{SweepSchedule: "@every 1h"}, zerolog.Nop()).
		WithLocalProcessor(tasks.NewProcessor(zerolog.Nop(), store))

	require.NoError(t, s.Enqueue(ctx, tasks.TypeSessionSweep))
	assert.Equal(t, 1, backend.Len())
}

func TestStartWithoutTargetsIsNoop(t *testing.T) {
	s := NewScheduler(nil, config.JobsConfig{SweepSchedule: "not a schedule"}, zerolog.Nop())
	require.NoError(t, s.Start())
	<-s.Stop().Done()
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(nil, config.JobsConfig{SweepSchedule: "not a schedule"}, zerolog.Nop()).
		WithLocalProcessor(tasks.NewProcessor(zerolog.Nop(), session.NewStore(session.NewMemoryBackend())))
	assert.Error(t, s.Start())
}

func TestEnqueueWritesToStream(t *testing.T) {
	addr := os.Getenv("DEALERHUB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DEALERHUB_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	stream := "test-jobs:" + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { client.Del(ctx, stream) })

	s := NewScheduler(client, config.JobsConfig{Stream: stream}, zerolog.Nop())
	require.NoError(t, s.Enqueue(ctx, tasks.TypeSessionSweep))

	msgs, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, tasks.TypeSessionSweep, msgs[0].Values["type"])
}
