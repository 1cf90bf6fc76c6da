package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These run only when a live backend is provided, e.g.
// DEALERHUB_TEST_REDIS_ADDR=127.0.0.1:6379 go test ./internal/session/...

func backendContract(t *testing.T, backend Backend) {
	t.Helper()
	store := NewStore(backend)
	ctx := context.Background()

	s, err := store.Create(ctx, "u-contract", time.Minute)
	require.NoError(t, err)

	got, err := store.Lookup(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "u-contract", got.UserID)
	assert.WithinDuration(t, s.ExpiresAt, got.ExpiresAt, time.Millisecond)

	err = backend.Insert(ctx, s)
	assert.ErrorIs(t, err, ErrExists)

	require.NoError(t, store.Revoke(ctx, s.ID))
	require.NoError(t, store.Revoke(ctx, s.ID))

	_, err = store.Lookup(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisBackendContract(t *testing.T) {
	addr := os.Getenv("DEALERHUB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DEALERHUB_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	backendContract(t, NewRedisBackend(client, "test-session:"))
}

func TestPostgresBackendContract(t *testing.T) {
	dsn := os.Getenv("DEALERHUB_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DEALERHUB_TEST_POSTGRES_DSN not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	backendContract(t, NewPostgresBackend(pool))
}

func TestMemoryBackendContract(t *testing.T) {
	backendContract(t, NewMemoryBackend())
}
