package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealerhub/internal/apperr"
	"dealerhub/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type failingBackend struct{ err error }

func (f failingBackend) Insert(context.Context, models.Session) error { return f.err }
func (f failingBackend) Get(context.Context, string) (models.Session, error) {
	return models.Session{}, f.err
}
func (f failingBackend) Delete(context.Context, string) error { return f.err }

type blockingBackend struct{}

func (blockingBackend) Insert(ctx context.Context, _ models.Session) error {
	<-ctx.Done()
	return ctx.Err()
}
func (blockingBackend) Get(ctx context.Context, _ string) (models.Session, error) {
	<-ctx.Done()
	return models.Session{}, ctx.Err()
}
func (blockingBackend) Delete(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestCreateLookupRoundTrip(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(NewMemoryBackend(), WithClock(clock.Now))
	ctx := context.Background()

	created, err := store.Create(ctx, "u1", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := store.Lookup(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, clock.Now().Add(time.Hour), got.ExpiresAt)
	assert.Equal(t, clock.Now(), got.CreatedAt)
}

func TestCreateDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(NewMemoryBackend(), WithClock(clock.Now))

	created, err := store.Create(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, 604800*time.Second, created.ExpiresAt.Sub(created.CreatedAt))
}

func TestCreateRequiresUser(t *testing.T) {
	store := NewStore(NewMemoryBackend())

	_, err := store.Create(context.Background(), "", time.Hour)
	assert.ErrorIs(t, err, apperr.ErrMalformedRequest)
}

func TestLookupExpiredIsNotFound(t *testing.T) {
	clock := newFakeClock()
	backend := NewMemoryBackend()
	store := NewStore(backend, WithClock(clock.Now))
	ctx := context.Background()

	s1, err := store.Create(ctx, "u1", 2*time.Second)
	require.NoError(t, err)

	_, err = store.Lookup(ctx, s1.ID)
	require.NoError(t, err)

	clock.Advance(3 * time.Second)

	_, err = store.Lookup(ctx, s1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, backend.Len(), "expiry is a filter, the record is still stored")
}

func TestLookupUnknown(t *testing.T) {
	store := NewStore(NewMemoryBackend())

	_, err := store.Lookup(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevokeIsIdempotent(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := context.Background()

	s, err := store.Create(ctx, "u1", time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Revoke(ctx, s.ID))
	require.NoError(t, store.Revoke(ctx, s.ID))
	require.NoError(t, store.Revoke(ctx, "never-issued"))

	_, err = store.Lookup(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRetriesOnCollision(t *testing.T) {
	backend := NewMemoryBackend()
	ids := []string{"dup", "dup", "fresh"}
	var calls int
	gen := func() (string, error) {
		id := ids[calls]
		calls++
		return id, nil
	}
	store := NewStore(backend, WithIDGenerator(gen))
	ctx := context.Background()

	first, err := store.Create(ctx, "u1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "dup", first.ID)

	second, err := store.Create(ctx, "u2", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "fresh", second.ID)

	got, err := store.Lookup(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID, "collision must not overwrite the first session")
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	store := NewStore(failingBackend{err: ErrExists}, WithIDGenerator(func() (string, error) { return "same", nil }))

	_, err := store.Create(context.Background(), "u1", time.Hour)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestBackendFailuresAreUnavailable(t *testing.T) {
	store := NewStore(failingBackend{err: errors.New("connection refused")})
	ctx := context.Background()

	_, err := store.Create(ctx, "u1", time.Hour)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)

	_, err = store.Lookup(ctx, "s1")
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)

	err = store.Revoke(ctx, "s1")
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestHungBackendTimesOut(t *testing.T) {
	store := NewStore(blockingBackend{}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := store.Lookup(context.Background(), "s1")
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSweep(t *testing.T) {
	clock := newFakeClock()
	backend := NewMemoryBackend()
	store := NewStore(backend, WithClock(clock.Now))
	ctx := context.Background()

	_, err := store.Create(ctx, "u1", time.Second)
	require.NoError(t, err)
	live, err := store.Create(ctx, "u2", time.Hour)
	require.NoError(t, err)

	clock.Advance(time.Minute)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, backend.Len())

	_, err = store.Lookup(ctx, live.ID)
	assert.NoError(t, err)
}

func TestSweepWithoutSweeper(t *testing.T) {
	store := NewStore(failingBackend{})

	removed, err := store.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestConcurrentLookupAndRevoke(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := context.Background()

	s, err := store.Create(ctx, "u1", time.Hour)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := store.Lookup(ctx, s.ID)
			if err != nil {
				assert.ErrorIs(t, err, ErrNotFound)
			}
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Revoke(ctx, s.ID))
		}()
	}
	wg.Wait()

	_, err = store.Lookup(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := NewID()
		require.NoError(t, err)
		assert.Len(t, id, 43)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestCookies(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		w := httptest.NewRecorder()
		SetCookie(w, "tok", CookieOptions{Secure: true})

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, "authToken", c.Name)
		assert.Equal(t, "tok", c.Value)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, 604800, c.MaxAge)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	})

	t.Run("clear", func(t *testing.T) {
		w := httptest.NewRecorder()
		ClearCookie(w, CookieOptions{})

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "authToken", cookies[0].Name)
		assert.Equal(t, "/", cookies[0].Path)
		assert.Empty(t, cookies[0].Value)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}
