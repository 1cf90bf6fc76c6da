package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dealerhub/internal/apperr"
	"dealerhub/internal/models"
)

// DefaultTTL matches the platform-wide auth cookie lifetime.
const DefaultTTL = 7 * 24 * time.Hour

const (
	defaultTimeout = 2 * time.Second
	maxIDAttempts  = 3
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrExists is returned by a Backend when an identifier is already taken.
	ErrExists = errors.New("session id already exists")
)

// Backend is the keyed document store sessions live in. Insert must be
// create-only; Delete must not fail for unknown ids.
type Backend interface {
	Insert(ctx context.Context, s models.Session) error
	Get(ctx context.Context, id string) (models.Session, error)
	Delete(ctx context.Context, id string) error
}

// Sweeper is implemented by backends that keep expired records around until
// something deletes them.
type Sweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Store struct {
	backend Backend
	timeout time.Duration
	now     func() time.Time
	newID   func() (string, error)
}

type Option func(*Store)

// WithTimeout bounds every backend call.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Store) { s.newID = gen }
}

func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		timeout: defaultTimeout,
		now:     time.Now,
		newID:   NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new session for userID expiring at now+ttl. A ttl of zero
// or less selects DefaultTTL.
func (s *Store) Create(ctx context.Context, userID string, ttl time.Duration) (models.Session, error) {
	if userID == "" {
		return models.Session{}, fmt.Errorf("session create: user id required: %w", apperr.ErrMalformedRequest)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return models.Session{}, err
		}

		now := s.now()
		record := models.Session{
			ID:        id,
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}

		err = s.call(ctx, func(ctx context.Context) error {
			return s.backend.Insert(ctx, record)
		})
		if errors.Is(err, ErrExists) {
			continue
		}
		if err != nil {
			return models.Session{}, unavailable("create", err)
		}
		return record, nil
	}

	return models.Session{}, unavailable("create", fmt.Errorf("no free id after %d attempts", maxIDAttempts))
}

// Lookup returns ErrNotFound for unknown ids and for records past expiry.
func (s *Store) Lookup(ctx context.Context, id string) (models.Session, error) {
	if id == "" {
		return models.Session{}, ErrNotFound
	}

	var record models.Session
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		record, err = s.backend.Get(ctx, id)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return models.Session{}, ErrNotFound
	}
	if err != nil {
		return models.Session{}, unavailable("lookup", err)
	}

	if record.Expired(s.now()) {
		return models.Session{}, ErrNotFound
	}
	return record, nil
}

// Revoke deletes the session. Revoking an unknown id is not an error.
func (s *Store) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	err := s.call(ctx, func(ctx context.Context) error {
		return s.backend.Delete(ctx, id)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return unavailable("revoke", err)
	}
	return nil
}

// Sweep removes expired records when the backend needs explicit cleanup. It
// reports zero for backends that expire keys on their own.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	sweeper, ok := s.backend.(Sweeper)
	if !ok {
		return 0, nil
	}
	var removed int64
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		removed, err = sweeper.DeleteExpired(ctx, s.now())
		return err
	})
	if err != nil {
		return 0, unavailable("sweep", err)
	}
	return removed, nil
}

func (s *Store) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("session %s: %w: %w", op, apperr.ErrUnavailable, err)
}
