package session

import (
	"context"
	"sync"
	"time"

	"dealerhub/internal/models"
)

// MemoryBackend keeps sessions in process. Used in development and tests.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sessions: make(map[string]models.Session)}
}

func (m *MemoryBackend) Insert(ctx context.Context, s models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; ok {
		return ErrExists
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryBackend) Get(ctx context.Context, id string) (models.Session, error) {
	if err := ctx.Err(); err != nil {
		return models.Session{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return models.Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryBackend) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many records are physically stored, expired or not.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
