package featureflag

import (
	"context"
	"sort"
	"sync"
	"time"

	"dealerhub/internal/models"
)

type MemoryStore struct {
	mu    sync.RWMutex
	flags map[Key]Flag
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[Key]Flag), now: time.Now}
}

func (m *MemoryStore) Get(ctx context.Context, key Key) (Flag, error) {
	if err := ctx.Err(); err != nil {
		return Flag{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.flags[key]
	if !ok {
		return Flag{}, ErrNotFound
	}
	return f, nil
}

func (m *MemoryStore) Set(ctx context.Context, flag Flag) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if flag.UpdatedAt.IsZero() {
		flag.UpdatedAt = m.now()
	}
	m.mu.Lock()
	m.flags[flag.Key] = flag
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.flags, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) List(ctx context.Context, dashboard models.Dashboard) ([]Flag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]Flag, 0, len(m.flags))
	for k, f := range m.flags {
		if k.Dashboard == dashboard {
			out = append(out, f)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Feature != out[j].Feature {
			return out[i].Feature < out[j].Feature
		}
		return out[i].TenantID < out[j].TenantID
	})
	return out, nil
}
