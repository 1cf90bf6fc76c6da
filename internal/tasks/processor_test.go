package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls   int
	removed int64
	err     error
}

func (s *countingSweeper) Sweep(context.Context) (int64, error) {
	s.calls++
	return s.removed, s.err
}

func TestProcessorSweepsSessions(t *testing.T) {
	sweeper := &countingSweeper{removed: 3}
	p := NewProcessor(zerolog.Nop(), sweeper)

	err := p.Handle(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"type": TypeSessionSweep, "requestedAt": "2026-06-01T08:00:00Z"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sweeper.calls)
}

func TestProcessorSurfacesSweepFailure(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("db down")}
	p := NewProcessor(zerolog.Nop(), sweeper)

	err := p.Handle(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"type": TypeSessionSweep},
	})
	assert.Error(t, err)
}

func TestProcessorIgnoresUnknownTypes(t *testing.T) {
	sweeper := &countingSweeper{}
	p := NewProcessor(zerolog.Nop(), sweeper)

	err := p.Handle(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"type": "thumbnail"},
	})
	require.NoError(t, err)
	assert.Zero(t, sweeper.calls)
}
