package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const TypeSessionSweep = "sessions.sweep"

// Sweeper removes expired sessions; *session.Store satisfies it.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

type Processor struct {
	logger   zerolog.Logger
	sessions Sweeper
}

type TaskPayload struct {
	Type        string `json:"type"`
	RequestedAt string `json:"requestedAt"`
}

func NewProcessor(logger zerolog.Logger, sessions Sweeper) *Processor {
	return &Processor{
		logger:   logger,
		sessions: sessions,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case TypeSessionSweep:
		return p.handleSessionSweep(ctx, payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

func (p *Processor) handleSessionSweep(ctx context.Context, payload TaskPayload) error {
	start := time.Now()
	removed, err := p.sessions.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep sessions: %w", err)
	}
	p.logger.Info().
		Int64("removed", removed).
		Str("requested_at", payload.RequestedAt).
		Dur("took", time.Since(start)).
		Msg("expired sessions swept")
	return nil
}
