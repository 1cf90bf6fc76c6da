package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"dealerhub/internal/config"
	"dealerhub/internal/tasks"
)

// Scheduler periodically enqueues maintenance tasks onto the worker stream.
// Without a queue it hands them straight to a local processor, which is how
// the in-memory session backend gets swept.
type Scheduler struct {
	cron  *cron.Cron
	queue redis.UniversalClient
	local *tasks.Processor
	cfg   config.JobsConfig
	log   zerolog.Logger
	now   func() time.Time
}

func NewScheduler(queue redis.UniversalClient, cfg config.JobsConfig, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:  c,
		queue: queue,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// WithLocalProcessor runs tasks in-process instead of enqueueing them.
func (s *Scheduler) WithLocalProcessor(p *tasks.Processor) *Scheduler {
	s.local = p
	return s
}

func (s *Scheduler) Start() error {
	if s.queue == nil && s.local == nil {
		return nil
	}
	if s.cfg.SweepSchedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.enqueueSessionSweep); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) enqueueSessionSweep() {
	if err := s.Enqueue(context.Background(), tasks.TypeSessionSweep); err != nil {
		s.log.Error().Err(err).Msg("enqueue session sweep failed")
	}
}

// Enqueue submits a task of the given type.
func (s *Scheduler) Enqueue(ctx context.Context, taskType string) error {
	values := map[string]any{
		"type":        taskType,
		"requestedAt": s.now().UTC().Format(time.RFC3339),
	}

	if s.queue == nil {
		if s.local == nil {
			return nil
		}
		return s.local.Handle(ctx, redis.XMessage{ID: "local", Values: values})
	}

	_, err := s.queue.XAdd(ctx, &redis.XAddArgs{
		Stream: s.cfg.Stream,
		Values: values,
	}).Result()
	return err
}
