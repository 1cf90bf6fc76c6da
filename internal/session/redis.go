package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dealerhub/internal/models"
)

type redisRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RedisBackend stores one key per session and lets Redis expire it.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisBackend{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisBackend) key(id string) string {
	return r.prefix + id
}

func (r *RedisBackend) Insert(ctx context.Context, s models.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session: expires_at must be in the future")
	}

	data, err := json.Marshal(redisRecord(s))
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.key(s.ID), data, ttl).Result()
	if err != nil {
		return err
	}
	if !created {
		return ErrExists
	}
	return nil
}

func (r *RedisBackend) Get(ctx context.Context, id string) (models.Session, error) {
	val, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Session{}, ErrNotFound
	}
	if err != nil {
		return models.Session{}, err
	}

	var rec redisRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return models.Session{}, fmt.Errorf("session: unmarshal: %w", err)
	}
	return models.Session(rec), nil
}

func (r *RedisBackend) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}
