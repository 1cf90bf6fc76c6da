package featureflag

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dealerhub/internal/models"
)

const (
	cacheEnabled  = "1"
	cacheDisabled = "0"
	cacheAbsent   = "-"
)

const defaultCacheTimeout = 100 * time.Millisecond

// CachedStore is a Redis read-through cache in front of another Store.
// Absence is cached too so unconfigured keys do not hit the database on every
// request. A Redis outage degrades to direct reads.
//
// Every Redis call runs under its own short deadline so a slow or hung cache
// cannot spend the caller's budget; the inner store always gets the caller's
// context.
type CachedStore struct {
	inner   Store
	client  redis.UniversalClient
	ttl     time.Duration
	timeout time.Duration
	prefix  string
	log     zerolog.Logger
}

func NewCachedStore(inner Store, client redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *CachedStore {
	return &CachedStore{
		inner:   inner,
		client:  client,
		ttl:     ttl,
		timeout: defaultCacheTimeout,
		prefix:  "flag:",
		log:     log,
	}
}

// WithTimeout bounds each Redis call. Non-positive values keep the default.
func (c *CachedStore) WithTimeout(d time.Duration) *CachedStore {
	if d > 0 {
		c.timeout = d
	}
	return c
}

func (c *CachedStore) key(k Key) string {
	return c.prefix + k.String()
}

func (c *CachedStore) Get(ctx context.Context, key Key) (Flag, error) {
	val, err := c.lookup(ctx, key)
	switch {
	case err == nil:
		switch val {
		case cacheEnabled:
			return Flag{Key: key, Enabled: true}, nil
		case cacheDisabled:
			return Flag{Key: key, Enabled: false}, nil
		case cacheAbsent:
			return Flag{}, ErrNotFound
		}
		c.log.Warn().Str("key", key.String()).Msg("unexpected flag cache value")
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn().Err(err).Msg("flag cache read failed")
		return c.inner.Get(ctx, key)
	}

	flag, err := c.inner.Get(ctx, key)
	switch {
	case err == nil:
		c.store(ctx, key, encode(flag.Enabled))
	case errors.Is(err, ErrNotFound):
		c.store(ctx, key, cacheAbsent)
	}
	return flag, err
}

func (c *CachedStore) Set(ctx context.Context, flag Flag) error {
	if err := c.inner.Set(ctx, flag); err != nil {
		return err
	}
	c.invalidate(ctx, flag.Key)
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, key Key) error {
	if err := c.inner.Delete(ctx, key); err != nil {
		return err
	}
	c.invalidate(ctx, key)
	return nil
}

func (c *CachedStore) List(ctx context.Context, dashboard models.Dashboard) ([]Flag, error) {
	return c.inner.List(ctx, dashboard)
}

func (c *CachedStore) lookup(ctx context.Context, key Key) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Get(ctx, c.key(key)).Result()
}

func (c *CachedStore) store(ctx context.Context, key Key, val string) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.Set(ctx, c.key(key), val, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("flag cache write failed")
	}
}

func (c *CachedStore) invalidate(ctx context.Context, key Key) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.log.Error().Err(err).Str("key", key.String()).Msg("flag cache invalidation failed")
	}
}

func encode(enabled bool) string {
	if enabled {
		return cacheEnabled
	}
	return cacheDisabled
}
