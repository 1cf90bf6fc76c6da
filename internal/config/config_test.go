package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "authToken", cfg.Session.CookieName)
	assert.Equal(t, 2*time.Second, cfg.Session.Timeout)
	assert.Equal(t, "postgres", cfg.Flags.Backend)
	assert.False(t, cfg.IsProduction())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("DEALERHUB_ENVIRONMENT", "staging")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
}

func TestLoadNestedEnvironmentOverrides(t *testing.T) {
	t.Setenv("DEALERHUB_SESSION_BACKEND", "memory")
	t.Setenv("DEALERHUB_SESSION_TTL", "12h")
	t.Setenv("DEALERHUB_FLAGS_CACHETTL", "0s")
	t.Setenv("DEALERHUB_FLAGS_CACHETIMEOUT", "50ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Zero(t, cfg.Flags.CacheTTL)
	assert.Equal(t, 50*time.Millisecond, cfg.Flags.CacheTimeout)
}

func TestValidate(t *testing.T) {
	base := func() AppConfig {
		return AppConfig{
			Environment: "development",
			Session:     SessionConfig{Backend: "memory", TTL: time.Hour, Timeout: time.Second},
			Flags:       FlagsConfig{Backend: "memory", Timeout: time.Second},
		}
	}

	t.Run("valid", func(t *testing.T) {
		cfg := base()
		assert.NoError(t, cfg.validate())
	})

	t.Run("unknown session backend", func(t *testing.T) {
		cfg := base()
		cfg.Session.Backend = "firestore"
		assert.Error(t, cfg.validate())
	})

	t.Run("unknown flags backend", func(t *testing.T) {
		cfg := base()
		cfg.Flags.Backend = "redis"
		assert.Error(t, cfg.validate())
	})

	t.Run("zero ttl", func(t *testing.T) {
		cfg := base()
		cfg.Session.TTL = 0
		assert.Error(t, cfg.validate())
	})

	t.Run("production requires secret", func(t *testing.T) {
		cfg := base()
		cfg.Environment = "production"
		assert.Error(t, cfg.validate())

		cfg.Security.TokenSecret = "s3cret"
		assert.NoError(t, cfg.validate())
	})
}
