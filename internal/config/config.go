package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SessionConfig selects the session backend and shapes the auth cookie.
type SessionConfig struct {
	Backend      string // redis, postgres or memory
	TTL          time.Duration
	Timeout      time.Duration
	CookieName   string
	CookieSecure bool
	KeyPrefix    string
}

type SecurityConfig struct {
	TokenSecret string
}

type FlagsConfig struct {
	Backend      string // postgres or memory
	CacheTTL     time.Duration
	CacheTimeout time.Duration // per redis call, well under Timeout
	Timeout      time.Duration
}

type JobsConfig struct {
	SweepSchedule string
	Stream        string
}

type WorkerConfig struct {
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Session          SessionConfig
	Security         SecurityConfig
	Flags            FlagsConfig
	Jobs             JobsConfig
	Worker           WorkerConfig
	AllowCORSOrigins []string
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	// a local .env only fills variables the process does not already have
	_ = godotenv.Load(".env")

	v.SetEnvPrefix("DEALERHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Session.Backend {
	case "redis", "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown session backend %q", c.Session.Backend)
	}
	switch c.Flags.Backend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown flags backend %q", c.Flags.Backend)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: session ttl must be positive")
	}
	if c.Session.Timeout <= 0 || c.Flags.Timeout <= 0 {
		return fmt.Errorf("config: store timeouts must be positive")
	}
	if c.IsProduction() && c.Security.TokenSecret == "" {
		return fmt.Errorf("config: security.tokensecret is required in production")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.automigrate", false)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.backend", "redis")
	v.SetDefault("session.ttl", "168h") // 7 days, matches the cookie Max-Age
	v.SetDefault("session.timeout", "2s")
	v.SetDefault("session.cookiename", "authToken")
	v.SetDefault("session.cookiesecure", false)
	v.SetDefault("session.keyprefix", "session:")

	v.SetDefault("security.tokensecret", "")

	v.SetDefault("flags.backend", "postgres")
	v.SetDefault("flags.cachettl", "1m")
	v.SetDefault("flags.cachetimeout", "100ms")
	v.SetDefault("flags.timeout", "2s")

	v.SetDefault("jobs.sweepschedule", "0 */15 * * * *")
	v.SetDefault("jobs.stream", "dealerhub:jobs")

	v.SetDefault("worker.stream", "dealerhub:jobs")
	v.SetDefault("worker.group", "dealerhub-workers")
	v.SetDefault("worker.consumer", "worker-1")
	v.SetDefault("worker.claiminterval", "30s")
}
