package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth   AuthConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Cache  CacheConfig
	Events EventsConfig
	Loader LoaderConfig
	Rate   RateConfig
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	TokenTTL   time.Duration `env:"JWT_TTL,     default=168h"`
	BcryptCost int           `env:"BCRYPT_COST, default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=forum"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

type CacheConfig struct {
	Backend string        `env:"CACHE_BACKEND,   default=redis"`
	TTL     time.Duration `env:"CACHE_TTL,       default=1h"`
	MaxCost int64         `env:"CACHE_MAX_BYTES, default=67108864"`
}

type EventsConfig struct {
	Backend   string        `env:"EVENT_BUS,        default=memory"`
	Buffer    int           `env:"EVENT_BUFFER,     default=1024"`
	KeepAlive time.Duration `env:"EVENT_KEEP_ALIVE, default=15s"`
}

type LoaderConfig struct {
	Wait     time.Duration `env:"LOADER_WAIT,      default=1ms"`
	MaxBatch int           `env:"LOADER_MAX_BATCH, default=100"`
}

type RateConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,   default=20"`
	Burst int     `env:"RATE_LIMIT_BURST, default=40"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Cache.Backend != BackendMemory && c.Cache.Backend != BackendRedis {
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.Cache.Backend))
	}
	if c.Events.Backend != BackendMemory && c.Events.Backend != BackendRedis {
		errs = append(errs, fmt.Errorf("EVENT_BUS must be %q or %q, got %q", BackendMemory, BackendRedis, c.Events.Backend))
	}
	if c.Events.Buffer <= 0 {
		errs = append(errs, errors.New("EVENT_BUFFER must be positive"))
	}
	if c.Loader.MaxBatch <= 0 {
		errs = append(errs, errors.New("LOADER_MAX_BATCH must be positive"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UsesRedis reports whether any backend needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Cache.Backend == BackendRedis || c.Events.Backend == BackendRedis
}
