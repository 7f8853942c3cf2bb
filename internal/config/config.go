package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Storage backend selectors.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	// Core
	BotToken  string `env:"BOT_TOKEN,required"`
	QABaseURL string `env:"QA_BASE_URL,required"`

	// Storage
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DatabaseURL    string `env:"DATABASE_URL"`

	// Session policy. The source widget always restarts in Active
	// after a reload; enabling this restores the lifecycle state too.
	PersistSessionState bool `env:"PERSIST_SESSION_STATE" envDefault:"false"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	switch cfg.StorageBackend {
	case StorageMemory, StorageRedis, StoragePostgres:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if cfg.StorageBackend == StoragePostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL required for postgres storage")
	}
	return cfg, nil
}

// SlogLevel maps the configured level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
