package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type Backend string

const (
	BackendDynamoDB Backend = "dynamodb"
	BackendRedis    Backend = "redis"
	BackendMemory   Backend = "memory"
)

type Config struct {
	// State storage
	StateBackend Backend       `env:"STATE_BACKEND" envDefault:"dynamodb"`
	StateTable   string        `env:"STATE_TABLE"`
	StateTTL     time.Duration `env:"STATE_TTL" envDefault:"720h"`
	RedisAddr    string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB      int           `env:"REDIS_DB" envDefault:"0"`

	// Channel secret in SSM; empty disables the bearer check.
	ParamPrefix string `env:"PARAM_PREFIX"`

	// Local binaries
	HTTPAddr         string `env:"HTTP_ADDR" envDefault:":3978"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and validates backend-specific settings.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StateBackend {
	case BackendDynamoDB:
		if strings.TrimSpace(c.StateTable) == "" {
			return fmt.Errorf("config: STATE_TABLE is required for the %s backend", c.StateBackend)
		}
	case BackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("config: REDIS_ADDR is required for the %s backend", c.StateBackend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown STATE_BACKEND %q", c.StateBackend)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
