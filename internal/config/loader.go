package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if EDUVERSE_CONFIG is set
//  3. env (prefix EDUVERSE_)
//
// A .env file in the working directory is read into the environment first,
// so its entries participate in layer 3.
func Load(_ context.Context) (*Config, error) {
	// Optional dotenv; absence is not an error.
	_ = godotenv.Load()

	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("EDUVERSE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: EDUVERSE_ADDR, EDUVERSE_QUEUE_SIZE, ...
	// Map env keys like EDUVERSE_QUEUE_SIZE -> queue_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("EDUVERSE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "eduverse_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return invalid("addr", "must not be empty")
	}
	if c.QueueSize < 1 {
		return invalid("queue_size", "must be positive")
	}
	if c.WorkerCount < 1 {
		return invalid("worker_count", "must be positive")
	}
	if c.MaxLeaderboardLimit < 1 {
		return invalid("max_leaderboard_limit", "must be positive")
	}
	switch c.StoreKind {
	case StoreKindMemory:
	case StoreKindDatabase:
		if c.StoreDSN == "" {
			return invalid("store_dsn", "must not be empty for the database store")
		}
	default:
		return invalid("store_kind", "must be memory or database")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return invalid("timezone", "must be a valid IANA zone name")
		}
	}
	return nil
}

// Location resolves the configured timezone, defaulting to UTC.
// Call only after Load has validated the config.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
