// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Store kinds accepted by the "store_kind" key.
const (
	StoreKindMemory   = "memory"
	StoreKindDatabase = "database"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of crediting workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreKind selects the progress store backend: memory or database.
	StoreKind string `koanf:"store_kind"`

	// StoreDriver selects the SQL driver when StoreKind is database:
	// sqlite, postgres, or mysql.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the data source name for the database store.
	StoreDSN string `koanf:"store_dsn"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Timezone is the IANA zone used for day bucketing in analytics,
	// e.g. "Asia/Kolkata". Empty means UTC.
	Timezone string `koanf:"timezone"`

	// ChapterPoints is the award for completing a chapter without a quiz.
	ChapterPoints int `koanf:"chapter_points"`

	// CourseBonus is the one-time award for finishing every chapter of a course.
	CourseBonus int `koanf:"course_bonus"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           100_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          50_000,
		StoreKind:           StoreKindMemory,
		StoreDriver:         "sqlite",
		StoreDSN:            "eduverse.db",
		MaxLeaderboardLimit: 100,
		Timezone:            "",
		ChapterPoints:       10,
		CourseBonus:         50,
	}
}
