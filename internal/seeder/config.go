// Package seeder generates synthetic learner activity and drives it through a
// running analytics instance over HTTP. It is the load and smoke-test harness
// behind cmd/seed-activity.
package seeder

import (
	"time"
)

// Default configuration constants.
const (
	DefaultLearners = 50
	DefaultDays     = 30
	DefaultWorkers  = 8
	DefaultTimeout  = 10 * time.Second
	DefaultTopN     = 10
)

// Config controls a seeding run.
type Config struct {
	// BaseURL of the running service, e.g. http://localhost:9080.
	BaseURL string

	// Learners is the number of synthetic learner profiles to generate.
	Learners int

	// Days is the size of the activity window ending today.
	Days int

	// Workers is the number of concurrent submitters.
	Workers int

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// TopN is the leaderboard size fetched at the end of the run.
	TopN int

	// Seed makes generation reproducible. Zero means time-based.
	Seed int64

	// Verbose enables per-submission logging.
	Verbose bool
}

// Stats accumulates counters over a run.
type Stats struct {
	CoursesCreated  int64
	Submitted       int64
	Duplicates      int64
	Failed          int64
	SummariesOK     int64
	SummariesFailed int64
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
