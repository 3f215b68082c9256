// Command seed-activity populates a running analytics instance with a
// synthetic learner cohort: a course catalog, weeks of chapter completions,
// and a read-back pass over summaries and the leaderboard.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/padhaku/eduverse-analytics/internal/seeder"
	"github.com/padhaku/eduverse-analytics/pkg/logger"
)

const runTimeout = 10 * time.Minute

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		learners = flag.Int("learners", seeder.DefaultLearners, "Number of synthetic learners")
		days     = flag.Int("days", seeder.DefaultDays, "Activity window in days ending today")
		workers  = flag.Int("workers", seeder.DefaultWorkers, "Number of concurrent submitters")
		timeout  = flag.Duration("timeout", seeder.DefaultTimeout, "HTTP request timeout")
		topN     = flag.Int("top", seeder.DefaultTopN, "Leaderboard size to fetch at the end")
		seed     = flag.Int64("seed", 0, "Random seed for reproducible runs (0 = time-based)")
		verbose  = flag.Bool("verbose", false, "Log every rejected submission")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := &seeder.Config{
		BaseURL:  *baseURL,
		Learners: *learners,
		Days:     *days,
		Workers:  *workers,
		Timeout:  *timeout,
		TopN:     *topN,
		Seed:     *seed,
		Verbose:  *verbose,
	}

	if err := seeder.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("seeding failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
