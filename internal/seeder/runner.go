package seeder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/padhaku/eduverse-analytics/pkg/logger"
)

// Run executes a full seeding pass: health check, catalog creation,
// concurrent submission, then a read-back of summaries and leaderboard.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting activity seeding",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("learners", cfg.Learners),
		logger.Int("days", cfg.Days),
		logger.Int("workers", cfg.Workers))

	client := NewClient(cfg)

	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("service is not reachable: %w", err)
	}

	gen := NewGenerator(cfg.Seed)
	catalog := gen.Catalog()

	for _, course := range catalog {
		if err := client.CreateCourse(ctx, course); err != nil {
			return fmt.Errorf("catalog seeding failed: %w", err)
		}
		atomic.AddInt64(&stats.CoursesCreated, 1)
	}
	log.Info(ctx, "catalog seeded", logger.Int64("courses", stats.CoursesCreated))

	subs := gen.Submissions(cfg.Learners, cfg.Days, catalog)
	log.Info(ctx, "generated activity", logger.Int("submissions", len(subs)))

	if err := submitAll(ctx, cfg, client, subs, stats); err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}

	// Let the workers drain the queue before reading back.
	time.Sleep(2 * time.Second)

	verifySummaries(ctx, cfg, client, subs, stats)

	board, err := client.Leaderboard(ctx, cfg.TopN)
	if err != nil {
		log.Warn(ctx, "leaderboard fetch failed", logger.Error(err))
	} else {
		log.Info(ctx, "leaderboard", logger.Int("entries", len(board)))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	log.Info(ctx, "seeding complete",
		logger.Int64("submitted", stats.Submitted),
		logger.Int64("duplicates", stats.Duplicates),
		logger.Int64("failed", stats.Failed),
		logger.Int64("summaries_ok", stats.SummariesOK),
		logger.Duration("duration", stats.Duration))

	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d submissions failed", stats.Failed, len(subs))
	}
	return nil
}

// submitAll fans submissions out over a fixed pool of workers.
func submitAll(ctx context.Context, cfg *Config, client *Client, subs []Submission, stats *Stats) error {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	work := make(chan Submission)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range work {
				status, err := client.Submit(ctx, sub)
				switch {
				case err != nil:
					atomic.AddInt64(&stats.Failed, 1)
					if cfg.Verbose {
						logger.Get().Warn(ctx, "submission rejected", logger.String("submission_id", sub.SubmissionID), logger.Error(err))
					}
				case status == "duplicate":
					atomic.AddInt64(&stats.Duplicates, 1)
				default:
					atomic.AddInt64(&stats.Submitted, 1)
				}
			}
		}()
	}

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			close(work)
			wg.Wait()
			return ctx.Err()
		case work <- sub:
		}
	}
	close(work)
	wg.Wait()
	return nil
}

// verifySummaries spot-checks the analytics endpoint for a handful of learners.
func verifySummaries(ctx context.Context, cfg *Config, client *Client, subs []Submission, stats *Stats) {
	seen := make(map[string]struct{})
	for _, sub := range subs {
		if _, ok := seen[sub.UserID]; ok {
			continue
		}
		seen[sub.UserID] = struct{}{}
		if len(seen) > cfg.TopN {
			break
		}

		if _, err := client.Summary(ctx, sub.UserID); err != nil {
			atomic.AddInt64(&stats.SummariesFailed, 1)
			if cfg.Verbose {
				logger.Get().Warn(ctx, "summary fetch failed", logger.String("user_id", sub.UserID), logger.Error(err))
			}
			continue
		}
		atomic.AddInt64(&stats.SummariesOK, 1)
	}
}
