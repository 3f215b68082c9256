// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"time"

	"github.com/padhaku/eduverse-analytics/internal/adapters/http/api"
	submissionqueue "github.com/padhaku/eduverse-analytics/internal/adapters/mq/queue"
	workerpool "github.com/padhaku/eduverse-analytics/internal/adapters/mq/worker"
	repository "github.com/padhaku/eduverse-analytics/internal/adapters/repository"
	"github.com/padhaku/eduverse-analytics/internal/domain/analytics"
	"github.com/padhaku/eduverse-analytics/internal/domain/dedupe"
	"github.com/padhaku/eduverse-analytics/internal/domain/gamify"
	"github.com/padhaku/eduverse-analytics/internal/domain/model"
	"github.com/padhaku/eduverse-analytics/internal/domain/types"
	"github.com/padhaku/eduverse-analytics/pkg/logger"
	"github.com/padhaku/eduverse-analytics/pkg/metrics"
)

// Store kinds selectable via configuration.
const (
	StoreMemory   = "memory"
	StoreDatabase = "database"
)

// Service implements the API dependencies for the analytics system.
type Service struct {
	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	queue      submissionqueue.Queue
	policy     *gamify.StandardPolicy
	aggregator *analytics.Aggregator
	workerPool *workerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	storeKind     string
	dbDriver      string
	dbDSN         string
	chapterPoints int
	courseBonus   int
	location      *time.Location

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of crediting workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMemoryStore selects the in-memory store.
func WithMemoryStore() Option {
	return func(s *Service) {
		s.storeKind = StoreMemory
	}
}

// WithDatabaseStore selects the database-backed store.
func WithDatabaseStore(driver, dsn string) Option {
	return func(s *Service) {
		s.storeKind = StoreDatabase
		s.dbDriver = driver
		s.dbDSN = dsn
	}
}

// WithChapterPoints sets the flat award for chapter completions.
func WithChapterPoints(points int) Option {
	return func(s *Service) {
		if points > 0 {
			s.chapterPoints = points
		}
	}
}

// WithCourseBonus sets the one-time course completion bonus.
func WithCourseBonus(bonus int) Option {
	return func(s *Service) {
		if bonus > 0 {
			s.courseBonus = bonus
		}
	}
}

// WithLocation sets the time zone used for day bucketing.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 2,
		queueSize:     100000,
		dedupeSize:    50000,
		storeKind:     StoreMemory,
		chapterPoints: 10,
		courseBonus:   50,
		location:      time.UTC,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting analytics service...")

	switch s.storeKind {
	case StoreDatabase:
		store, err := repository.NewGormStore(s.dbDriver, s.dbDSN)
		if err != nil {
			return err
		}
		s.store = store
		s.logger.Info(ctx, "using database store", logger.String("driver", s.dbDriver))
	default:
		s.store = repository.NewMemStore(ctx)
		s.logger.Info(ctx, "using in-memory store")
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = submissionqueue.NewInMemoryQueue(
		submissionqueue.WithCapacity(s.queueSize),
		submissionqueue.WithBufferSize(s.queueSize),
	)
	s.policy = gamify.NewStandardPolicy(
		gamify.WithChapterPoints(s.chapterPoints),
		gamify.WithCourseBonus(s.courseBonus),
	)
	s.aggregator = analytics.New(
		analytics.WithLocation(s.location),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.policy, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "analytics service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping analytics service...")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.workerPool != nil {
		s.workerPool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "analytics service stopped")
}

// SeenAndRecord atomically checks whether a submission id was seen and
// records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a submission ID from the seen list so it can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a completion for asynchronous crediting.
func (s *Service) Enqueue(ctx context.Context, c model.Completion) bool {
	s.logger.Debug(ctx, "enqueueing completion",
		logger.String("submission_id", c.SubmissionID),
		logger.String("user_id", c.UserID),
		logger.Int64("course_id", c.CourseID),
	)
	return s.queue.Enqueue(ctx, c)
}

// Summary computes the full analytics summary for a user.
func (s *Service) Summary(ctx context.Context, userID string) (analytics.Summary, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSummaryComputed()
		metrics.RecordSummaryLatency(float64(time.Since(start).Milliseconds()))
	}()

	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return analytics.Summary{}, err
	}
	return s.aggregator.Summarize(snap), nil
}

// snapshot gathers everything the aggregator needs for one user.
func (s *Service) snapshot(ctx context.Context, userID string) (analytics.Snapshot, error) {
	snap := analytics.Snapshot{UserID: userID}

	stats, err := s.store.Stats(ctx, userID)
	switch err {
	case nil:
		snap.Stats = stats
	case repository.ErrNotFound:
		// A user with no activity gets a zeroed summary.
	default:
		return analytics.Snapshot{}, err
	}

	if snap.Events, err = s.store.Events(ctx, userID); err != nil {
		return analytics.Snapshot{}, err
	}
	if snap.Progress, err = s.store.Progress(ctx, userID); err != nil {
		return analytics.Snapshot{}, err
	}
	if snap.Courses, err = s.store.Courses(ctx); err != nil {
		return analytics.Snapshot{}, err
	}

	if count := s.store.Count(ctx); count > 0 {
		if snap.Leaderboard, err = s.store.TopN(ctx, count); err != nil {
			return analytics.Snapshot{}, err
		}
	}

	return snap, nil
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	return s.store.TopN(ctx, n)
}

// Rank returns the leaderboard entry for a given user id.
func (s *Service) Rank(ctx context.Context, userID string) (types.Entry, error) {
	return s.store.Rank(ctx, userID)
}

// Stats returns the write-time counters for a user.
func (s *Service) Stats(ctx context.Context, userID string) (model.UserStats, error) {
	return s.store.Stats(ctx, userID)
}

// Events returns a user's points history.
func (s *Service) Events(ctx context.Context, userID string) ([]model.PointsEvent, error) {
	return s.store.Events(ctx, userID)
}

// Progress returns a user's chapter progress.
func (s *Service) Progress(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	return s.store.Progress(ctx, userID)
}

// Courses returns the course catalog.
func (s *Service) Courses(ctx context.Context) ([]model.CourseRecord, error) {
	return s.store.Courses(ctx)
}

// Course returns one catalog entry.
func (s *Service) Course(ctx context.Context, id int64) (model.CourseRecord, error) {
	return s.store.Course(ctx, id)
}

// PutCourse inserts or replaces a catalog entry.
func (s *Service) PutCourse(ctx context.Context, course model.CourseRecord) error {
	return s.store.PutCourse(ctx, course)
}

// DeleteCourse removes a catalog entry.
func (s *Service) DeleteCourse(ctx context.Context, id int64) error {
	return s.store.DeleteCourse(ctx, id)
}

// GetStats returns service statistics for monitoring, refreshing the queue
// and store gauges along the way.
func (s *Service) GetStats() api.ServiceStats {
	stats := api.ServiceStats{
		Started:     s.started,
		StoreKind:   s.storeKind,
		WorkerCount: s.workerCount,
		QueueSize:   s.queueSize,
		DedupeSize:  s.dedupeSize,
	}

	if s.started {
		ctx := context.Background()
		stats.QueueLength = s.queue.Len(ctx)
		stats.UsersTracked = s.store.Count(ctx)
		stats.DedupeEntries = s.Size()

		metrics.UpdateQueueSize(stats.QueueLength)
		metrics.UpdateStoreUsersTracked(stats.UsersTracked)
	}

	return stats
}
