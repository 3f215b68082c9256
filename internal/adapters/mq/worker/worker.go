// Package worker defines worker contracts for asynchronous crediting of
// chapter completions.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/padhaku/eduverse-analytics/internal/adapters/repository"
	"github.com/padhaku/eduverse-analytics/internal/domain/model"
	"github.com/padhaku/eduverse-analytics/pkg/logger"
	"github.com/padhaku/eduverse-analytics/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Completion abstracts what workers read off the queue.
type Completion = model.Completion

// Policy decides how many points a completion is worth.
type Policy interface {
	Award(ctx context.Context, c model.Completion) (int, error)
	CourseBonus() int
}

// Crediter applies a completion to the store.
type Crediter interface {
	RecordCompletion(ctx context.Context, c model.Completion, points, bonus int) (repository.CompletionResult, error)
}

// Queue defines how workers receive completions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Completion
}

// Worker processes completions and writes credits using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing completions.
type InMemoryWorker struct {
	queue    Queue
	policy   Policy
	crediter Crediter
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, policy Policy, crediter Crediter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		policy:   policy,
		crediter: crediter,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	completions := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case c, ok := <-completions:
			if !ok {
				return
			}
			if err := w.processCompletion(ctx, c); err != nil {
				w.logger.Error(ctx, "error processing completion", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processCompletion credits a single completion.
func (w *InMemoryWorker) processCompletion(ctx context.Context, c Completion) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	points, err := w.policy.Award(ctx, c)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "award_error")
		w.logger.Error(ctx, "award failed for submission",
			logger.String("submission_id", c.SubmissionID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to award submission %s: %w", c.SubmissionID, err)
	}

	result, err := w.crediter.RecordCompletion(ctx, c, points, w.policy.CourseBonus())
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		w.logger.Error(ctx, "crediting failed for submission",
			logger.String("submission_id", c.SubmissionID),
			logger.Error(err),
		)
		return fmt.Errorf("crediting submission %s: %w", c.SubmissionID, err)
	}

	if result.Duplicate {
		metrics.RecordSubmissionDuplicate()
		w.logger.Debug(ctx, "chapter already completed",
			logger.String("submission_id", c.SubmissionID),
			logger.String("user_id", c.UserID),
		)
		return nil
	}

	metrics.RecordPointsAwarded(points)
	if result.CourseCompleted {
		metrics.RecordCourseBonusAwarded()
		w.logger.Info(ctx, "course completed",
			logger.String("user_id", c.UserID),
			logger.Int64("course_id", c.CourseID),
			logger.Int("total_points", result.Stats.Points),
		)
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	policy   Policy
	crediter Crediter

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count sizes the pool
// from the CPU count.
func NewPool(workerCount int, queue Queue, policy Policy, crediter Crediter) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		policy:   policy,
		crediter: crediter,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			policy,
			crediter,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Stop stops all workers, waiting briefly for each to drain.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// Close the queue first so workers drain the backlog and exit.
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
