// Package queue defines the contract for buffering chapter completions
// between the submission endpoint and the crediting workers.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/padhaku/eduverse-analytics/internal/domain/model"
	"github.com/padhaku/eduverse-analytics/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 100000
	defaultBufferSize    = 100000
)

// Completion is the payload type flowing through the queue.
type Completion = model.Completion

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a completion to the queue.
	// Returns false if the queue is full or closed and nothing was added.
	Enqueue(ctx context.Context, c Completion) bool

	// Dequeue returns a channel that receives completions as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Completion

	// Len returns the current number of queued completions.
	Len(ctx context.Context) int

	// Close shuts the queue down. After closing, no new completions can
	// be enqueued and the dequeue channel drains then closes.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	completions chan Completion
	capacity    int
	bufferSize  int
	mu          sync.RWMutex
	closed      bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates an in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.completions = make(chan Completion, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a completion to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Completion) bool {
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	if len(q.completions) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.completions <- c:
		metrics.RecordQueueEnqueue()
		q.publishSizeMetrics()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives completions as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Completion {
	out := make(chan Completion)
	go func() {
		defer close(out)
		for c := range q.completions {
			select {
			case out <- c:
				metrics.RecordQueueDequeue()
				q.publishSizeMetrics()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued completions.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.completions)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close shuts the queue down.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.completions)
	q.closed = true
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) publishSizeMetrics() {
	size := len(q.completions)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
