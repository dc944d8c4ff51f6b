// Package queue defines the contract for enqueuing and consuming simulation jobs.
package queue

import (
	"context"
	"sync"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/simulation"
	"github.com/okian/pitwall/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10_000
)

// Result is what a worker sends back for a job.
type Result struct {
	Outcome *simulation.Outcome
	Err     error
}

// Job is a single seeded simulation request.
// Reply must be buffered (capacity >= 1) so workers never block on it.
type Job struct {
	EventID     model.EventID
	LocationKey string
	Seed        int64
	Reply       chan<- Result
}

// NewJob returns a job and the channel its result will arrive on.
func NewJob(eventID model.EventID, locationKey string, seed int64) (Job, <-chan Result) {
	reply := make(chan Result, 1)
	return Job{EventID: eventID, LocationKey: locationKey, Seed: seed, Reply: reply}, reply
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job to the queue.
	// Returns false if the queue is full or closed and the job was not enqueued.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns a channel that will receive jobs as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.jobs = make(chan Job, q.capacity)
	metrics.UpdateQueue(0, q.capacity)

	return q
}

// Enqueue adds a job to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed || ctx.Err() != nil {
		metrics.RecordQueueEnqueueError()
		return false
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueue(len(q.jobs), q.capacity)
		return true
	default:
		metrics.RecordQueueEnqueueError()
		return false
	}
}

// Dequeue returns a channel that will receive jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			select {
			case out <- j:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueue(len(q.jobs), q.capacity)
			case <-ctx.Done():
				// Hand the job back so it is not lost; a full or closed queue drops it.
				if !q.Enqueue(context.Background(), j) && j.Reply != nil {
					j.Reply <- Result{Err: ctx.Err()}
				}
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.jobs)
	metrics.UpdateQueue(size, q.capacity)
	return size
}

// Cap returns the configured capacity.
func (q *InMemoryQueue) Cap() int {
	return q.capacity
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.jobs)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
