package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/pitwall/internal/adapters/mq/queue"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/simulation"
	"github.com/okian/pitwall/pkg/logger"
	"github.com/okian/pitwall/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Runner executes one seeded simulation.
type Runner interface {
	RunSeeded(ctx context.Context, seed int64, eventID model.EventID, locationKey string) (*simulation.Outcome, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs and replies with their outcome.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing simulation jobs.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	name   string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   runner,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			w.drain(jobs)
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// drain fails any job still buffered for this worker so callers are not left waiting.
func (w *InMemoryWorker) drain(jobs <-chan queue.Job) {
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			reply(job, queue.Result{Err: ErrStopped})
		default:
			return
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

// process runs a single job and replies with its result.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	metrics.WorkerStarted()

	outcome, err := w.runner.RunSeeded(ctx, job.Seed, job.EventID, job.LocationKey)

	metrics.WorkerFinished(float64(time.Since(start).Microseconds())/1000, err != nil)
	if err != nil {
		w.logger.Debug(ctx, "simulation job failed",
			logger.Int("eventID", int(job.EventID)),
			logger.Int64("seed", job.Seed),
			logger.Error(err),
		)
	}

	reply(job, queue.Result{Outcome: outcome, Err: err})
}

func reply(job queue.Job, res queue.Result) {
	if job.Reply == nil {
		return
	}
	select {
	case job.Reply <- res:
	default:
		// Reply already holds a result; the channel is single-use.
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, runner Runner, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}

	for i := 0; i < workerCount; i++ {
		name := "worker-" + strconv.Itoa(i)
		p.workers[i] = NewInMemoryWorker(q, runner,
			WithName(name),
			WithLogger(p.logger.Named(name)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to finish the jobs left in it.
// Workers still busy when ctx (or the pool timeout) expires are stopped and
// their buffered jobs fail with ErrStopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var err error
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			w.stop()
			if err == nil {
				err = fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
			}
		}
	}

	return err
}
