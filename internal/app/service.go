// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/okian/pitwall/internal/adapters/dataset"
	"github.com/okian/pitwall/internal/adapters/mq/queue"
	"github.com/okian/pitwall/internal/adapters/mq/worker"
	"github.com/okian/pitwall/internal/adapters/repository"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/simulation"
	"github.com/okian/pitwall/internal/domain/types"
	"github.com/okian/pitwall/pkg/logger"
	"github.com/okian/pitwall/pkg/metrics"
)

// Default service configuration.
const (
	defaultQueueSize     = 10_000
	defaultMaxStoredRuns = 1_000
	defaultMaxBatchRuns  = 10_000
)

// Service runs simulations over one loaded dataset.
type Service struct {
	mu sync.RWMutex

	tables *dataset.Tables
	engine *simulation.Engine
	queue  *queue.InMemoryQueue
	pool   *worker.Pool
	store  repository.Store
	cancel context.CancelFunc

	// Configuration
	workerCount      int
	queueSize        int
	maxStoredRuns    int
	maxBatchRuns     int
	traceCheckpoints int
	engineOpts       []simulation.Option

	started bool

	logger logger.Logger
}

// New constructs a Service over tables. The engine always receives the
// dataset's weather and grid resolvers; WithEngineOptions can switch the
// capabilities that use them.
func New(tables *dataset.Tables, opts ...Option) *Service {
	s := &Service{
		tables:           tables,
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        defaultQueueSize,
		maxStoredRuns:    defaultMaxStoredRuns,
		maxBatchRuns:     defaultMaxBatchRuns,
		traceCheckpoints: simulation.DefaultCheckpoints,
	}

	for _, opt := range opts {
		opt(s)
	}

	base := []simulation.Option{
		simulation.WithWeather(tables.Weather),
		simulation.WithGrid(tables.Grid),
	}
	s.engine = simulation.New(tables.Registry, tables.History, append(base, s.engineOpts...)...)

	return s
}

// Engine exposes the configured engine.
func (s *Service) Engine() *simulation.Engine {
	return s.engine
}

// Start creates the queue, worker pool and run store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting simulation service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithMaxRuns(s.maxStoredRuns))
	}
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.engine, worker.WithPoolLogger(s.logger.Named("pool")))
	// Workers outlive the caller's context; Stop ends them.
	poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(poolCtx)

	metrics.UpdateParticipants(s.tables.Registry.Len())

	s.started = true
	s.logger.Info(ctx, "simulation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("participants", s.tables.Registry.Len()),
		logger.Bool("qualifyingGrid", s.engine.UsesQualifyingGrid()),
		logger.Bool("environment", s.engine.UsesEnvironment()),
	)

	return nil
}

// Stop drains the queue and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping simulation service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "simulation service stopped")
}

// Simulate runs one simulation, stores it and returns the stored run.
func (s *Service) Simulate(ctx context.Context, req types.SimulationRequest) (*types.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eventID, location, err := s.resolveEvent(req)
	if err != nil {
		return nil, s.fail(err)
	}
	seed := s.seedFor(req)

	start := time.Now()
	job, reply := queue.NewJob(eventID, location, seed)
	if !s.queue.Enqueue(ctx, job) {
		return nil, s.fail(fmt.Errorf("event %d: %w", eventID, model.ErrBackpressure))
	}

	outcome, err := awaitResult(ctx, reply)
	if err != nil {
		return nil, s.fail(err)
	}
	metrics.RecordSimulationLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordSimulation(metrics.ModeSingle)

	run := toRun(outcome)
	if req.Trace {
		run.Trace = toTraces(simulation.Traces(outcome.Rows, s.traceCheckpoints))
	}

	id, err := s.store.Save(ctx, run)
	if err != nil {
		return nil, s.fail(err)
	}

	s.logger.Debug(ctx, "simulation finished",
		logger.String("id", id),
		logger.Int("eventID", int(eventID)),
		logger.Int64("seed", seed),
	)
	return s.store.Get(ctx, id)
}

// SimulateBatch runs req.Runs simulations with seeds seed, seed+1, ... and
// aggregates them. Batches are not stored.
func (s *Service) SimulateBatch(ctx context.Context, req types.SimulationRequest) (*types.BatchSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Runs < 1 || req.Runs > s.maxBatchRuns {
		return nil, s.fail(fmt.Errorf("%w: runs must be between 1 and %d, got %d",
			model.ErrMalformedInput, s.maxBatchRuns, req.Runs))
	}

	eventID, location, err := s.resolveEvent(req)
	if err != nil {
		return nil, s.fail(err)
	}
	base := s.seedFor(req)
	metrics.RecordBatchSize(req.Runs)

	replies := make([]<-chan queue.Result, req.Runs)
	for i := 0; i < req.Runs; i++ {
		job, reply := queue.NewJob(eventID, location, base+int64(i))
		if !s.queue.Enqueue(ctx, job) {
			return nil, s.fail(fmt.Errorf("event %d: batch run %d of %d: %w",
				eventID, i+1, req.Runs, model.ErrBackpressure))
		}
		replies[i] = reply
	}

	outcomes := make([]*simulation.Outcome, req.Runs)
	for i, reply := range replies {
		outcome, err := awaitResult(ctx, reply)
		if err != nil {
			return nil, s.fail(err)
		}
		outcomes[i] = outcome
	}
	metrics.RecordSimulation(metrics.ModeBatch)

	summary := &types.BatchSummary{
		EventID:     int(eventID),
		LocationKey: location,
		Runs:        req.Runs,
		Seed:        base,
	}
	for _, row := range simulation.Aggregate(outcomes) {
		summary.Rows = append(summary.Rows, types.BatchRow{
			ParticipantID:     int(row.ID),
			Name:              row.Name,
			MeanStart:         row.MeanStart,
			MeanFinish:        row.MeanFinish,
			FinishStdDev:      row.FinishStdDev,
			WinProbability:    row.WinProbability,
			PodiumProbability: row.PodiumProbability,
		})
	}
	return summary, nil
}

// Run returns a stored run by id.
func (s *Service) Run(ctx context.Context, id string) (*types.Run, error) {
	store, err := s.runStore()
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

// Runs lists stored runs, newest first. A zero eventID matches every event.
func (s *Service) Runs(ctx context.Context, eventID int, limit int) ([]*types.Run, error) {
	store, err := s.runStore()
	if err != nil {
		return nil, err
	}
	return store.List(ctx, model.EventID(eventID), limit)
}

// Participants lists the registry joined with history, in ascending id order.
func (s *Service) Participants(ctx context.Context) ([]types.ParticipantView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := s.tables.Registry.AllIDs()
	out := make([]types.ParticipantView, 0, len(ids))
	for _, id := range ids {
		p, err := s.tables.Registry.Lookup(id)
		if err != nil {
			return nil, err
		}
		view := types.ParticipantView{ID: int(p.ID), Name: p.Name, SkillRating: p.SkillRating}
		if h, err := s.tables.History.Get(id); err == nil {
			view.AvgStartPosition = h.AvgStartPosition
			view.AvgFinishPosition = h.AvgFinishPosition
		}
		out = append(out, view)
	}
	return out, nil
}

// Condition resolves the weather for a location, falling back to the default.
func (s *Service) Condition(ctx context.Context, locationKey string) (types.Condition, error) {
	if err := ctx.Err(); err != nil {
		return types.Condition{}, err
	}
	return toCondition(s.tables.Weather.Resolve(locationKey)), nil
}

// Events lists the known events in ascending id order.
func (s *Service) Events(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(s.tables.Events))
	for _, e := range s.tables.Events {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b model.Event) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"maxStoredRuns":  s.maxStoredRuns,
		"maxBatchRuns":   s.maxBatchRuns,
		"participants":   s.tables.Registry.Len(),
		"events":         len(s.tables.Events),
		"conditions":     s.tables.Weather.Len(),
		"qualifyingGrid": s.engine.UsesQualifyingGrid(),
		"environment":    s.engine.UsesEnvironment(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		storedRuns := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedRuns"] = storedRuns

		metrics.UpdateStoredRuns(storedRuns)
	}

	return stats
}

func (s *Service) runStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// resolveEvent checks the event id and picks the event's own location when
// the request leaves it empty.
func (s *Service) resolveEvent(req types.SimulationRequest) (model.EventID, string, error) {
	eventID := model.EventID(req.EventID)
	event, ok := s.tables.Events[eventID]
	if !ok {
		return 0, "", fmt.Errorf("event %d: %w", req.EventID, model.ErrNotFound)
	}
	location := req.LocationKey
	if location == "" {
		location = event.LocationKey
	}
	return eventID, location, nil
}

func (s *Service) seedFor(req types.SimulationRequest) int64 {
	if req.Seed != nil {
		return *req.Seed
	}
	return s.engine.NextSeed()
}

// fail records err under its kind and returns it unchanged.
func (s *Service) fail(err error) error {
	metrics.RecordSimulationError(ErrorKind(err))
	return err
}

// ErrorKind maps an error to a short label for metrics and API codes.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInconsistentGrid):
		return "inconsistent_grid"
	case errors.Is(err, model.ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, model.ErrBackpressure):
		return "backpressure"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

func awaitResult(ctx context.Context, reply <-chan queue.Result) (*simulation.Outcome, error) {
	select {
	case res := <-reply:
		return res.Outcome, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func toRun(o *simulation.Outcome) *types.Run {
	run := &types.Run{
		EventID:     int(o.EventID),
		LocationKey: o.LocationKey,
		Seed:        o.Seed,
		Rows:        make([]types.ResultRow, len(o.Rows)),
	}
	if o.Condition != nil {
		c := toCondition(*o.Condition)
		run.Condition = &c
	}
	for i, r := range o.Rows {
		run.Rows[i] = types.ResultRow{
			ParticipantID:  int(r.ParticipantID),
			Name:           r.Name,
			StartPosition:  r.StartPosition,
			FinishPosition: r.FinishPosition,
			StartScore:     r.StartScore,
			FinishScore:    r.FinishScore,
		}
	}
	return run
}

func toCondition(c model.EnvironmentalCondition) types.Condition {
	return types.Condition{
		LocationKey:     c.LocationKey,
		Label:           c.ConditionLabel,
		TempMin:         c.TempMin,
		TempMax:         c.TempMax,
		InfluenceFactor: c.InfluenceFactor,
	}
}

func toTraces(in []simulation.Trace) []types.Trace {
	out := make([]types.Trace, len(in))
	for i, t := range in {
		out[i] = types.Trace{Name: t.Name, Progress: t.Progress, Positions: t.Positions}
	}
	return out
}
