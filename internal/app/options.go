package service

import (
	"github.com/okian/pitwall/internal/adapters/repository"
	"github.com/okian/pitwall/internal/domain/simulation"
	"github.com/okian/pitwall/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of simulation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending simulation jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxStoredRuns caps the run store.
func WithMaxStoredRuns(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxStoredRuns = n
		}
	}
}

// WithMaxBatchRuns caps the runs accepted by one batch.
func WithMaxBatchRuns(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchRuns = n
		}
	}
}

// WithTraceCheckpoints sets how many progress points a run trace has.
func WithTraceCheckpoints(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.traceCheckpoints = n
		}
	}
}

// WithEngineOptions forwards options to the simulation engine.
func WithEngineOptions(opts ...simulation.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithStore replaces the default in-memory run store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
