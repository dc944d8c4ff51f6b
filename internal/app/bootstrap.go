package service

import (
	"context"

	"github.com/okian/pitwall/internal/adapters/dataset"
	"github.com/okian/pitwall/internal/config"
	"github.com/okian/pitwall/internal/domain/simulation"
	"github.com/okian/pitwall/pkg/logger"
)

// LoadTables reads the dataset at path, or the embedded season when path is empty.
func LoadTables(ctx context.Context, path string) (*dataset.Tables, error) {
	var (
		ds  *dataset.Dataset
		err error
	)
	if path == "" {
		ds, err = dataset.LoadDefault(ctx)
	} else {
		ds, err = dataset.Load(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	return ds.Build()
}

// EngineOptions maps configuration onto engine capabilities.
func EngineOptions(cfg *config.Config) []simulation.Option {
	opts := []simulation.Option{
		simulation.WithVariabilityRange(cfg.VariabilityMin, cfg.VariabilityMax),
		simulation.WithEnvironment(cfg.UseEnvironment),
		simulation.WithQualifyingGrid(cfg.UseQualifyingGrid),
	}
	if cfg.Seed != 0 {
		opts = append(opts, simulation.WithSeed(cfg.Seed))
	}
	return opts
}

// FromConfig loads the configured dataset and builds an unstarted Service.
func FromConfig(ctx context.Context, cfg *config.Config, l logger.Logger) (*Service, error) {
	tables, err := LoadTables(ctx, cfg.DatasetPath)
	if err != nil {
		return nil, err
	}
	return New(tables,
		WithLogger(l),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithMaxStoredRuns(cfg.MaxStoredRuns),
		WithMaxBatchRuns(cfg.MaxBatchRuns),
		WithTraceCheckpoints(cfg.TraceCheckpoints),
		WithEngineOptions(EngineOptions(cfg)...),
	), nil
}
