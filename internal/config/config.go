// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and environment on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DatasetPath points at a YAML dataset. Empty selects the embedded season.
	DatasetPath string `koanf:"dataset_path"`

	// QueueSize bounds the in-memory simulation job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of simulation workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxStoredRuns caps how many runs the run store keeps.
	MaxStoredRuns int `koanf:"max_stored_runs"`

	// MaxBatchRuns caps the runs accepted by a single batch request.
	MaxBatchRuns int `koanf:"max_batch_runs"`

	// VariabilityMin and VariabilityMax bound the per-participant random factor.
	VariabilityMin float64 `koanf:"variability_min"`
	VariabilityMax float64 `koanf:"variability_max"`

	// UseQualifyingGrid takes start positions from qualifying data.
	UseQualifyingGrid bool `koanf:"use_qualifying_grid"`

	// UseEnvironment applies the weather influence factor.
	UseEnvironment bool `koanf:"use_environment"`

	// Seed fixes the engine seed; zero means a fresh seed per run.
	Seed int64 `koanf:"seed"`

	// TraceCheckpoints is the number of progress points in a run trace.
	TraceCheckpoints int `koanf:"trace_checkpoints"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		DatasetPath:       "",
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		MaxStoredRuns:     1_000,
		MaxBatchRuns:      10_000,
		VariabilityMin:    0.8,
		VariabilityMax:    1.2,
		UseQualifyingGrid: false,
		UseEnvironment:    true,
		Seed:              0,
		TraceCheckpoints:  10,
	}
}
