package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxRuns caps how many runs are kept; the oldest are evicted first.
func WithMaxRuns(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxRuns = n
		}
	}
}

// WithClock overrides the time source used to stamp saved runs.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
