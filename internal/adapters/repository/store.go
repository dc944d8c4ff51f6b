// Package repository keeps finished simulation runs in memory for later retrieval.
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/types"
	"github.com/okian/pitwall/pkg/metrics"
)

const defaultMaxRuns = 1_000

// Store provides read/write access to stored runs.
type Store interface {
	// Save stores run under a fresh id and returns that id.
	Save(ctx context.Context, run *types.Run) (string, error)

	// Get returns the run with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*types.Run, error)

	// List returns up to limit runs, newest first. A zero eventID matches every event
	// and a zero limit returns everything kept.
	List(ctx context.Context, eventID model.EventID, limit int) ([]*types.Run, error)

	// Count returns the number of stored runs.
	Count(ctx context.Context) int
}

// MemoryStore is a bounded FIFO Store.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*types.Run
	order   []string // oldest first
	maxRuns int
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		maxRuns: defaultMaxRuns,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.byID = make(map[string]*types.Run, s.maxRuns)
	s.order = make([]string, 0, s.maxRuns)
	return s
}

// Save stores a copy of run. The copy gets a new UUID and, if unset, a creation time.
func (s *MemoryStore) Save(ctx context.Context, run *types.Run) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if run == nil {
		return "", fmt.Errorf("%w: nil run", ErrInvalidRun)
	}

	stored := *run
	stored.ID = uuid.NewString()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now().UTC()
	}

	s.mu.Lock()
	for len(s.order) >= s.maxRuns {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
	s.byID[stored.ID] = &stored
	s.order = append(s.order, stored.ID)
	count := len(s.order)
	s.mu.Unlock()

	metrics.UpdateStoredRuns(count)
	return stored.ID, nil
}

// Get returns the stored run. Callers must treat it as read-only.
func (s *MemoryStore) Get(ctx context.Context, id string) (*types.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	run, ok := s.byID[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, nil
}

// List walks runs newest first.
func (s *MemoryStore) List(ctx context.Context, eventID model.EventID, limit int) ([]*types.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	size := len(s.order)
	if limit > 0 && limit < size {
		size = limit
	}
	out := make([]*types.Run, 0, size)
	for i := len(s.order) - 1; i >= 0; i-- {
		run := s.byID[s.order[i]]
		if eventID != 0 && run.EventID != int(eventID) {
			continue
		}
		out = append(out, run)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of stored runs.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
