// Package grid resolves starting positions from qualifying results.
package grid

import (
	"fmt"
	"slices"

	"github.com/okian/pitwall/internal/domain/model"
)

// Registry is the subset of the participant registry the resolver needs.
type Registry interface {
	Contains(id model.ParticipantID) bool
}

// Resolver assigns a complete grid for an event.
type Resolver struct {
	registry   Registry
	qualifying map[model.EventID][]model.QualifyingResult
}

// NewResolver groups qualifying rows by event, preserving input order.
func NewResolver(reg Registry, results []model.QualifyingResult) *Resolver {
	q := make(map[model.EventID][]model.QualifyingResult)
	for _, r := range results {
		q[r.EventID] = append(q[r.EventID], r)
	}
	return &Resolver{registry: reg, qualifying: q}
}

// HasQualifying reports whether any qualifying row exists for eventID.
func (r *Resolver) HasQualifying(eventID model.EventID) bool {
	return len(r.qualifying[eventID]) > 0
}

// ResolveGrid returns a permutation of 1..N over participantIDs. Recorded
// positions are kept; each position value and each participant counts once,
// first row wins. The remaining participants take the smallest free slots in
// ascending id order.
func (r *Resolver) ResolveGrid(eventID model.EventID, participantIDs []model.ParticipantID) (map[model.ParticipantID]int, error) {
	n := len(participantIDs)
	entrants := make(map[model.ParticipantID]struct{}, n)
	for _, id := range participantIDs {
		if !r.registry.Contains(id) {
			return nil, fmt.Errorf("grid for event %d: participant %d: %w", eventID, id, model.ErrNotFound)
		}
		if _, dup := entrants[id]; dup {
			return nil, fmt.Errorf("grid for event %d: participant %d listed twice: %w", eventID, id, model.ErrMalformedInput)
		}
		entrants[id] = struct{}{}
	}

	rows := make([]model.QualifyingResult, 0, len(r.qualifying[eventID]))
	distinct := make(map[int]struct{})
	for _, q := range r.qualifying[eventID] {
		if !r.registry.Contains(q.ParticipantID) {
			return nil, fmt.Errorf("qualifying for event %d: participant %d: %w", eventID, q.ParticipantID, model.ErrNotFound)
		}
		if _, ok := entrants[q.ParticipantID]; !ok {
			continue
		}
		distinct[q.Position] = struct{}{}
		rows = append(rows, q)
	}
	if len(distinct) > n {
		return nil, fmt.Errorf("event %d: %d recorded positions for %d participants: %w", eventID, len(distinct), n, model.ErrInconsistentGrid)
	}

	grid := make(map[model.ParticipantID]int, n)
	used := make(map[int]struct{}, n)
	for _, q := range rows {
		if _, taken := used[q.Position]; taken {
			continue
		}
		if _, placed := grid[q.ParticipantID]; placed {
			continue
		}
		if q.Position < 1 || q.Position > n {
			return nil, fmt.Errorf("event %d: participant %d recorded at position %d outside 1..%d: %w", eventID, q.ParticipantID, q.Position, n, model.ErrInconsistentGrid)
		}
		used[q.Position] = struct{}{}
		grid[q.ParticipantID] = q.Position
	}

	missing := make([]model.ParticipantID, 0, n-len(grid))
	for _, id := range participantIDs {
		if _, ok := grid[id]; !ok {
			missing = append(missing, id)
		}
	}
	slices.Sort(missing)

	next := 1
	for _, id := range missing {
		for {
			if _, taken := used[next]; !taken {
				break
			}
			next++
		}
		grid[id] = next
		used[next] = struct{}{}
	}
	return grid, nil
}
