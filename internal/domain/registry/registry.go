// Package registry holds the static participant catalog.
package registry

import (
	"fmt"
	"slices"

	"github.com/okian/pitwall/internal/domain/model"
)

// Registry maps participant ids to their catalog entry. It is read-only after New.
type Registry struct {
	byID map[model.ParticipantID]model.Participant
	ids  []model.ParticipantID
}

// New builds a registry. Duplicate ids are rejected.
func New(participants []model.Participant) (*Registry, error) {
	r := &Registry{
		byID: make(map[model.ParticipantID]model.Participant, len(participants)),
		ids:  make([]model.ParticipantID, 0, len(participants)),
	}
	for _, p := range participants {
		if _, exists := r.byID[p.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate participant id %d", model.ErrMalformedInput, p.ID)
		}
		r.byID[p.ID] = p
		r.ids = append(r.ids, p.ID)
	}
	slices.Sort(r.ids)
	return r, nil
}

// Lookup returns the participant registered under id.
func (r *Registry) Lookup(id model.ParticipantID) (model.Participant, error) {
	p, ok := r.byID[id]
	if !ok {
		return model.Participant{}, fmt.Errorf("participant %d: %w", id, model.ErrNotFound)
	}
	return p, nil
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id model.ParticipantID) bool {
	_, ok := r.byID[id]
	return ok
}

// AllIDs returns every registered id in ascending order. The slice is a copy.
func (r *Registry) AllIDs() []model.ParticipantID {
	return slices.Clone(r.ids)
}

// Len returns the number of registered participants.
func (r *Registry) Len() int {
	return len(r.ids)
}
