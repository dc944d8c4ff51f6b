// Package history exposes per-participant average grid and finish positions.
package history

import (
	"fmt"
	"maps"

	"github.com/okian/pitwall/internal/domain/model"
)

// Table is an immutable lookup of historical records. Missing history is an
// error, never imputed.
type Table struct {
	records map[model.ParticipantID]model.HistoricalRecord
}

// New copies records into a table.
func New(records map[model.ParticipantID]model.HistoricalRecord) *Table {
	return &Table{records: maps.Clone(records)}
}

// Get returns the record for id.
func (t *Table) Get(id model.ParticipantID) (model.HistoricalRecord, error) {
	rec, ok := t.records[id]
	if !ok {
		return model.HistoricalRecord{}, fmt.Errorf("history for participant %d: %w", id, model.ErrNotFound)
	}
	return rec, nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}
