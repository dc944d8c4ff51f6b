package model

import "errors"

// Sentinel kinds shared by the domain packages. Callers match them with errors.Is.
var (
	// ErrNotFound reports a participant id without a registry or history entry.
	ErrNotFound = errors.New("not found")
	// ErrInconsistentGrid reports qualifying data that cannot form a complete grid.
	ErrInconsistentGrid = errors.New("inconsistent grid")
	// ErrMalformedInput reports an input row the loading layer could not accept.
	ErrMalformedInput = errors.New("malformed input")
	// ErrBackpressure reports that no simulation capacity is available right now.
	ErrBackpressure = errors.New("simulation queue full")
)
