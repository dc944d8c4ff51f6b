package simulation

import "errors"

// Sentinel kinds for engine configuration errors.
var (
	ErrNoGrid     = errors.New("qualifying grid requested but no grid resolver configured")
	ErrNoEntrants = errors.New("no participants registered")
)
