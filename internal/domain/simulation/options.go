package simulation

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSeed makes every call reproducible: each call builds its own generator
// from seed.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
		e.seeded = true
	}
}

// WithVariabilityRange sets the bounds of the per-participant random factor.
// Equal bounds give a constant factor.
func WithVariabilityRange(minFactor, maxFactor float64) Option {
	return func(e *Engine) {
		if minFactor > 0 && maxFactor >= minFactor {
			e.variabilityMin = minFactor
			e.variabilityMax = maxFactor
		}
	}
}

// WithWeather sets the environmental resolver and turns the environment capability on.
func WithWeather(w Weather) Option {
	return func(e *Engine) {
		if w != nil {
			e.weather = w
			e.useEnvironment = true
		}
	}
}

// WithEnvironment toggles the environment capability. It has no effect without
// a weather resolver.
func WithEnvironment(enabled bool) Option {
	return func(e *Engine) {
		e.useEnvironment = enabled
	}
}

// WithGrid sets the qualifying grid resolver.
func WithGrid(g Grid) Option {
	return func(e *Engine) {
		if g != nil {
			e.grid = g
		}
	}
}

// WithQualifyingGrid toggles resolving start positions from qualifying data
// instead of ranking simulated start scores.
func WithQualifyingGrid(enabled bool) Option {
	return func(e *Engine) {
		e.useQualifyingGrid = enabled
	}
}
