// Package simulation estimates a starting grid and finishing order from
// participant skill, history and weather, perturbed by a bounded random factor.
package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/ranking"
)

// Default engine configuration constants.
const (
	DefaultVariabilityMin = 0.8
	DefaultVariabilityMax = 1.2
	maxSkillRating        = 100
	minSkillRating        = 0
)

// Registry resolves participants.
type Registry interface {
	Lookup(id model.ParticipantID) (model.Participant, error)
	AllIDs() []model.ParticipantID
}

// History resolves historical averages.
type History interface {
	Get(id model.ParticipantID) (model.HistoricalRecord, error)
}

// Weather resolves the condition at a location.
type Weather interface {
	Resolve(locationKey string) model.EnvironmentalCondition
}

// Grid resolves starting positions from qualifying data.
type Grid interface {
	ResolveGrid(eventID model.EventID, participantIDs []model.ParticipantID) (map[model.ParticipantID]int, error)
}

// RawScore is the unranked result for one participant. Lower is better.
type RawScore struct {
	ID     model.ParticipantID
	Name   string
	Start  float64
	Finish float64
}

// Row is one resolved line of an outcome.
type Row struct {
	model.SimulatedOutcome
	Name        string
	StartScore  float64
	FinishScore float64
}

// Outcome is the result of a single run. Rows are ordered by finish position.
type Outcome struct {
	EventID     model.EventID
	LocationKey string
	// Condition is nil when the environment capability is off.
	Condition *model.EnvironmentalCondition
	Seed      int64
	Rows      []Row
}

// Engine combines the reference tables into simulated outcomes. It holds no
// mutable state besides the seed counter, so one engine may serve concurrent
// callers.
type Engine struct {
	registry Registry
	history  History
	weather  Weather
	grid     Grid

	useEnvironment    bool
	useQualifyingGrid bool

	variabilityMin float64
	variabilityMax float64

	seed    int64
	seeded  bool
	counter atomic.Int64
}

// New creates an engine over the given registry and history.
func New(reg Registry, hist History, opts ...Option) *Engine {
	e := &Engine{
		registry:       reg,
		history:        hist,
		variabilityMin: DefaultVariabilityMin,
		variabilityMax: DefaultVariabilityMax,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// UsesQualifyingGrid reports whether start positions come from qualifying data.
func (e *Engine) UsesQualifyingGrid() bool { return e.useQualifyingGrid }

// UsesEnvironment reports whether weather influences scores.
func (e *Engine) UsesEnvironment() bool { return e.useEnvironment && e.weather != nil }

// NextSeed returns the configured seed, or a fresh one per call when unseeded.
func (e *Engine) NextSeed() int64 {
	if e.seeded {
		return e.seed
	}
	return time.Now().UnixNano() + e.counter.Add(1)
}

// Simulate computes raw start and finish scores for every registered participant.
func (e *Engine) Simulate(ctx context.Context, eventID model.EventID, locationKey string) ([]RawScore, error) {
	rng := rand.New(rand.NewSource(e.NextSeed())) //nolint:gosec // simulation randomness, not crypto
	return e.SimulateWithRand(ctx, rng, eventID, locationKey)
}

// SimulateWithRand is Simulate with a caller-owned generator. rng must not be
// shared between goroutines.
func (e *Engine) SimulateWithRand(ctx context.Context, rng *rand.Rand, _ model.EventID, locationKey string) ([]RawScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	influence := 1.0
	if e.UsesEnvironment() {
		influence = e.weather.Resolve(locationKey).InfluenceFactor
	}

	ids := e.registry.AllIDs()
	if len(ids) == 0 {
		return nil, ErrNoEntrants
	}

	scores := make([]RawScore, 0, len(ids))
	for _, id := range ids {
		p, err := e.registry.Lookup(id)
		if err != nil {
			return nil, err
		}
		rec, err := e.history.Get(id)
		if err != nil {
			return nil, err
		}

		skill := float64(maxSkillRating-clampRating(p.SkillRating)) / maxSkillRating
		// one draw per participant, shared by start and finish
		variability := e.variabilityMin + rng.Float64()*(e.variabilityMax-e.variabilityMin)
		factor := skill * influence * variability

		scores = append(scores, RawScore{
			ID:     id,
			Name:   p.Name,
			Start:  rec.AvgStartPosition * factor,
			Finish: rec.AvgFinishPosition * factor,
		})
	}
	return scores, nil
}

// Run simulates an event and resolves dense start and finish positions.
func (e *Engine) Run(ctx context.Context, eventID model.EventID, locationKey string) (*Outcome, error) {
	return e.RunSeeded(ctx, e.NextSeed(), eventID, locationKey)
}

// RunSeeded is Run with an explicit seed.
func (e *Engine) RunSeeded(ctx context.Context, seed int64, eventID model.EventID, locationKey string) (*Outcome, error) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // simulation randomness, not crypto
	raw, err := e.SimulateWithRand(ctx, rng, eventID, locationKey)
	if err != nil {
		return nil, err
	}

	startScores := make([]ranking.Score, len(raw))
	finishScores := make([]ranking.Score, len(raw))
	for i, r := range raw {
		startScores[i] = ranking.Score{ID: r.ID, Value: r.Start}
		finishScores[i] = ranking.Score{ID: r.ID, Value: r.Finish}
	}

	var starts map[model.ParticipantID]int
	if e.useQualifyingGrid {
		if e.grid == nil {
			return nil, ErrNoGrid
		}
		ids := make([]model.ParticipantID, len(raw))
		for i, r := range raw {
			ids[i] = r.ID
		}
		starts, err = e.grid.ResolveGrid(eventID, ids)
		if err != nil {
			return nil, err
		}
	} else {
		starts = ranking.Rank(startScores)
	}

	out := &Outcome{
		EventID:     eventID,
		LocationKey: locationKey,
		Seed:        seed,
		Rows:        make([]Row, 0, len(raw)),
	}
	if e.UsesEnvironment() {
		c := e.weather.Resolve(locationKey)
		out.Condition = &c
	}

	byID := make(map[model.ParticipantID]RawScore, len(raw))
	for _, r := range raw {
		byID[r.ID] = r
	}
	for i, s := range ranking.Order(finishScores) {
		r := byID[s.ID]
		out.Rows = append(out.Rows, Row{
			SimulatedOutcome: model.SimulatedOutcome{
				ParticipantID:  s.ID,
				StartPosition:  starts[s.ID],
				FinishPosition: i + 1,
			},
			Name:        r.Name,
			StartScore:  r.Start,
			FinishScore: r.Finish,
		})
	}
	return out, nil
}

func clampRating(r int) int {
	return max(minSkillRating, min(maxSkillRating, r))
}
