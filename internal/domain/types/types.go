// Package types contains the result shapes handed to the presentation layer.
package types

import "time"

// SimulationRequest asks for one run, or a batch when Runs > 1.
// A nil Seed lets the engine pick one; the chosen seed is echoed in the result.
type SimulationRequest struct {
	EventID     int    `json:"event_id"`
	LocationKey string `json:"location_key,omitempty"`
	Seed        *int64 `json:"seed,omitempty"`
	Runs        int    `json:"runs,omitempty"`
	Trace       bool   `json:"trace,omitempty"`
}

// ResultRow is one line of a simulated classification.
type ResultRow struct {
	ParticipantID  int     `json:"participant_id"`
	Name           string  `json:"name"`
	StartPosition  int     `json:"start_position"`
	FinishPosition int     `json:"finish_position"`
	StartScore     float64 `json:"start_score"`
	FinishScore    float64 `json:"finish_score"`
}

// Trace is the position of one participant at evenly spaced progress checkpoints.
type Trace struct {
	Name      string    `json:"name"`
	Progress  []float64 `json:"progress"`
	Positions []float64 `json:"positions"`
}

// Condition mirrors the resolved weather for a run.
type Condition struct {
	LocationKey     string  `json:"location_key"`
	Label           string  `json:"label"`
	TempMin         float64 `json:"temp_min"`
	TempMax         float64 `json:"temp_max"`
	InfluenceFactor float64 `json:"influence_factor"`
}

// Run is a stored simulation result.
type Run struct {
	ID          string      `json:"id"`
	EventID     int         `json:"event_id"`
	LocationKey string      `json:"location_key"`
	Condition   *Condition  `json:"condition,omitempty"`
	Seed        int64       `json:"seed"`
	CreatedAt   time.Time   `json:"created_at"`
	Rows        []ResultRow `json:"rows"`
	Trace       []Trace     `json:"trace,omitempty"`
}

// BatchRow aggregates one participant over many runs.
type BatchRow struct {
	ParticipantID     int     `json:"participant_id"`
	Name              string  `json:"name"`
	MeanStart         float64 `json:"mean_start"`
	MeanFinish        float64 `json:"mean_finish"`
	FinishStdDev      float64 `json:"finish_stddev"`
	WinProbability    float64 `json:"win_probability"`
	PodiumProbability float64 `json:"podium_probability"`
}

// BatchSummary is the aggregate of a Monte Carlo batch.
type BatchSummary struct {
	EventID     int        `json:"event_id"`
	LocationKey string     `json:"location_key"`
	Runs        int        `json:"runs"`
	Seed        int64      `json:"seed"`
	Rows        []BatchRow `json:"rows"`
}

// ParticipantView joins a registry entry with its history.
type ParticipantView struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	SkillRating       int     `json:"skill_rating"`
	AvgStartPosition  float64 `json:"avg_start_position"`
	AvgFinishPosition float64 `json:"avg_finish_position"`
}
