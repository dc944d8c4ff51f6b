// Package model contains domain models passed between layers.
package model

// ParticipantID identifies a driver across every input table.
type ParticipantID int

// EventID identifies a single race weekend.
type EventID int

// Participant is a registry entry.
type Participant struct {
	ID          ParticipantID
	Name        string
	SkillRating int // 0-100, higher is stronger
}

// HistoricalRecord holds averages computed offline from past events.
type HistoricalRecord struct {
	AvgStartPosition  float64
	AvgFinishPosition float64
}

// EnvironmentalCondition describes the weather expected at a location.
type EnvironmentalCondition struct {
	LocationKey     string  `json:"location_key"`
	ConditionLabel  string  `json:"condition"`
	TempMin         float64 `json:"temp_min"`
	TempMax         float64 `json:"temp_max"`
	InfluenceFactor float64 `json:"influence_factor"`
}

// QualifyingResult is a recorded grid slot from a qualifying session.
type QualifyingResult struct {
	EventID       EventID
	ParticipantID ParticipantID
	Position      int
}

// Event binds an event id to the location it is held at.
type Event struct {
	ID          EventID
	LocationKey string
	Name        string
}

// SimulatedOutcome is one resolved row of a simulation run.
type SimulatedOutcome struct {
	ParticipantID  ParticipantID
	StartPosition  int
	FinishPosition int
}
