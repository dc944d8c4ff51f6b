// Package dataset loads the participant, history, qualifying, condition and
// event tables from YAML and turns them into domain lookups.
package dataset

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/okian/pitwall/internal/domain/grid"
	"github.com/okian/pitwall/internal/domain/history"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/registry"
	"github.com/okian/pitwall/internal/domain/weather"
)

// DefaultSource names the embedded dataset in logs and errors.
const DefaultSource = "embedded:season2024.yaml"

//go:embed data/season2024.yaml
var season2024 []byte

// Sentinel kinds for dataset errors.
var (
	ErrLoad = errors.New("load dataset failed")
)

type participantRow struct {
	ID          int    `koanf:"id"`
	Name        string `koanf:"name"`
	SkillRating int    `koanf:"skill_rating"`
}

type historyRow struct {
	ID                int     `koanf:"id"`
	AvgStartPosition  float64 `koanf:"avg_start_position"`
	AvgFinishPosition float64 `koanf:"avg_finish_position"`
}

type qualifyingRow struct {
	EventID       int `koanf:"event_id"`
	ParticipantID int `koanf:"participant_id"`
	Position      int `koanf:"position"`
}

type conditionRow struct {
	Location string  `koanf:"location"`
	Label    string  `koanf:"label"`
	TempMin  float64 `koanf:"temp_min"`
	TempMax  float64 `koanf:"temp_max"`
}

type eventRow struct {
	ID       int    `koanf:"id"`
	Location string `koanf:"location"`
	Name     string `koanf:"name"`
}

type document struct {
	Participants []participantRow `koanf:"participants"`
	History      []historyRow     `koanf:"history"`
	Qualifying   []qualifyingRow  `koanf:"qualifying"`
	Conditions   []conditionRow   `koanf:"conditions"`
	Events       []eventRow       `koanf:"events"`
}

// Dataset holds validated input tables. It is immutable once loaded.
type Dataset struct {
	Source       string
	Participants []model.Participant
	History      map[model.ParticipantID]model.HistoricalRecord
	Qualifying   []model.QualifyingResult
	Conditions   []model.EnvironmentalCondition
	Events       []model.Event
}

// Tables are the domain lookups built from a dataset.
type Tables struct {
	Registry *registry.Registry
	History  *history.Table
	Weather  *weather.Resolver
	Grid     *grid.Resolver
	Events   map[model.EventID]model.Event
}

// Load reads a dataset from a YAML file.
func Load(ctx context.Context, path string) (*Dataset, error) {
	return load(ctx, path, file.Provider(path))
}

// LoadDefault reads the embedded 2024 season dataset.
func LoadDefault(ctx context.Context) (*Dataset, error) {
	return load(ctx, DefaultSource, rawbytes.Provider(season2024))
}

// Parse reads a dataset from raw YAML.
func Parse(ctx context.Context, source string, data []byte) (*Dataset, error) {
	return load(ctx, source, rawbytes.Provider(data))
}

func load(ctx context.Context, source string, p koanf.Provider) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, source, err)
	}

	var doc document
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", source, model.ErrMalformedInput, err)
	}

	ds, err := doc.validate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	ds.Source = source
	return ds, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrMalformedInput, fmt.Sprintf(format, args...))
}

// validate rejects rows the engine must never see.
func (d *document) validate() (*Dataset, error) { //nolint:gocyclo // one check per column
	ds := &Dataset{
		Participants: make([]model.Participant, 0, len(d.Participants)),
		History:      make(map[model.ParticipantID]model.HistoricalRecord, len(d.History)),
		Qualifying:   make([]model.QualifyingResult, 0, len(d.Qualifying)),
		Conditions:   make([]model.EnvironmentalCondition, 0, len(d.Conditions)),
		Events:       make([]model.Event, 0, len(d.Events)),
	}

	known := make(map[model.ParticipantID]struct{}, len(d.Participants))
	for i, p := range d.Participants {
		id := model.ParticipantID(p.ID)
		if strings.TrimSpace(p.Name) == "" {
			return nil, malformed("participants[%d]: empty name", i)
		}
		if _, dup := known[id]; dup {
			return nil, malformed("participants[%d]: duplicate id %d", i, p.ID)
		}
		known[id] = struct{}{}
		ds.Participants = append(ds.Participants, model.Participant{ID: id, Name: p.Name, SkillRating: p.SkillRating})
	}

	for i, h := range d.History {
		id := model.ParticipantID(h.ID)
		if _, ok := known[id]; !ok {
			return nil, malformed("history[%d]: unknown participant %d", i, h.ID)
		}
		if _, dup := ds.History[id]; dup {
			return nil, malformed("history[%d]: duplicate participant %d", i, h.ID)
		}
		if h.AvgStartPosition <= 0 || h.AvgFinishPosition <= 0 {
			return nil, malformed("history[%d]: averages must be positive", i)
		}
		ds.History[id] = model.HistoricalRecord{AvgStartPosition: h.AvgStartPosition, AvgFinishPosition: h.AvgFinishPosition}
	}

	for i, q := range d.Qualifying {
		id := model.ParticipantID(q.ParticipantID)
		if _, ok := known[id]; !ok {
			return nil, malformed("qualifying[%d]: unknown participant %d", i, q.ParticipantID)
		}
		if q.Position < 1 {
			return nil, malformed("qualifying[%d]: position %d must be positive", i, q.Position)
		}
		ds.Qualifying = append(ds.Qualifying, model.QualifyingResult{
			EventID:       model.EventID(q.EventID),
			ParticipantID: id,
			Position:      q.Position,
		})
	}

	for i, c := range d.Conditions {
		if strings.TrimSpace(c.Location) == "" {
			return nil, malformed("conditions[%d]: empty location", i)
		}
		ds.Conditions = append(ds.Conditions, model.EnvironmentalCondition{
			LocationKey:    c.Location,
			ConditionLabel: c.Label,
			TempMin:        c.TempMin,
			TempMax:        c.TempMax,
		})
	}

	events := make(map[model.EventID]struct{}, len(d.Events))
	for i, e := range d.Events {
		id := model.EventID(e.ID)
		if _, dup := events[id]; dup {
			return nil, malformed("events[%d]: duplicate id %d", i, e.ID)
		}
		if strings.TrimSpace(e.Location) == "" {
			return nil, malformed("events[%d]: empty location", i)
		}
		events[id] = struct{}{}
		ds.Events = append(ds.Events, model.Event{ID: id, LocationKey: e.Location, Name: e.Name})
	}

	return ds, nil
}

// Build constructs the domain lookups.
func (d *Dataset) Build() (*Tables, error) {
	reg, err := registry.New(d.Participants)
	if err != nil {
		return nil, err
	}
	events := make(map[model.EventID]model.Event, len(d.Events))
	for _, e := range d.Events {
		events[e.ID] = e
	}
	return &Tables{
		Registry: reg,
		History:  history.New(d.History),
		Weather:  weather.NewResolver(d.Conditions),
		Grid:     grid.NewResolver(reg, d.Qualifying),
		Events:   events,
	}, nil
}
