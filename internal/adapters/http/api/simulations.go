package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/pitwall/internal/domain/types"
)

// Listing limits for GET /simulations.
const (
	defaultListLimit = 20
	maxListLimit     = 1000
)

// SimulationDependencies defines the interface for simulation operations.
type SimulationDependencies interface {
	Simulate(ctx context.Context, req types.SimulationRequest) (*Run, error)
	SimulateBatch(ctx context.Context, req types.SimulationRequest) (*BatchSummary, error)
	Run(ctx context.Context, id string) (*Run, error)
	Runs(ctx context.Context, eventID int, limit int) ([]*Run, error)
}

// SimulationsHandler handles simulation requests.
type SimulationsHandler struct {
	deps SimulationDependencies
}

// NewSimulationsHandler creates a new simulations handler.
func NewSimulationsHandler(deps SimulationDependencies) *SimulationsHandler {
	return &SimulationsHandler{deps: deps}
}

// HandleSimulations serves POST /simulations and GET /simulations?event_id=&limit=.
func (h *SimulationsHandler) HandleSimulations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SimulationsHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_simulation"

	var req types.SimulationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if req.Runs > 1 {
		summary, err := h.deps.SimulateBatch(r.Context(), req)
		if err != nil {
			writeUpstreamError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, summary)
		return
	}

	run, err := h.deps.Simulate(r.Context(), req)
	if err != nil {
		writeUpstreamError(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/simulations/"+run.ID)
	writeJSON(w, http.StatusCreated, run)
}

func (h *SimulationsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_simulations"

	q := r.URL.Query()
	eventID, err := intParam(q.Get("event_id"), 0)
	if err != nil || eventID < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	limit, err := intParam(q.Get("limit"), defaultListLimit)
	if err != nil || limit < 1 || limit > maxListLimit {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	runs, err := h.deps.Runs(r.Context(), eventID, limit)
	if err != nil {
		writeUpstreamError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleGetSimulation handles GET /simulations/{id} requests.
func (h *SimulationsHandler) HandleGetSimulation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_simulation"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/simulations/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	run, err := h.deps.Run(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func validateRequest(req types.SimulationRequest) error {
	switch {
	case req.EventID <= 0:
		return errors.New("missing or invalid event_id")
	case req.Runs < 0:
		return errors.New("runs must not be negative")
	}
	return nil
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
