// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SimulationDependencies
	ReferenceDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	simulationsHandler *SimulationsHandler
	referenceHandler   *ReferenceHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		simulationsHandler: NewSimulationsHandler(deps),
		referenceHandler:   NewReferenceHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/participants", MetricsMiddleware(s.referenceHandler.HandleParticipants, "participants"))
	mux.HandleFunc("/conditions/", MetricsMiddleware(s.referenceHandler.HandleCondition, "conditions"))
	mux.HandleFunc("/simulations", MetricsMiddleware(s.simulationsHandler.HandleSimulations, "simulations"))
	mux.HandleFunc("/simulations/", MetricsMiddleware(s.simulationsHandler.HandleGetSimulation, "simulation"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeUpstreamError translates domain error kinds to HTTP statuses.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrMalformedInput):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, model.ErrInconsistentGrid):
		writeError(w, http.StatusConflict, "inconsistent_grid", err)
	case errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// Run and BatchSummary mirror the read shapes returned by the service.
type (
	Run          = types.Run
	BatchSummary = types.BatchSummary
)
