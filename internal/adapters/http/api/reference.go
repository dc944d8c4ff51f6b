package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/pitwall/internal/domain/types"
)

// ReferenceDependencies exposes the loaded reference tables.
type ReferenceDependencies interface {
	Participants(ctx context.Context) ([]types.ParticipantView, error)
	Condition(ctx context.Context, locationKey string) (types.Condition, error)
}

// ReferenceHandler handles participant and condition lookups.
type ReferenceHandler struct {
	deps ReferenceDependencies
}

// NewReferenceHandler creates a new reference handler.
func NewReferenceHandler(deps ReferenceDependencies) *ReferenceHandler {
	return &ReferenceHandler{deps: deps}
}

// HandleParticipants handles GET /participants requests.
func (h *ReferenceHandler) HandleParticipants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ps, err := h.deps.Participants(r.Context())
	if err != nil {
		writeUpstreamError(w, Wrap("api.get_participants", err))
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// HandleCondition handles GET /conditions/{location} requests.
// Unknown locations resolve to the default condition.
func (h *ReferenceHandler) HandleCondition(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_condition"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	location := strings.TrimPrefix(r.URL.Path, "/conditions/")
	if strings.TrimSpace(location) == "" || strings.Contains(location, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	c, err := h.deps.Condition(r.Context(), location)
	if err != nil {
		writeUpstreamError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
