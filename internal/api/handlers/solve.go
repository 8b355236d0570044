package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"pickup-route-service/internal/adapters/distance"
	"pickup-route-service/internal/api/dto"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/services"
)

// Solve plans pickup routes for a batch of stops.
type Solve struct {
	planner *services.Planner
}

func NewSolve(planner *services.Planner) *Solve {
	return &Solve{planner: planner}
}

func (h *Solve) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.Stops) == 0 {
		writeError(w, r, http.StatusBadRequest, "stops must not be empty")
		return
	}

	res, err := h.planner.Plan(r.Context(), req.ToStops(), req.Vehicles)
	if err != nil {
		var cfgErr *domain.ConfigError
		var provErr *distance.ProviderError
		switch {
		case errors.As(err, &cfgErr):
			writeError(w, r, http.StatusBadRequest, cfgErr.Error())
		case errors.As(err, &provErr):
			writeError(w, r, http.StatusBadGateway, provErr.Error())
		case errors.Is(err, services.ErrNoSolution):
			body := map[string]any{"error": err.Error()}
			if res != nil && len(res.Prechecks) > 0 {
				body["prechecks"] = res.Prechecks
			}
			writeJSON(w, r, http.StatusUnprocessableEntity, body)
		default:
			writeError(w, r, http.StatusInternalServerError, "planning failed")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromPlanResult(res))
}
