package handlers

import (
	"net/http"
)

// Health reports liveness plus the wiring the instance runs with, so an
// operator can tell an OSRM deployment from a Google one at a glance.
type Health struct {
	provider  string
	cacheKind string
}

func NewHealth(provider, cacheKind string) *Health {
	if cacheKind == "" {
		cacheKind = "none"
	}
	return &Health{provider: provider, cacheKind: cacheKind}
}

func (h *Health) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res := map[string]string{
		"status":          "ok",
		"matrix_provider": h.provider,
		"matrix_cache":    h.cacheKind,
	}
	writeJSON(w, r, http.StatusOK, res)
}
