package api

import (
	"errors"
	"net/http"

	"github.com/okian/huddle/internal/domain/types"
)

// ViewsHandler serves the derived dashboard views as JSON.
type ViewsHandler struct {
	deps Dependencies
}

// NewViewsHandler creates a new views handler.
func NewViewsHandler(deps Dependencies) *ViewsHandler {
	return &ViewsHandler{deps: deps}
}

// HandleGetDashboard handles GET /api/dashboard.
//
// 503 loading is returned until the first fetch completes, 502 fetch_failed
// when that fetch failed and no snapshot exists.
func (h *ViewsHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}

	d, err := h.deps.Dashboard(r.Context())
	switch {
	case err == nil:
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, d)
	case errors.Is(err, types.ErrLoading):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "loading", err)
	case errors.Is(err, types.ErrFetchFailed):
		writeError(w, http.StatusBadGateway, "fetch_failed", err)
	case errors.Is(err, types.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
