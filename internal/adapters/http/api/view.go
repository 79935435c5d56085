package api

import (
	"fmt"
	"net/http"

	"github.com/okian/attendboard/internal/domain/types"
)

// ViewDependencies defines what the view handlers read.
type ViewDependencies interface {
	View() *types.View
	Terms() []types.TermOption
}

// ViewHandler serves the published board.
type ViewHandler struct {
	deps ViewDependencies
}

// NewViewHandler creates a new view handler.
func NewViewHandler(deps ViewDependencies) *ViewHandler {
	return &ViewHandler{deps: deps}
}

// HandleGetView handles GET /view requests.
func (h *ViewHandler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_view"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	v := h.deps.View()
	if v == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", fmt.Errorf("%s: %w", op, ErrUnavailable))
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, v)
}

// HandleGetTerms handles GET /terms requests.
func (h *ViewHandler) HandleGetTerms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	terms := h.deps.Terms()
	if terms == nil {
		terms = []types.TermOption{}
	}
	writeJSON(w, http.StatusOK, terms)
}
