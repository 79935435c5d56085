// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/attendboard/internal/domain/model"
	"github.com/okian/attendboard/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// View returns the latest published board view, nil before the first one.
	View() *types.View

	// Terms lists the selectable terms.
	Terms() []types.TermOption

	// Submit queues a board event.
	Submit(ctx context.Context, e model.Event) (types.Receipt, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	eventsHandler    *EventsHandler
	viewHandler      *ViewHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		eventsHandler:    NewEventsHandler(deps),
		viewHandler:      NewViewHandler(deps),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/view", MetricsMiddleware(s.viewHandler.HandleGetView, "view"))
	mux.HandleFunc("/terms", MetricsMiddleware(s.viewHandler.HandleGetTerms, "terms"))
}

// eventRequest mirrors the OpenAPI schema for POST /events.
type eventRequest struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Value   string `json:"value"`
	TS      string `json:"ts"`
}

func (e eventRequest) toEvent() (model.Event, error) {
	ev := model.Event{
		EventID: strings.TrimSpace(e.EventID),
		Kind:    model.EventKind(strings.TrimSpace(e.Type)),
		Value:   e.Value,
	}
	if ev.Kind == "" {
		return ev, errors.New("missing type")
	}
	if ts := strings.TrimSpace(e.TS); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return ev, errors.New("invalid ts; must be RFC3339")
		}
		ev.TS = t
	}
	return ev, nil
}

type ackResponse struct {
	Status string `json:"status"`
	types.Receipt
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
