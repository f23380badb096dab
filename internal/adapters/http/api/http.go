// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/wellscreen/internal/domain/model"
	"github.com/okian/wellscreen/internal/domain/types"
)

// Request headers read by the screening handlers.
const (
	HeaderSubjectID      = "X-Subject-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

const defaultMaxBodyBytes int64 = 64 << 10

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Submit scores and stores a submission. A repeated idempotency key
	// returns the original receipt with Duplicate set.
	Submit(ctx context.Context, subjectID, idempotencyKey string, sub model.Submission) (types.Receipt, error)

	// Get returns a stored record by id.
	Get(ctx context.Context, id string) (model.Record, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	screeningsHandler *ScreeningsHandler
	dashboardHandler  *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		screeningsHandler: NewScreeningsHandler(deps, o.maxBodyBytes),
		dashboardHandler:  newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/screenings", MetricsMiddleware(s.screeningsHandler.HandlePostScreening, "screenings"))
	mux.HandleFunc("/screenings/", MetricsMiddleware(s.screeningsHandler.HandleGetScreening, "screening"))
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
