package server

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

type Server struct {
	tracker     *services.Tracker
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

func NewServer(tracker *services.Tracker, logger *slog.Logger) *Server {
	s := &Server{
		tracker:     tracker,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(tracker, logger),
		sseHandlers: handlers.NewSSEHandlers(tracker, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", observability.MetricsHandler())

	// Read model
	s.mux.HandleFunc("GET /api/periods", s.apiHandlers.HandlePeriods)
	s.mux.HandleFunc("GET /api/metrics", s.apiHandlers.HandleMetrics)
	s.mux.HandleFunc("GET /api/timeline", s.apiHandlers.HandleTimeline)
	s.mux.HandleFunc("GET /api/series", s.apiHandlers.HandleSeries)
	s.mux.HandleFunc("GET /api/daily-entries", s.apiHandlers.HandleListDailyEntries)
	s.mux.HandleFunc("GET /api/pending", s.apiHandlers.HandlePending)

	// Mutations
	s.mux.HandleFunc("POST /api/daily-entries", s.apiHandlers.HandleAddDailyEntry)
	s.mux.HandleFunc("DELETE /api/daily-entries/{id}", s.apiHandlers.HandleDeleteDailyEntry)
	s.mux.HandleFunc("POST /api/import/weekly", s.apiHandlers.HandleImportWeekly)
	s.mux.HandleFunc("POST /api/periods/reset", s.apiHandlers.HandleResetPeriods)
	s.mux.HandleFunc("POST /api/pending/flush", s.apiHandlers.HandleFlush)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/metrics", s.sseHandlers.HandleMetrics)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
