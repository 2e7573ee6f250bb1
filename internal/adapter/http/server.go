package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/air-quality-etl/internal/report"
)

// ReportSource supplies the report of the latest completed run.
type ReportSource interface {
	LastReport() (report.Report, bool)
}

// Server exposes health, readiness, metrics and report HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /report routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, reports ReportSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /report", handleReport(reports))
	mux.HandleFunc("GET /report/districts", handleDistricts(reports))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleReport(src ReportSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rep, ok := src.LastReport()
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no completed run"})
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// handleDistricts serves the top districts by mean PM10. ?all=true returns
// every district.
func handleDistricts(src ReportSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := src.LastReport()
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no completed run"})
			return
		}
		if r.URL.Query().Get("all") == "true" {
			writeJSON(w, http.StatusOK, rep.Districts)
			return
		}
		writeJSON(w, http.StatusOK, rep.TopDistricts())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
