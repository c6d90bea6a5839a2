// Package http exposes the advisory API over HTTP: the advice and voice
// endpoints plus health, readiness, and Prometheus metrics.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brisalabs/air-advisor/internal/advisor"
	"github.com/brisalabs/air-advisor/internal/observability"
)

// AdvisorService is the advice surface the API exposes.
type AdvisorService interface {
	Advise(ctx context.Context, req advisor.AdviceRequest) (advisor.Advice, error)
	AdviseVoice(ctx context.Context, req advisor.VoiceRequest) (advisor.VoiceResponse, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the advisory HTTP endpoints.
type Server struct {
	httpServer *http.Server
	service    AdvisorService
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the advice, voice, health,
// readiness, and metrics routes.
func NewServer(addr string, service AdvisorService, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service: service,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /api/v1/advice", s.instrument("advice", s.handleAdvice))
	mux.Handle("POST /api/v1/voice", s.instrument("voice", s.handleVoice))

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// instrument wraps an API handler with panic recovery, request logging, and
// the per-endpoint metrics.
func (s *Server) instrument(endpoint string, next func(http.ResponseWriter, *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("handler panic",
					"endpoint", endpoint, "panic", p, "stack", string(debug.Stack()))
				if !rec.wrote {
					errorJSON(rec, http.StatusInternalServerError, "internal error")
				}
			}
			duration := time.Since(start)
			s.metrics.RequestsTotal.WithLabelValues(endpoint, outcomeForStatus(rec.status())).Inc()
			s.metrics.RequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
			s.logger.Info("request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status(),
				"duration_ms", duration.Milliseconds(),
			)
		}()

		next(rec, r)
	})
}

// statusRecorder captures the first status code written so the middleware
// can label metrics and log lines after the handler returns.
type statusRecorder struct {
	http.ResponseWriter
	code  int
	wrote bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wrote {
		r.code = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wrote {
		r.code = http.StatusOK
		r.wrote = true
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) status() int {
	if !r.wrote {
		return http.StatusOK
	}
	return r.code
}

func outcomeForStatus(code int) string {
	switch {
	case code < http.StatusBadRequest:
		return "ok"
	case code == http.StatusBadRequest:
		return "invalid"
	case code == http.StatusNotFound:
		return "not_found"
	case code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout:
		return "unavailable"
	default:
		return "error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
