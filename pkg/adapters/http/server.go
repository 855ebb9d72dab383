// Package http exposes the formation service over REST. It is the
// secondary transport: the same operations as the MCP tool surface, keyed
// by session ID in the path instead of the argument map.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/charter"
	"github.com/aretw0/charter/internal/logging"
	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/formation"
)

// Server routes REST calls onto a formation.Service.
type Server struct {
	svc     *formation.Service
	logger  *slog.Logger
	metrics *metrics
}

// Option configures the Server.
type Option func(*Server)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewHandler builds the REST handler around the formation service.
func NewHandler(svc *formation.Service, opts ...Option) http.Handler {
	s := &Server{
		svc:     svc,
		logger:  logging.NewNop(),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/healthz", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/catalog", s.getCatalog)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.startSession)
		r.Get("/", s.listSessions)
		r.Get("/{sessionID}", s.getSession)
		r.Delete("/{sessionID}", s.deleteSession)
		r.Get("/{sessionID}/readiness", s.getReadiness)
		r.Post("/{sessionID}/{operation}", s.dispatch)
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Metrics --

type metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charter_operations_total",
				Help: "Total formation operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "charter_operation_duration_seconds",
				Help: "Duration of formation operations",
			},
			[]string{"operation"},
		),
	}
	m.registry.MustRegister(m.operations, m.duration)
	return m
}

func (m *metrics) observe(operation, outcome string, elapsed time.Duration) {
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// -- Plumbing --

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{
		Error:     err.Error(),
		Retryable: domain.Retryable(err),
	})
}

// statusFor maps the domain error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrCertificateExpired):
		return http.StatusConflict
	}

	var vErr *domain.ValidationError
	var rErr *domain.RequiredFieldError
	if errors.As(err, &vErr) || errors.As(err, &rErr) {
		return http.StatusUnprocessableEntity
	}

	var cErr *domain.CollaboratorError
	if errors.As(err, &cErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// -- Handlers --

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "charter-http",
		"version": strings.TrimSpace(charter.Version),
	})
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Catalog())
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	res, err := s.svc.Start(r.Context())
	if err != nil {
		s.metrics.observe("start", "error", time.Since(started))
		s.writeError(w, err)
		return
	}
	s.metrics.observe("start", "success", time.Since(started))
	writeJSON(w, http.StatusCreated, res)
}

type sessionSummary struct {
	SessionID string               `json:"session_id"`
	Status    domain.SessionStatus `json:"status"`
	Step      domain.Step          `json:"current_step"`
	UpdatedAt time.Time            `json:"updated_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.svc.Store().List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	summaries := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, sessionSummary{
			SessionID: sess.SessionID,
			Status:    sess.Status,
			Step:      sess.CurrentStep,
			UpdatedAt: sess.UpdatedAt,
			ExpiresAt: sess.ExpiresAt,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Status(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.svc.Store().Delete(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !deleted {
		s.writeError(w, domain.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getReadiness(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.PaymentReadiness(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// dispatch routes POST /sessions/{id}/{operation} onto the matching
// handler. Unknown operations are a 404, not a validation error, so
// clients can distinguish typos from rejected input.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	operation := chi.URLParam(r, "operation")

	op, ok := s.operations()[operation]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: fmt.Sprintf("unknown operation %q", operation),
		})
		return
	}

	started := time.Now()
	res, err := op(r, sessionID)
	if err != nil {
		s.metrics.observe(operation, "error", time.Since(started))
		s.logger.Warn("operation failed", "operation", operation, "session_id", sessionID, "err", err)
		s.writeError(w, err)
		return
	}
	s.metrics.observe(operation, "success", time.Since(started))
	writeJSON(w, http.StatusOK, res)
}
