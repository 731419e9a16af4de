// Package server exposes the detection and anonymization pipeline over
// HTTP: one endpoint per operation plus health and identifier
// validation, with per-client rate limiting.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/veilware/veil/internal/audit"
	"github.com/veilware/veil/internal/detect"
	"github.com/veilware/veil/internal/redact"
)

const defaultTimeout = 30 * time.Second

// Server holds the dependencies for the HTTP API.
type Server struct {
	router     *chi.Mux
	baseConfig redact.Config
	external   detect.ExternalRecognizer
	auditStore *audit.Store
	limiter    *RateLimiter
	startTime  time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithExternalRecognizer attaches an NER collaborator used when a
// request asks for entity recognition beyond the pattern detectors.
func WithExternalRecognizer(r detect.ExternalRecognizer) Option {
	return func(s *Server) { s.external = r }
}

// WithAuditStore enables the run ledger: every anonymize call is
// recorded and the response carries its run ID.
func WithAuditStore(store *audit.Store) Option {
	return func(s *Server) { s.auditStore = store }
}

// WithRateLimit sets the per-client request rate (requests per second).
func WithRateLimit(rps int) Option {
	return func(s *Server) { s.limiter = NewRateLimiter(rps) }
}

// New builds a Server around a base anonymization config. Per-request
// fields override the base; anything a request omits falls back to it.
func New(baseConfig redact.Config, opts ...Option) (*Server, error) {
	if err := baseConfig.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		router:     chi.NewRouter(),
		baseConfig: baseConfig,
		startTime:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Routes returns the configured http.Handler.
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultTimeout))
	if s.limiter != nil {
		r.Use(s.rateLimitMiddleware)
	}

	r.Get("/healthz", s.handleHealth)

	r.Post("/v1/detect", s.handleDetect)
	r.Post("/v1/anonymize", s.handleAnonymize)
	r.Post("/v1/validate", s.handleValidate)

	return r
}
