// SPDX-License-Identifier: MIT

// Package api serves the UPS over HTTP. Routes keep the /pywrstat prefix
// and payload shapes existing clients already speak; health probes and
// middleware follow this daemon's own conventions.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gowrstat/gowrstat/internal/cache"
	"github.com/gowrstat/gowrstat/internal/config"
	"github.com/gowrstat/gowrstat/internal/health"
	"github.com/gowrstat/gowrstat/internal/journal"
	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

// Deps holds what the API server needs. Journal may be nil when the
// event journal is disabled; the events route then answers 503.
type Deps struct {
	Config    *config.Holder
	Client    *pwrstat.Client
	Cache     cache.Cache
	Journal   *journal.Store
	Health    *health.Manager
	Broadcast *Broadcaster
}

// Server is the HTTP API for one wrapped pwrstat daemon.
type Server struct {
	deps Deps
}

// NewServer builds a server; Router produces the handler to serve.
func NewServer(deps Deps) *Server {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoop()
	}
	return &Server{deps: deps}
}

// Router assembles the middleware stack and routes. The rate limit and
// request timeout are fixed at build time; listen-address level changes
// require a restart anyway.
func (s *Server) Router() *chi.Mux {
	cfg := s.deps.Config.Get()

	r := chi.NewRouter()

	// Safety net first, correlation before anything that logs.
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(securityHeaders)
	r.Use(httpMetrics)
	r.Use(otelTracing)
	r.Use(requestLogger)
	r.Use(rateLimiter(cfg.API.RateLimit, cfg.API.RateWindow))

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)

	r.Route("/pywrstat", func(r chi.Router) {
		// Bounded, non-streaming reads.
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(cfg.API.RequestTimeout))
			r.With(s.requireJWT).Get("/ups/status", s.handleUPSStatus)
			r.With(s.requireJWT).Get("/ups/events", s.handleEvents)
			r.Get("/ups/properties", s.handleUPSProperties)
			r.Get("/daemon/configuration", s.handleDaemonConfiguration)
		})

		// Streaming; lives for as long as the client stays connected, so
		// the request timeout must not apply.
		r.With(s.requireJWT).Get("/ups/status/monitor", s.handleMonitorStream)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, &APIError{
			Code:    "NOT_FOUND",
			Message: "No such route",
		}, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusMethodNotAllowed, &APIError{
			Code:    "METHOD_NOT_ALLOWED",
			Message: "Method not allowed on this route",
		}, "")
	})

	return r
}
