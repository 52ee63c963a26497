// Package http serves the sales-ops JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salesops/internal/core"
	"salesops/internal/log"
	"salesops/internal/metrics"
	"salesops/internal/middleware/ratelimit"
	"salesops/internal/middleware/security"
	"salesops/internal/services"
)

type (
	EventService interface {
		ListEvents(ctx context.Context) ([]core.Event, error)
		GetEvent(ctx context.Context, id string) (core.Event, error)
		CreateEvent(ctx context.Context, e core.Event) (core.Event, error)
		UpdateEvent(ctx context.Context, id string, patch core.EventPatch) (core.Event, error)
		DeleteEvent(ctx context.Context, id string) error
	}

	CompanyService interface {
		ListCompanies(ctx context.Context) ([]core.Company, error)
		CreateCompany(ctx context.Context, c core.Company) (core.Company, error)
		DeleteCompany(ctx context.Context, id string) error
	}

	ReportService interface {
		Report(ctx context.Context, q services.ReportQuery) (services.Report, error)
		CrossTab(ctx context.Context, q services.ReportQuery) (services.CrossTabReport, error)
		DashboardStats(ctx context.Context, ref time.Time) (services.DashboardStats, error)
		Banner(ctx context.Context) (services.Banner, error)
	}

	// Pinger reports whether a dependency is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Deps are the services the server routes to. Ready may be nil.
type Deps struct {
	Events    EventService
	Companies CompanyService
	Reports   ReportService
	Ready     Pinger
}

type Server struct {
	http.Server
	deps        Deps
	logger      *log.Logger
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector

	shutdownOnce sync.Once
}

// NewServer wires the routes and middleware and returns a server ready for
// ListenAndServe.
func NewServer(addr string, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentHTTP)
	}
	s := &Server{
		deps:        deps,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    security.NewDetector(),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(log.RequestLogger(s.logger, s.detector.ClientIP))
	r.Use(s.detector.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(countRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
		}))

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.Post("/", s.handleCreateEvent)
			r.Get("/{id}", s.handleGetEvent)
			r.Patch("/{id}", s.handleUpdateEvent)
			r.Delete("/{id}", s.handleDeleteEvent)
		})

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", s.handleListCompanies)
			r.Post("/", s.handleCreateCompany)
			r.Delete("/{id}", s.handleDeleteCompany)
		})

		r.Get("/reports/crosstab", s.handleCrossTab)
		r.Get("/reports/{dimension}", s.handleReport)
		r.Get("/dashboard-stats", s.handleDashboardStats)
		r.Get("/banner", s.handleBanner)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
	return r
}

// countRequests records every response by route pattern and status.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Shutdown stops the rate limiter and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	})
	return err
}
