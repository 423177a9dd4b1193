package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rjrmendiola/gsmap-api/internal/domain"
	"github.com/rjrmendiola/gsmap-api/internal/dss"
	"github.com/rjrmendiola/gsmap-api/internal/observability"
	"github.com/rjrmendiola/gsmap-api/internal/weather"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, svc *dss.Service, weatherSvc *weather.Service, metrics *observability.Metrics, version string) *Server {
	handler := NewHandler(repo, cache, bus, svc, weatherSvc, metrics, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)             // CORS for browser clients
	router.Use(RecoverMiddleware)          // Recover from panics
	router.Use(TracingMiddleware)          // OpenTelemetry tracing
	router.Use(MetricsMiddleware(metrics)) // Prometheus request metrics
	router.Use(LoggingMiddleware)          // Request logging
	router.Use(middleware.RealIP)          // Extract real IP
	router.Use(middleware.Compress(5))     // Gzip compression

	// Health and observability endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Decision support routes
	router.Route("/dss", func(r chi.Router) {
		// Alert classification
		r.Get("/alerts", handler.GetAlerts)
		r.Get("/alerts/statistics", handler.GetAlertStatistics)
		r.Get("/alerts/{areaID}", handler.GetAlertForArea)

		// Rule engine
		r.Get("/rules", handler.GetDecisionMatrix)
		r.Post("/rules", handler.CreateRule)
		r.Delete("/rules/{id}", handler.DeleteRule)
		r.Get("/rules/triggered", handler.GetTriggeredRules)

		// Evacuation planning
		r.Get("/evacuation/plan", handler.GetEvacuationPlan)
		r.Get("/evacuation/plan/{areaID}", handler.GetEvacuationPlanForArea)
		r.Get("/evacuation/status", handler.GetEvacuationStatus)

		// Multi-criteria risk scoring
		r.Get("/risk-scores", handler.GetRiskScores)
		r.Post("/risk-scores", handler.PostRiskScores)
		r.Get("/risk-scores/{areaID}", handler.GetRiskScoreForArea)
		r.Post("/scenarios/compare", handler.CompareScenarios)

		// Combined overview and on-demand recompute
		r.Get("/dashboard", handler.GetDashboard)
		r.Post("/recompute", handler.Recompute)
	})

	// Data ingestion and catalog management
	router.Post("/weather", handler.IngestWeather)
	router.Route("/areas", func(r chi.Router) {
		r.Get("/", handler.ListAreas)
		r.Post("/", handler.SaveArea)
		r.Get("/{areaID}", handler.GetArea)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
