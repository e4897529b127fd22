// Package api provides the HTTP API for RiskRoute.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/riskroute/riskroute/internal/api/handler"
	"github.com/riskroute/riskroute/internal/api/middleware"
	"github.com/riskroute/riskroute/internal/auth"
	"github.com/riskroute/riskroute/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	JWTService *auth.JWTService
	Registry   *resilience.Registry
	DB         handler.Pinger

	RiskService       handler.RiskReader
	CongestionService handler.CongestionService
	RouteService      handler.SafeRouter
	RefreshJob        interface {
		handler.RefreshRunner
		handler.RefreshStatus
	}
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "riskroute-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	var refreshStatus handler.RefreshStatus
	if cfg.RefreshJob != nil {
		refreshStatus = cfg.RefreshJob
	}
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB, cfg.Registry, refreshStatus)
	riskHandler := handler.NewRiskHandler(cfg.RiskService)
	congestionHandler := handler.NewCongestionHandler(cfg.CongestionService)
	routeHandler := handler.NewRouteHandler(cfg.RouteService)
	ingestHandler := handler.NewIngestHandler(cfg.RefreshJob)

	// Create auth middleware for operator endpoints
	authMiddleware := middleware.Auth(cfg.JWTService)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)           // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// Root-level probes for load balancers
	r.Get("/health", opsHandler.HealthCheck)
	r.Get("/ready", opsHandler.ReadinessCheck)
	r.Get("/version", opsHandler.HealthCheck)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires an operator token
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Risk views (public) - standard rate limiting
		r.Route("/risk", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/zones", riskHandler.ZoneRisk)
			r.Get("/zones/top", riskHandler.TopZones)
			r.Get("/hours", riskHandler.HourRisk)
		})

		// Period statistics (public) - standard rate limiting
		r.Route("/stats", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/period", riskHandler.PeriodStats)
			r.Get("/yearly", riskHandler.YearlyStats)
		})

		// Congestion endpoints - the snapshot ingest is called once per
		// simulation tick and stays outside the standard tier
		r.Route("/congestion", func(r chi.Router) {
			r.With(standardRateLimit).Get("/lanes", congestionHandler.LaneMetrics)
			r.With(standardRateLimit).Get("/alerts", congestionHandler.Alerts)
			r.With(expensiveRateLimit).Post("/snapshots", congestionHandler.IngestSnapshots)
		})

		// Safe route endpoint - expensive compute, strict rate limiting
		r.With(expensiveRateLimit).Get("/routes/safe", routeHandler.SafeRoute)

		// Operator ingest trigger (authenticated) - strict rate limiting
		r.Route("/ingest", func(r chi.Router) {
			r.Use(authRateLimit)
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitBySubject(middleware.AuthRateLimit))
			r.Post("/refresh", ingestHandler.TriggerRefresh)
		})
	})

	return r
}
