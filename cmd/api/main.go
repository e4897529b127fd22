// Package main provides the entrypoint for the RiskRoute API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskroute/riskroute/internal/api"
	"github.com/riskroute/riskroute/internal/api/middleware"
	"github.com/riskroute/riskroute/internal/auth"
	"github.com/riskroute/riskroute/internal/congestion"
	"github.com/riskroute/riskroute/internal/database"
	"github.com/riskroute/riskroute/internal/geocode/nominatim"
	"github.com/riskroute/riskroute/internal/incident"
	"github.com/riskroute/riskroute/internal/incident/socrata"
	"github.com/riskroute/riskroute/internal/provider/resilience"
	"github.com/riskroute/riskroute/internal/risk"
	"github.com/riskroute/riskroute/internal/routerisk"
	"github.com/riskroute/riskroute/internal/routing"
	"github.com/riskroute/riskroute/internal/routing/osrm"
	"github.com/riskroute/riskroute/internal/telemetry"
	"github.com/riskroute/riskroute/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "riskroute-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting RiskRoute API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Provider health registry
	registry := resilience.NewRegistry()

	// Initialize JWT service for operator endpoints
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		Issuer:     "https://api.riskroute.nyc",
		Audience:   "riskroute-api",
	})

	// Incident ingestion pipeline
	socrataClient := socrata.NewClient(socrata.ClientConfig{
		BaseURL:  os.Getenv("SOCRATA_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})
	incidentRepo := incident.NewPostgresRepository(pool)
	incidentService := incident.NewService(incident.ServiceConfig{
		Source:     socrataClient,
		Repository: incidentRepo,
		Normalizer: incident.NewNormalizer(incident.NormalizerConfig{Logger: log}),
		Logger:     log,
	})
	log.Info().Msg("incident service initialized")

	// Risk aggregation
	riskRepo := risk.NewPostgresRepository(pool)
	riskService := risk.NewService(risk.ServiceConfig{
		Records:    incidentService,
		Repository: riskRepo,
		Logger:     log,
	})
	log.Info().Msg("risk service initialized")

	// Congestion evaluation
	congestionRepo := congestion.NewPostgresRepository(pool)
	congestionService := congestion.NewService(congestion.ServiceConfig{
		Repository: congestionRepo,
		Logger:     log,
	})
	log.Info().Msg("congestion service initialized")

	// Safe route evaluation: OSRM directions + Nominatim street lookups
	osrmClient := osrm.NewClient(osrm.ClientConfig{
		BaseURL:  os.Getenv("OSRM_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})
	directionsService := routing.NewService(routing.ServiceConfig{
		Provider: osrmClient,
		Logger:   log,
	})
	nominatimClient := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:  os.Getenv("NOMINATIM_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})
	routeService := routerisk.NewService(routerisk.ServiceConfig{
		Directions: directionsService,
		Evaluator: routerisk.NewEvaluator(routerisk.EvaluatorConfig{
			Geocoder: nominatimClient,
			Zones:    riskService,
			Logger:   log,
		}),
		Logger: log,
	})
	log.Info().Msg("safe route service initialized")

	// Refresh job backing the operator trigger endpoint. Scheduled runs are
	// the worker binary's job; the API only runs on demand.
	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:   worker.RefreshConfigFromEnv(),
		Logger:   log,
		Ingester: incidentService,
		Risk:     riskService,
	})

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		ServiceName:       serviceName,
		Metrics:           metrics,
		JWTService:        jwtService,
		Registry:          registry,
		DB:                pool,
		RiskService:       riskService,
		CongestionService: congestionService,
		RouteService:      routeService,
		RefreshJob:        refreshJob,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
