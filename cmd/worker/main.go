// Package main provides the entrypoint for the RiskRoute refresh worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskroute/riskroute/internal/database"
	"github.com/riskroute/riskroute/internal/incident"
	"github.com/riskroute/riskroute/internal/incident/socrata"
	"github.com/riskroute/riskroute/internal/provider/resilience"
	"github.com/riskroute/riskroute/internal/risk"
	"github.com/riskroute/riskroute/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "riskroute-worker"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting RiskRoute worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Provider health registry
	registry := resilience.NewRegistry()

	// Incident ingestion pipeline
	socrataClient := socrata.NewClient(socrata.ClientConfig{
		BaseURL:  os.Getenv("SOCRATA_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})
	incidentService := incident.NewService(incident.ServiceConfig{
		Source:     socrataClient,
		Repository: incident.NewPostgresRepository(pool),
		Normalizer: incident.NewNormalizer(incident.NormalizerConfig{Logger: log}),
		Logger:     log,
	})

	// Risk aggregation
	riskService := risk.NewService(risk.ServiceConfig{
		Records:    incidentService,
		Repository: risk.NewPostgresRepository(pool),
		Logger:     log,
	})

	// Scheduled refresh job
	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:   worker.RefreshConfigFromEnv(),
		Logger:   log,
		Ingester: incidentService,
		Risk:     riskService,
	})

	go refreshJob.Start(ctx)

	// Optional Pub/Sub trigger for on-demand refreshes
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if closeErr := handler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub handler")
			}
		}()

		go func() {
			if err := handler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pubsub receive stopped")
			}
		}()
		log.Info().
			Str("subscription", subscription).
			Msg("pubsub trigger enabled")
	} else {
		log.Info().Msg("pubsub trigger not configured, running on schedule only")
	}

	// Health check server
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"version": Version,
		})
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		snapshot := refreshJob.MetricsSnapshot()
		snapshot["running"] = refreshJob.IsRunning()
		_ = json.NewEncoder(w).Encode(snapshot)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
