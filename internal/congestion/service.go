package congestion

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the congestion service.
type ServiceConfig struct {
	// Repository persists evaluated lane metrics.
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service evaluates lane snapshot batches and serves the latest lane state.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new congestion service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}
}

// IngestSnapshots evaluates one simulation tick's snapshots, persists the
// per-lane metrics, and returns the real-time classifications for alerting.
func (s *Service) IngestSnapshots(ctx context.Context, snaps []LaneSnapshot) ([]Classification, error) {
	metrics := EvaluateBatch(snaps)

	if err := s.repo.UpsertMetrics(ctx, metrics); err != nil {
		return nil, fmt.Errorf("storing lane metrics: %w", err)
	}

	classifications := ClassifyBatch(snaps)

	congested := 0
	for _, c := range classifications {
		if c.Level != LevelGreen {
			congested++
		}
	}

	s.logger.Debug().
		Int("lanes", len(snaps)).
		Int("congested", congested).
		Msg("lane snapshots evaluated")

	return classifications, nil
}

// LaneMetrics returns the latest evaluation for every lane.
func (s *Service) LaneMetrics(ctx context.Context) ([]LaneMetrics, error) {
	return s.repo.ListMetrics(ctx)
}

// Alerts returns the alert messages for lanes at or above the given service
// level severity.
func (s *Service) Alerts(ctx context.Context, minLevel ServiceLevel) ([]LaneMetrics, error) {
	metrics, err := s.repo.ListMetrics(ctx)
	if err != nil {
		return nil, err
	}

	var alerts []LaneMetrics
	for _, m := range metrics {
		if m.ServiceLevel >= minLevel {
			alerts = append(alerts, m)
		}
	}
	return alerts, nil
}
