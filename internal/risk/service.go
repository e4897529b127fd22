package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskroute/riskroute/internal/incident"
)

// RecordLister supplies normalized incident records for aggregation.
type RecordLister interface {
	List(ctx context.Context) ([]incident.Record, error)

	// ListSinceYear returns the records from the given calendar year onward,
	// so period statistics avoid loading the full store.
	ListSinceYear(ctx context.Context, year int) ([]incident.Record, error)
}

// ServiceConfig holds configuration for the risk service.
type ServiceConfig struct {
	// Records supplies the incident batch for each aggregation run.
	Records RecordLister

	// Repository persists aggregation outputs.
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service runs batch aggregation over the incident store and serves the
// persisted outputs. Aggregation runs are expected to be triggered serially;
// each run constructs fresh output and replaces the previous one.
type Service struct {
	records RecordLister
	repo    Repository
	logger  zerolog.Logger
}

// NewService creates a new risk service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		records: cfg.Records,
		repo:    cfg.Repository,
		logger:  cfg.Logger,
	}
}

// Rebuild loads the full incident batch and replaces every persisted
// aggregation output: current-year zone aggregates, hour-by-zone aggregates,
// and street-level risk zones.
func (s *Service) Rebuild(ctx context.Context) error {
	start := time.Now()

	records, err := s.records.List(ctx)
	if err != nil {
		return fmt.Errorf("loading incident records: %w", err)
	}

	currentYear := FilterCurrentYear(records, time.Now())
	aggregates := AggregateByZone(currentYear, PeriodWeights)
	if err := s.repo.ReplaceZoneAggregates(ctx, aggregates); err != nil {
		return fmt.Errorf("replacing zone aggregates: %w", err)
	}

	byHour := AggregateByHourZone(records)
	if err := s.repo.ReplaceHourZones(ctx, byHour); err != nil {
		return fmt.Errorf("replacing hour-zone aggregates: %w", err)
	}

	zones := BuildZones(records, PeriodWeights)
	if err := s.repo.ReplaceZones(ctx, zones); err != nil {
		return fmt.Errorf("replacing risk zones: %w", err)
	}

	s.logger.Info().
		Int("records", len(records)).
		Int("zone_aggregates", len(aggregates)).
		Int("risk_zones", len(zones)).
		Dur("duration", time.Since(start)).
		Msg("risk aggregation rebuilt")

	return nil
}

// RiskByZone computes the standalone risk-by-zone view over the full incident
// store using ZoneWeights. Computed on demand, not persisted.
func (s *Service) RiskByZone(ctx context.Context) (map[string]*ZoneAggregate, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading incident records: %w", err)
	}
	return AggregateByZone(records, ZoneWeights), nil
}

// TopDangerousZones returns the n highest-risk zones from the persisted
// current-year aggregates.
func (s *Service) TopDangerousZones(ctx context.Context, n int) ([]ZoneReport, error) {
	aggregates, err := s.repo.ListZoneAggregates(ctx)
	if err != nil {
		return nil, err
	}
	return TopN(aggregates, n), nil
}

// RiskByHourAndZone returns the persisted hour-by-zone aggregates.
func (s *Service) RiskByHourAndZone(ctx context.Context) (map[string]map[string]*HourZoneAggregate, error) {
	return s.repo.ListHourZones(ctx)
}

// Zones returns the persisted street-level risk zones.
func (s *Service) Zones(ctx context.Context) ([]Zone, error) {
	return s.repo.ListZones(ctx)
}

// PeriodStatistics computes per-year statistics for the last n calendar years,
// loading only the records inside that window.
func (s *Service) PeriodStatistics(ctx context.Context, n int) (*PeriodStats, error) {
	if n <= 0 {
		return nil, ErrInvalidPeriod
	}

	now := time.Now()
	records, err := s.records.ListSinceYear(ctx, now.Year()-n+1)
	if err != nil {
		return nil, fmt.Errorf("loading incident records: %w", err)
	}
	return YearlyStats(records, n, now)
}
