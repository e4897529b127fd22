package incident

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the incident service.
type ServiceConfig struct {
	// Source supplies raw records.
	Source Source

	// Repository persists normalized records.
	Repository Repository

	// Normalizer cleans raw records. Required.
	Normalizer *Normalizer

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service ingests raw collision records into the incident store.
type Service struct {
	source     Source
	repo       Repository
	normalizer *Normalizer
	logger     zerolog.Logger
}

// NewService creates a new incident service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		source:     cfg.Source,
		repo:       cfg.Repository,
		normalizer: cfg.Normalizer,
		logger:     cfg.Logger,
	}
}

// Ingest fetches a fresh batch from the source, normalizes and deduplicates
// it, and appends the records whose IDs are not yet persisted.
func (s *Service) Ingest(ctx context.Context) (*IngestResult, error) {
	start := time.Now()

	raws, err := s.source.FetchRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching records from %s: %w", s.source.Name(), err)
	}

	records, discarded := s.normalizer.NormalizeBatch(raws)
	records = Dedupe(records)

	existing, err := s.repo.ExistingIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading existing record ids: %w", err)
	}

	fresh := make([]Record, 0, len(records))
	for _, rec := range records {
		if _, ok := existing[rec.ID]; ok {
			continue
		}
		fresh = append(fresh, rec)
	}

	if err := s.repo.InsertBatch(ctx, fresh); err != nil {
		return nil, fmt.Errorf("inserting records: %w", err)
	}

	result := &IngestResult{
		Fetched:   len(raws),
		Discarded: discarded,
		Duplicate: len(records) - len(fresh),
		Inserted:  len(fresh),
		StartedAt: start,
		Duration:  time.Since(start),
	}

	s.logger.Info().
		Str("source", s.source.Name()).
		Int("fetched", result.Fetched).
		Int("discarded", result.Discarded).
		Int("duplicate", result.Duplicate).
		Int("inserted", result.Inserted).
		Dur("duration", result.Duration).
		Msg("ingest completed")

	return result, nil
}

// Reingest clears the incident store and runs a full ingest. Used to pick up
// upstream corrections and deletions that an append-only ingest cannot see.
func (s *Service) Reingest(ctx context.Context) (*IngestResult, error) {
	s.logger.Warn().Str("source", s.source.Name()).Msg("clearing incident store for full reload")

	if err := s.repo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("clearing incident store: %w", err)
	}
	return s.Ingest(ctx)
}

// List returns all persisted incident records.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.repo.List(ctx)
}

// ListSinceYear returns persisted records from the given calendar year onward.
func (s *Service) ListSinceYear(ctx context.Context, year int) ([]Record, error) {
	return s.repo.ListSinceYear(ctx, year)
}
