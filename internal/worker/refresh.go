package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskroute/riskroute/internal/incident"
)

// ErrRefreshInProgress is returned when a refresh run is requested while a
// previous run is still executing.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Ingester pulls incident records from the upstream source into storage.
type Ingester interface {
	Ingest(ctx context.Context) (*incident.IngestResult, error)

	// Reingest clears the store before ingesting, for a full reload.
	Reingest(ctx context.Context) (*incident.IngestResult, error)
}

// RiskRebuilder recomputes the persisted risk aggregates from stored
// incidents.
type RiskRebuilder interface {
	Rebuild(ctx context.Context) error
}

// RefreshJob runs the incident ingestion and risk rebuild pipeline.
type RefreshJob struct {
	config   RefreshConfig
	logger   zerolog.Logger
	ingester Ingester
	risk     RiskRebuilder

	// running guards against overlapping runs.
	running atomic.Bool

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns       int64
	SuccessfulRuns  int64
	FailedRuns      int64
	SkippedRuns     int64
	RecordsFetched  int64
	RecordsInserted int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config   RefreshConfig
	Logger   zerolog.Logger
	Ingester Ingester
	Risk     RiskRebuilder
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if config.Interval == 0 {
		config = DefaultRefreshConfig()
	}

	return &RefreshJob{
		config:   config,
		logger:   cfg.Logger.With().Str("component", "refresh_job").Logger(),
		ingester: cfg.Ingester,
		risk:     cfg.Risk,
		metrics:  &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one refresh run.
type RefreshResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Full      bool
	Ingest    *incident.IngestResult
	Err       error
}

// Run executes one refresh: ingest new incidents, then rebuild the risk
// aggregates. Only one run executes at a time; concurrent calls return
// ErrRefreshInProgress.
func (j *RefreshJob) Run(ctx context.Context) (*RefreshResult, error) {
	return j.run(ctx, false)
}

// RunFull clears the incident store before ingesting, then rebuilds. Operators
// use it to pick up upstream corrections that an append-only run cannot see.
func (j *RefreshJob) RunFull(ctx context.Context) (*RefreshResult, error) {
	return j.run(ctx, true)
}

func (j *RefreshJob) run(ctx context.Context, full bool) (*RefreshResult, error) {
	if !j.running.CompareAndSwap(false, true) {
		j.recordSkip()
		return nil, ErrRefreshInProgress
	}
	defer j.running.Store(false)

	runCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	startTime := time.Now()
	result := &RefreshResult{StartTime: startTime, Full: full}

	j.logger.Info().Bool("full", full).Msg("starting data refresh run")

	var (
		ingestResult *incident.IngestResult
		err          error
	)
	if full {
		ingestResult, err = j.ingester.Reingest(runCtx)
	} else {
		ingestResult, err = j.ingester.Ingest(runCtx)
	}
	if err != nil {
		result.Err = err
		j.finish(result, startTime)
		j.logger.Error().Err(err).Msg("incident ingestion failed")
		return result, err
	}
	result.Ingest = ingestResult

	if err := j.risk.Rebuild(runCtx); err != nil {
		result.Err = err
		j.finish(result, startTime)
		j.logger.Error().Err(err).Msg("risk rebuild failed")
		return result, err
	}

	j.finish(result, startTime)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("fetched", ingestResult.Fetched).
		Int("inserted", ingestResult.Inserted).
		Int("discarded", ingestResult.Discarded).
		Int("duplicates", ingestResult.Duplicate).
		Msg("data refresh run completed")

	return result, nil
}

// Start runs the refresh job on the configured interval until the context is
// canceled.
func (j *RefreshJob) Start(ctx context.Context) {
	j.logger.Info().
		Dur("interval", j.config.Interval).
		Bool("run_on_start", j.config.RunOnStart).
		Msg("starting refresh scheduler")

	if j.config.RunOnStart {
		if _, err := j.Run(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) {
			j.logger.Warn().Err(err).Msg("initial refresh run failed")
		}
	}

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("refresh scheduler stopped")
			return
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) {
				j.logger.Warn().Err(err).Msg("scheduled refresh run failed")
			}
		}
	}
}

// IsRunning reports whether a refresh run is currently executing.
func (j *RefreshJob) IsRunning() bool {
	return j.running.Load()
}

func (j *RefreshJob) finish(result *RefreshResult, startTime time.Time) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)
}

func (j *RefreshJob) recordSkip() {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()
	j.metrics.SkippedRuns++
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	if result.Err != nil {
		j.metrics.FailedRuns++
	} else {
		j.metrics.SuccessfulRuns++
	}
	if result.Ingest != nil {
		j.metrics.RecordsFetched += int64(result.Ingest.Fetched)
		j.metrics.RecordsInserted += int64(result.Ingest.Inserted)
	}
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		SuccessfulRuns:  j.metrics.SuccessfulRuns,
		FailedRuns:      j.metrics.FailedRuns,
		SkippedRuns:     j.metrics.SkippedRuns,
		RecordsFetched:  j.metrics.RecordsFetched,
		RecordsInserted: j.metrics.RecordsInserted,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"successful_runs":   m.SuccessfulRuns,
		"failed_runs":       m.FailedRuns,
		"skipped_runs":      m.SkippedRuns,
		"records_fetched":   m.RecordsFetched,
		"records_inserted":  m.RecordsInserted,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
