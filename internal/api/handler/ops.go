// Package handler provides HTTP handlers for the RiskRoute API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/riskroute/riskroute/internal/api/models"
	"github.com/riskroute/riskroute/internal/api/response"
	"github.com/riskroute/riskroute/internal/provider/resilience"
)

// Pinger checks connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RefreshStatus exposes the background refresh job's state.
type RefreshStatus interface {
	IsRunning() bool
	MetricsSnapshot() map[string]interface{}
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	db        Pinger
	registry  *resilience.Registry
	refresh   RefreshStatus
}

// NewOpsHandler creates a new OpsHandler. db, registry and refresh may be nil
// when the corresponding subsystem is not wired (e.g. in tests).
func NewOpsHandler(version, buildTime string, db Pinger, registry *resilience.Registry, refresh RefreshStatus) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		db:        db,
		registry:  registry,
		refresh:   refresh,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Fails when the
// database is unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"database": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	dbStatus := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			detail := err.Error()
			dbStatus.Status = models.HealthStatusFail
			dbStatus.Detail = &detail
			status.Status = models.HealthStatusFail
		}
	}
	status.Subsystems = append(status.Subsystems, dbStatus)

	if h.registry != nil {
		for _, ph := range h.registry.GetAllHealth() {
			ps := models.ProviderStatus{
				Provider: ph.Name,
				Status:   models.HealthStatusOK,
			}
			switch {
			case ph.IsUnhealthy():
				ps.Status = models.HealthStatusFail
				if status.Status == models.HealthStatusOK {
					status.Status = models.HealthStatusDegraded
				}
			case ph.IsDegraded():
				ps.Status = models.HealthStatusDegraded
				if status.Status == models.HealthStatusOK {
					status.Status = models.HealthStatusDegraded
				}
			}
			if ph.LastSuccessAt != nil {
				t := models.Timestamp(*ph.LastSuccessAt)
				ps.LastSuccessAt = &t
			}
			if ph.LastFailureAt != nil {
				t := models.Timestamp(*ph.LastFailureAt)
				ps.LastFailureAt = &t
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	if h.refresh != nil {
		snapshot := h.refresh.MetricsSnapshot()
		snapshot["running"] = h.refresh.IsRunning()
		status.Refresh = snapshot
	}

	response.JSON(w, r, http.StatusOK, status)
}
