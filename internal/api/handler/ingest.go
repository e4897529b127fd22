package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/riskroute/riskroute/internal/api/models"
	"github.com/riskroute/riskroute/internal/api/response"
	"github.com/riskroute/riskroute/internal/worker"
)

// RefreshRunner triggers one refresh pipeline run.
type RefreshRunner interface {
	Run(ctx context.Context) (*worker.RefreshResult, error)

	// RunFull clears the incident store before ingesting.
	RunFull(ctx context.Context) (*worker.RefreshResult, error)
}

// IngestHandler handles the operator data refresh endpoint.
type IngestHandler struct {
	refresh RefreshRunner
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(refresh RefreshRunner) *IngestHandler {
	return &IngestHandler{refresh: refresh}
}

// TriggerRefresh handles POST /v1/ingest/refresh - run the ingest and
// aggregation pipeline now. With ?full=true the incident store is cleared
// first and reloaded from scratch. Returns 409 when a run is already in
// progress.
func (h *IngestHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	full := false
	if v := r.URL.Query().Get("full"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(w, r, "invalid query parameter", []models.FieldError{
				{Field: "full", Message: "must be a boolean"},
			})
			return
		}
		full = parsed
	}

	run := h.refresh.Run
	if full {
		run = h.refresh.RunFull
	}

	result, err := run(r.Context())
	if err != nil {
		if errors.Is(err, worker.ErrRefreshInProgress) {
			response.Conflict(w, r, "a refresh run is already in progress")
			return
		}
		response.InternalError(w, r, "refresh run failed")
		return
	}

	resp := models.RefreshResponse{
		StartedAt: models.Timestamp(result.StartTime),
		Duration:  result.Duration.String(),
		Full:      result.Full,
	}
	if result.Ingest != nil {
		resp.Fetched = result.Ingest.Fetched
		resp.Discarded = result.Ingest.Discarded
		resp.Duplicate = result.Ingest.Duplicate
		resp.Inserted = result.Ingest.Inserted
	}
	response.JSON(w, r, http.StatusOK, resp)
}
