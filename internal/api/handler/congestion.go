package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/riskroute/riskroute/internal/api/models"
	"github.com/riskroute/riskroute/internal/api/response"
	"github.com/riskroute/riskroute/internal/congestion"
)

// DefaultAlertLevel is the minimum service level reported by the alerts
// endpoint when ?min is absent.
const DefaultAlertLevel = congestion.ServiceLevelC

// CongestionService evaluates lane snapshots and serves lane state.
type CongestionService interface {
	IngestSnapshots(ctx context.Context, snaps []congestion.LaneSnapshot) ([]congestion.Classification, error)
	LaneMetrics(ctx context.Context) ([]congestion.LaneMetrics, error)
	Alerts(ctx context.Context, minLevel congestion.ServiceLevel) ([]congestion.LaneMetrics, error)
}

// CongestionHandler handles lane congestion endpoints.
type CongestionHandler struct {
	congestion CongestionService
}

// NewCongestionHandler creates a new CongestionHandler.
func NewCongestionHandler(svc CongestionService) *CongestionHandler {
	return &CongestionHandler{congestion: svc}
}

// IngestSnapshots handles POST /v1/congestion/snapshots - evaluate one
// simulation tick's lane snapshots.
func (h *CongestionHandler) IngestSnapshots(w http.ResponseWriter, r *http.Request) {
	var input models.SnapshotBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if len(input.Lanes) == 0 {
		response.BadRequest(w, r, "at least one lane snapshot is required", []models.FieldError{
			{Field: "lanes", Message: "must not be empty"},
		})
		return
	}
	for _, lane := range input.Lanes {
		if lane.LaneID == "" {
			response.BadRequest(w, r, "lane snapshot is missing its lane id", []models.FieldError{
				{Field: "lanes", Message: "laneId is required", Code: "required"},
			})
			return
		}
	}

	now := time.Now()
	snaps := make([]congestion.LaneSnapshot, 0, len(input.Lanes))
	for _, lane := range input.Lanes {
		snaps = append(snaps, toLaneSnapshot(lane, now))
	}

	classifications, err := h.congestion.IngestSnapshots(r.Context(), snaps)
	if err != nil {
		response.InternalError(w, r, "failed to evaluate lane snapshots")
		return
	}

	resp := models.SnapshotBatchResponse{
		GeneratedAt: models.Timestamp(now),
		Lanes:       make([]models.LaneClassification, 0, len(classifications)),
	}
	for _, c := range classifications {
		resp.Lanes = append(resp.Lanes, models.LaneClassification{
			LaneID: c.LaneID,
			Level:  string(c.Level),
			Color:  c.Color,
		})
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// LaneMetrics handles GET /v1/congestion/lanes - latest evaluation per lane.
func (h *CongestionHandler) LaneMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.congestion.LaneMetrics(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to load lane metrics")
		return
	}
	response.JSON(w, r, http.StatusOK, toLaneMetricsResponse(metrics))
}

// Alerts handles GET /v1/congestion/alerts?min= - lanes at or above the given
// service level.
func (h *CongestionHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	minLevel := DefaultAlertLevel
	if raw := r.URL.Query().Get("min"); raw != "" {
		level := congestion.ServiceLevel(raw)
		switch level {
		case congestion.ServiceLevelA, congestion.ServiceLevelB, congestion.ServiceLevelC,
			congestion.ServiceLevelD, congestion.ServiceLevelE, congestion.ServiceLevelF:
			minLevel = level
		default:
			response.BadRequest(w, r, "min must be a service level A through F", nil)
			return
		}
	}

	alerts, err := h.congestion.Alerts(r.Context(), minLevel)
	if err != nil {
		response.InternalError(w, r, "failed to load congestion alerts")
		return
	}
	response.JSON(w, r, http.StatusOK, toLaneMetricsResponse(alerts))
}

func toLaneSnapshot(lane models.LaneSnapshotRequest, ts time.Time) congestion.LaneSnapshot {
	snap := congestion.LaneSnapshot{
		LaneID:           lane.LaneID,
		LaneLengthMeters: lane.LaneLength,
		MaxSpeedMS:       lane.MaxSpeed,
		HaltingCount:     lane.Halting,
		Timestamp:        ts,
		Vehicles:         make([]congestion.Vehicle, 0, len(lane.Vehicles)),
	}
	for _, v := range lane.Vehicles {
		snap.Vehicles = append(snap.Vehicles, congestion.Vehicle{
			SpeedMS: v.Speed,
			Length:  v.Length,
			MinGap:  v.MinGap,
		})
	}
	for _, p := range lane.Shape {
		if len(p) != 2 {
			continue
		}
		snap.Shape = append(snap.Shape, congestion.Point{Lon: p[0], Lat: p[1]})
	}
	return snap
}

func toLaneMetricsResponse(metrics []congestion.LaneMetrics) models.LaneMetricsResponse {
	resp := models.LaneMetricsResponse{
		GeneratedAt: models.Timestamp(time.Now()),
		Lanes:       make([]models.LaneMetrics, 0, len(metrics)),
	}
	for _, m := range metrics {
		lane := models.LaneMetrics{
			LaneID:        m.LaneID,
			MeanSpeed:     m.MeanSpeedKmh,
			Density:       m.DensityVehPerKm,
			TrafficFlow:   m.TrafficFlow,
			TravelTime:    m.TravelTimeMinutes,
			OccupancyRate: m.OccupancyRate,
			ServiceLevel:  string(m.ServiceLevel),
			Message:       m.AlertMessage,
			Color:         m.ColorCode,
			VehicleCount:  m.VehicleCount,
			Halting:       m.HaltingCount,
			MaxSpeed:      m.MaxSpeedKmh,
		}
		for _, p := range m.Shape {
			lane.Shape = append(lane.Shape, []float64{p.Lon, p.Lat})
		}
		resp.Lanes = append(resp.Lanes, lane)
	}
	return resp
}
