package handler

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/riskroute/riskroute/internal/api/models"
	"github.com/riskroute/riskroute/internal/api/response"
	"github.com/riskroute/riskroute/internal/risk"
)

// Default query parameters for the risk endpoints.
const (
	// DefaultTopZones is the ranking size when ?limit is absent.
	DefaultTopZones = 10
	// MaxTopZones caps the ranking size.
	MaxTopZones = 100
	// DefaultPeriodYears is the statistics window when ?years is absent.
	DefaultPeriodYears = 3
	// MaxPeriodYears caps the statistics window.
	MaxPeriodYears = 10
)

// RiskReader serves the aggregated incident risk views.
type RiskReader interface {
	RiskByZone(ctx context.Context) (map[string]*risk.ZoneAggregate, error)
	TopDangerousZones(ctx context.Context, n int) ([]risk.ZoneReport, error)
	RiskByHourAndZone(ctx context.Context) (map[string]map[string]*risk.HourZoneAggregate, error)
	PeriodStatistics(ctx context.Context, n int) (*risk.PeriodStats, error)
}

// RiskHandler handles incident risk endpoints.
type RiskHandler struct {
	risk RiskReader
}

// NewRiskHandler creates a new RiskHandler.
func NewRiskHandler(riskReader RiskReader) *RiskHandler {
	return &RiskHandler{risk: riskReader}
}

// ZoneRisk handles GET /v1/risk/zones - aggregated risk per zone.
func (h *RiskHandler) ZoneRisk(w http.ResponseWriter, r *http.Request) {
	aggregates, err := h.risk.RiskByZone(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to compute zone risk")
		return
	}

	resp := models.ZoneRiskResponse{
		GeneratedAt: models.Timestamp(time.Now()),
		Zones:       make([]models.ZoneRisk, 0, len(aggregates)),
	}
	for key, agg := range aggregates {
		resp.Zones = append(resp.Zones, models.ZoneRisk{
			Zone:                key,
			Accidents:           agg.Count,
			Injured:             agg.TotalInjured,
			Killed:              agg.TotalKilled,
			RiskScore:           agg.RawRiskScore,
			NormalizedRiskScore: agg.NormalizedRiskScore,
			Frequency:           agg.Frequency,
			Lat:                 agg.Latitude,
			Lon:                 agg.Longitude,
		})
	}
	sort.Slice(resp.Zones, func(i, j int) bool {
		if resp.Zones[i].NormalizedRiskScore != resp.Zones[j].NormalizedRiskScore {
			return resp.Zones[i].NormalizedRiskScore > resp.Zones[j].NormalizedRiskScore
		}
		return resp.Zones[i].Zone < resp.Zones[j].Zone
	})

	response.JSON(w, r, http.StatusOK, resp)
}

// TopZones handles GET /v1/risk/zones/top - most dangerous zones ranking.
func (h *RiskHandler) TopZones(w http.ResponseWriter, r *http.Request) {
	limit, ok := boundedQueryInt(r, "n", DefaultTopZones, MaxTopZones)
	if !ok {
		response.BadRequest(w, r, "n must be a positive integer", nil)
		return
	}

	reports, err := h.risk.TopDangerousZones(r.Context(), limit)
	if err != nil {
		response.InternalError(w, r, "failed to load zone ranking")
		return
	}

	resp := models.TopZonesResponse{
		GeneratedAt: models.Timestamp(time.Now()),
		Zones:       make([]models.TopZone, 0, len(reports)),
	}
	for _, rep := range reports {
		resp.Zones = append(resp.Zones, models.TopZone{
			Zone:           rep.ZoneName,
			Accidents:      rep.Count,
			Injured:        rep.Injured,
			Killed:         rep.Killed,
			RiskPercentage: rep.RiskPercentage,
		})
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// HourRisk handles GET /v1/risk/hours - zone risk grouped by hour of day.
func (h *RiskHandler) HourRisk(w http.ResponseWriter, r *http.Request) {
	byHour, err := h.risk.RiskByHourAndZone(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to load hourly risk")
		return
	}

	resp := models.HourRiskResponse{
		GeneratedAt: models.Timestamp(time.Now()),
		Hours:       make(map[string][]models.HourZoneRisk, len(byHour)),
	}
	for hour, zones := range byHour {
		entries := make([]models.HourZoneRisk, 0, len(zones))
		for _, agg := range zones {
			entries = append(entries, models.HourZoneRisk{
				Zone:      agg.ZoneName,
				Accidents: agg.TotalAccidents,
				Injured:   agg.TotalInjuries,
				Killed:    agg.TotalDeaths,
				RiskScore: agg.RiskScore,
			})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].RiskScore != entries[j].RiskScore {
				return entries[i].RiskScore > entries[j].RiskScore
			}
			return entries[i].Zone < entries[j].Zone
		})
		resp.Hours[hour] = entries
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// PeriodStats handles GET /v1/stats/period - incident totals for recent years.
func (h *RiskHandler) PeriodStats(w http.ResponseWriter, r *http.Request) {
	h.periodStats(w, r, false)
}

// YearlyStats handles GET /v1/stats/yearly - per-year totals including the
// per-zone breakdown.
func (h *RiskHandler) YearlyStats(w http.ResponseWriter, r *http.Request) {
	h.periodStats(w, r, true)
}

func (h *RiskHandler) periodStats(w http.ResponseWriter, r *http.Request, includeZones bool) {
	years, ok := boundedQueryInt(r, "n", DefaultPeriodYears, MaxPeriodYears)
	if !ok {
		response.BadRequest(w, r, "n must be a positive integer", nil)
		return
	}

	stats, err := h.risk.PeriodStatistics(r.Context(), years)
	if err != nil {
		response.InternalError(w, r, "failed to compute period statistics")
		return
	}

	resp := models.PeriodStatsResponse{
		GeneratedAt: models.Timestamp(time.Now()),
		Accidents:   stats.TotalAccidents,
		Injured:     stats.TotalInjured,
		Killed:      stats.TotalKilled,
		Years:       make([]models.YearStat, 0, len(stats.ByYear)),
	}
	for year, ys := range stats.ByYear {
		entry := models.YearStat{
			Year:      year,
			Accidents: ys.TotalAccidents,
			Injured:   ys.TotalInjured,
			Killed:    ys.TotalKilled,
		}
		if includeZones {
			entry.Zones = make([]models.YearZoneStat, 0, len(ys.ByZone))
			for zone, zs := range ys.ByZone {
				entry.Zones = append(entry.Zones, models.YearZoneStat{
					Zone:      zone,
					Accidents: zs.TotalAccidents,
					Injured:   zs.TotalInjured,
					Killed:    zs.TotalKilled,
				})
			}
			sort.Slice(entry.Zones, func(i, j int) bool {
				if entry.Zones[i].Accidents != entry.Zones[j].Accidents {
					return entry.Zones[i].Accidents > entry.Zones[j].Accidents
				}
				return entry.Zones[i].Zone < entry.Zones[j].Zone
			})
		}
		resp.Years = append(resp.Years, entry)
	}
	sort.Slice(resp.Years, func(i, j int) bool {
		return resp.Years[i].Year > resp.Years[j].Year
	})

	response.JSON(w, r, http.StatusOK, resp)
}

// boundedQueryInt parses a positive integer query parameter with a default
// and an upper bound. Returns false when the value is present but invalid.
func boundedQueryInt(r *http.Request, name string, def, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	if n > max {
		n = max
	}
	return n, true
}
