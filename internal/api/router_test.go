package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskroute/riskroute/internal/api"
	"github.com/riskroute/riskroute/internal/api/models"
	"github.com/riskroute/riskroute/internal/auth"
	"github.com/riskroute/riskroute/internal/congestion"
	"github.com/riskroute/riskroute/internal/incident"
	"github.com/riskroute/riskroute/internal/risk"
	"github.com/riskroute/riskroute/internal/routerisk"
	"github.com/riskroute/riskroute/internal/routing"
	"github.com/riskroute/riskroute/internal/worker"
)

// testJWTService creates a JWT service for generating test tokens.
func testJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.riskroute.nyc",
		Audience:   "riskroute-api",
	})
}

// generateTestToken generates a valid operator token.
func generateTestToken(t *testing.T) string {
	t.Helper()
	token, _, err := testJWTService().GenerateAccessToken("ops@riskroute.nyc", auth.RoleOperator)
	require.NoError(t, err)
	return token
}

// fakeRiskReader serves canned aggregation outputs.
type fakeRiskReader struct{}

func (f *fakeRiskReader) RiskByZone(context.Context) (map[string]*risk.ZoneAggregate, error) {
	return map[string]*risk.ZoneAggregate{
		"BROOKLYN": {
			ZoneKey:             "BROOKLYN",
			Count:               10,
			TotalInjured:        4,
			TotalKilled:         1,
			RawRiskScore:        27,
			NormalizedRiskScore: 9.5,
			Frequency:           100,
		},
	}, nil
}

func (f *fakeRiskReader) TopDangerousZones(_ context.Context, n int) ([]risk.ZoneReport, error) {
	reports := []risk.ZoneReport{
		{ZoneName: "BROOKLYN", Count: 10, Injured: 4, Killed: 1, RiskPercentage: 62.5},
		{ZoneName: "QUEENS", Count: 6, Injured: 2, Killed: 0, RiskPercentage: 37.5},
	}
	if n < len(reports) {
		reports = reports[:n]
	}
	return reports, nil
}

func (f *fakeRiskReader) RiskByHourAndZone(context.Context) (map[string]map[string]*risk.HourZoneAggregate, error) {
	return map[string]map[string]*risk.HourZoneAggregate{
		"08:00": {
			"BROOKLYN": {Hour: "08:00", ZoneName: "BROOKLYN", TotalAccidents: 3, RiskScore: 7.5},
		},
	}, nil
}

func (f *fakeRiskReader) PeriodStatistics(_ context.Context, n int) (*risk.PeriodStats, error) {
	return &risk.PeriodStats{
		TotalAccidents: 16,
		TotalInjured:   6,
		TotalKilled:    1,
		ByYear: map[int]*risk.YearStats{
			2026: {
				TotalAccidents: 16,
				TotalInjured:   6,
				TotalKilled:    1,
				ByZone: map[string]*risk.YearZoneStats{
					"BROOKLYN": {TotalAccidents: 10, TotalInjured: 4, TotalKilled: 1},
				},
			},
		},
	}, nil
}

// fakeCongestionService echoes classifications for submitted lanes.
type fakeCongestionService struct{}

func (f *fakeCongestionService) IngestSnapshots(_ context.Context, snaps []congestion.LaneSnapshot) ([]congestion.Classification, error) {
	out := make([]congestion.Classification, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, congestion.Classification{
			LaneID: s.LaneID,
			Level:  congestion.LevelGreen,
			Color:  "#2ECC71",
		})
	}
	return out, nil
}

func (f *fakeCongestionService) LaneMetrics(context.Context) ([]congestion.LaneMetrics, error) {
	return []congestion.LaneMetrics{
		{LaneID: "edge1_0", MeanSpeedKmh: 32, ServiceLevel: congestion.ServiceLevelB},
	}, nil
}

func (f *fakeCongestionService) Alerts(_ context.Context, minLevel congestion.ServiceLevel) ([]congestion.LaneMetrics, error) {
	metrics := []congestion.LaneMetrics{
		{LaneID: "edge2_0", ServiceLevel: congestion.ServiceLevelE, AlertMessage: "Heavy congestion"},
	}
	var out []congestion.LaneMetrics
	for _, m := range metrics {
		if m.ServiceLevel >= minLevel {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeSafeRouter returns a fixed two-route comparison.
type fakeSafeRouter struct {
	err error
}

func (f *fakeSafeRouter) SafeRoute(_ context.Context, origin, destination routing.Coordinate) (*routerisk.Comparison, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &routerisk.Comparison{
		Primary: &routerisk.EvaluatedRoute{
			Coordinates: []routerisk.Coordinate{{Lat: origin.Lat, Lon: origin.Lon}, {Lat: destination.Lat, Lon: destination.Lon}},
			RiskScore:   0,
		},
		Alternative: &routerisk.EvaluatedRoute{
			Coordinates:   []routerisk.Coordinate{{Lat: origin.Lat, Lon: origin.Lon}, {Lat: destination.Lat, Lon: destination.Lon}},
			RiskScore:     4.2,
			HighRiskCount: 1,
			RiskyStreets:  []string{"ATLANTIC AVENUE"},
		},
	}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWith(t, &fakeSafeRouter{})
}

// stubIngester returns a fixed ingest result.
type stubIngester struct{}

func (stubIngester) Ingest(context.Context) (*incident.IngestResult, error) {
	return &incident.IngestResult{
		Fetched:   25,
		Discarded: 3,
		Duplicate: 2,
		Inserted:  20,
		StartedAt: time.Now(),
	}, nil
}

func (stubIngester) Reingest(context.Context) (*incident.IngestResult, error) {
	return &incident.IngestResult{
		Fetched:   150,
		Inserted:  150,
		StartedAt: time.Now(),
	}, nil
}

// stubRebuilder always succeeds.
type stubRebuilder struct{}

func (stubRebuilder) Rebuild(context.Context) error { return nil }

func newTestRouterWith(t *testing.T, routes *fakeSafeRouter) http.Handler {
	t.Helper()
	logger := zerolog.New(io.Discard)
	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger:   logger,
		Ingester: stubIngester{},
		Risk:     stubRebuilder{},
	})
	return api.NewRouter(api.RouterConfig{
		Version:           "test",
		BuildTime:         "2026-01-01T00:00:00Z",
		Logger:            logger,
		JWTService:        testJWTService(),
		RiskService:       &fakeRiskReader{},
		CongestionService: &fakeCongestionService{},
		RouteService:      routes,
		RefreshJob:        refreshJob,
	})
}

// addAuthHeader adds a valid Bearer token to the request.
func addAuthHeader(t *testing.T, req *http.Request) {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t))
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_RootProbes(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health", "/ready", "/version"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_SystemStatus_RequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_SystemStatus(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	err := json.Unmarshal(w.Body.Bytes(), &status)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, status.Status)
	assert.NotEmpty(t, status.Subsystems)
	assert.NotNil(t, status.Refresh)
}

func TestRouter_ZoneRisk(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/risk/zones", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ZoneRiskResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	require.Len(t, resp.Zones, 1)
	assert.Equal(t, "BROOKLYN", resp.Zones[0].Zone)
	assert.Equal(t, 10, resp.Zones[0].Accidents)
}

func TestRouter_TopZones(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/risk/zones/top?n=1", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.TopZonesResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	require.Len(t, resp.Zones, 1)
	assert.Equal(t, "BROOKLYN", resp.Zones[0].Zone)
}

func TestRouter_TopZones_InvalidN(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/risk/zones/top?n=abc", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_HourRisk(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/risk/hours", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.HourRiskResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	require.Contains(t, resp.Hours, "08:00")
	assert.Equal(t, "BROOKLYN", resp.Hours["08:00"][0].Zone)
}

func TestRouter_PeriodStats(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats/period", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.PeriodStatsResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, 16, resp.Accidents)
	require.Len(t, resp.Years, 1)
	assert.Equal(t, 2026, resp.Years[0].Year)
	assert.Empty(t, resp.Years[0].Zones)
}

func TestRouter_YearlyStats_IncludesZones(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats/yearly", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.PeriodStatsResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	require.Len(t, resp.Years, 1)
	require.Len(t, resp.Years[0].Zones, 1)
	assert.Equal(t, "BROOKLYN", resp.Years[0].Zones[0].Zone)
}

func TestRouter_IngestSnapshots(t *testing.T) {
	router := newTestRouter(t)

	input := models.SnapshotBatchRequest{
		Lanes: []models.LaneSnapshotRequest{
			{
				LaneID:     "edge1_0",
				LaneLength: 120,
				MaxSpeed:   13.89,
				Vehicles: []models.SnapshotVehicle{
					{Speed: 8.5, Length: 5, MinGap: 2.5},
				},
			},
		},
	}
	body, _ := json.Marshal(input)

	req := httptest.NewRequest(http.MethodPost, "/v1/congestion/snapshots", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.SnapshotBatchResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	require.Len(t, resp.Lanes, 1)
	assert.Equal(t, "edge1_0", resp.Lanes[0].LaneID)
	assert.Equal(t, "green", resp.Lanes[0].Level)
}

func TestRouter_IngestSnapshots_EmptyBatch(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(models.SnapshotBatchRequest{})

	req := httptest.NewRequest(http.MethodPost, "/v1/congestion/snapshots", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_LaneMetrics(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/congestion/lanes", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.LaneMetricsResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	require.Len(t, resp.Lanes, 1)
	assert.Equal(t, "edge1_0", resp.Lanes[0].LaneID)
	assert.Equal(t, "B", resp.Lanes[0].ServiceLevel)
}

func TestRouter_CongestionAlerts(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/congestion/alerts", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.LaneMetricsResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	require.Len(t, resp.Lanes, 1)
	assert.Equal(t, "edge2_0", resp.Lanes[0].LaneID)
}

func TestRouter_CongestionAlerts_InvalidLevel(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/congestion/alerts?min=Z", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_SafeRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/routes/safe?from=40.73,-73.93&to=40.65,-73.95", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.SafeRouteResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	require.NotNil(t, resp.Primary)
	require.NotNil(t, resp.Alternative)
	assert.Equal(t, 0.0, resp.Primary.RiskScore)
	assert.Equal(t, 4.2, resp.Alternative.RiskScore)
	assert.Equal(t, []string{"ATLANTIC AVENUE"}, resp.Alternative.RiskyStreets)
}

func TestRouter_SafeRoute_MissingParams(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/routes/safe?from=40.73,-73.93", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)

	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_SafeRoute_NoRouteFound(t *testing.T) {
	router := newTestRouterWith(t, &fakeSafeRouter{err: routing.ErrNoRouteFound})

	req := httptest.NewRequest(http.MethodGet, "/v1/routes/safe?from=40.73,-73.93&to=40.65,-73.95", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_TriggerRefresh_RequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/refresh", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_TriggerRefresh(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/refresh", http.NoBody)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RefreshResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, 25, resp.Fetched)
	assert.Equal(t, 20, resp.Inserted)
	assert.False(t, resp.Full)
}

func TestRouter_TriggerRefresh_FullReload(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/refresh?full=true", http.NoBody)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RefreshResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.True(t, resp.Full)
	assert.Equal(t, 150, resp.Fetched)
	assert.Equal(t, 150, resp.Inserted)
}

func TestRouter_TriggerRefresh_InvalidFullFlag(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/refresh?full=yes-please", http.NoBody)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")
}

func TestRouter_RequestID_Generated(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
