package routing

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	calls int
	resp  *DirectionsResponse
	err   error
}

func (m *mockProvider) GetDirections(context.Context, DirectionsRequest) (*DirectionsResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func (m *mockProvider) Name() string { return "mock" }

func testResponse() *DirectionsResponse {
	return &DirectionsResponse{
		Routes: []Route{
			{GeometryPolyline: "_p~iF~ps|U", DistanceMeters: 8231, DurationSeconds: 942},
		},
		Provider:  "mock",
		FetchedAt: time.Now(),
	}
}

func testRequest() DirectionsRequest {
	return DirectionsRequest{
		Origin:       Coordinate{Lat: 40.73, Lon: -73.93},
		Destination:  Coordinate{Lat: 40.65, Lon: -73.95},
		Alternatives: true,
	}
}

func newTestService(provider Provider) *Service {
	return NewService(ServiceConfig{
		Provider: provider,
		Logger:   zerolog.New(io.Discard),
	})
}

func TestGetDirections(t *testing.T) {
	provider := &mockProvider{resp: testResponse()}
	svc := newTestService(provider)

	resp, err := svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)

	require.Len(t, resp.Routes, 1)
	assert.Equal(t, 8231, resp.Routes[0].DistanceMeters)
	assert.Equal(t, 1, provider.calls)
}

func TestGetDirections_CacheHit(t *testing.T) {
	provider := &mockProvider{resp: testResponse()}
	svc := newTestService(provider)

	_, err := svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)

	_, err = svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
}

func TestGetDirections_NearbyPointsShareCacheCell(t *testing.T) {
	provider := &mockProvider{resp: testResponse()}
	svc := newTestService(provider)

	req := testRequest()
	_, err := svc.GetDirections(context.Background(), req)
	require.NoError(t, err)

	// ~20m away, same 0.001 degree grid cell
	req.Origin.Lat += 0.0002
	_, err = svc.GetDirections(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
}

func TestGetDirections_DistinctCellsMiss(t *testing.T) {
	provider := &mockProvider{resp: testResponse()}
	svc := newTestService(provider)

	req := testRequest()
	_, err := svc.GetDirections(context.Background(), req)
	require.NoError(t, err)

	req.Origin.Lat += 0.01
	_, err = svc.GetDirections(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, provider.calls)
}

func TestGetDirections_AlternativesKeyedSeparately(t *testing.T) {
	provider := &mockProvider{resp: testResponse()}
	svc := newTestService(provider)

	req := testRequest()
	_, err := svc.GetDirections(context.Background(), req)
	require.NoError(t, err)

	req.Alternatives = false
	_, err = svc.GetDirections(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, provider.calls)
}

func TestGetDirections_StaleIfError(t *testing.T) {
	provider := &mockProvider{resp: testResponse()}
	svc := newTestService(provider)

	_, err := svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)

	// Expire the fresh entry but stay inside the stale-if-error window
	svc.mu.Lock()
	for _, cached := range svc.cache {
		cached.expiresAt = time.Now().Add(-time.Minute)
	}
	svc.mu.Unlock()

	provider.err = ErrProviderUnavailable

	resp, err := svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, resp.Routes, 1)
}

func TestGetDirections_ErrorWithoutCache(t *testing.T) {
	provider := &mockProvider{err: ErrProviderUnavailable}
	svc := newTestService(provider)

	_, err := svc.GetDirections(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestGetDirections_InvalidCoordinates(t *testing.T) {
	provider := &mockProvider{resp: testResponse()}
	svc := newTestService(provider)

	req := testRequest()
	req.Origin.Lat = 91

	_, err := svc.GetDirections(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	assert.Zero(t, provider.calls)
}

func TestInvalidateCache(t *testing.T) {
	provider := &mockProvider{resp: testResponse()}
	svc := newTestService(provider)

	_, err := svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)

	svc.InvalidateCache()

	_, err = svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, provider.calls)
}

func TestCacheStats(t *testing.T) {
	provider := &mockProvider{resp: testResponse()}
	svc := newTestService(provider)

	_, err := svc.GetDirections(context.Background(), testRequest())
	require.NoError(t, err)

	stats := svc.CacheStats()
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 1, stats.FreshEntries)
	assert.Equal(t, "mock", stats.Provider)
}
