package congestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(vehicles int, speedMS float64) LaneSnapshot {
	vehs := make([]Vehicle, vehicles)
	for i := range vehs {
		vehs[i] = Vehicle{SpeedMS: speedMS, Length: 5, MinGap: 2.5}
	}
	return LaneSnapshot{
		LaneID:           "edge1_0",
		LaneLengthMeters: 1000,
		MaxSpeedMS:       13.89, // ~50 km/h
		Vehicles:         vehs,
		Timestamp:        time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestEvaluate(t *testing.T) {
	snap := snapshot(10, 8)

	m := Evaluate(snap)

	assert.Equal(t, "edge1_0", m.LaneID)
	assert.InDelta(t, 28.8, m.MeanSpeedKmh, 0.001)
	assert.InDelta(t, 10.0, m.DensityVehPerKm, 0.001)
	assert.InDelta(t, 288.0, m.TrafficFlow, 0.01)
	assert.Equal(t, ServiceLevelA, m.ServiceLevel)
	assert.Equal(t, "#34A853", m.ColorCode)
	assert.Equal(t, 10, m.VehicleCount)
	assert.InDelta(t, 50.004, m.MaxSpeedKmh, 0.001)
	// 1km at 28.8 km/h
	assert.InDelta(t, 2.083, m.TravelTimeMinutes, 0.01)
	// 10 vehicles * 75m total footprint / 1km
	assert.InDelta(t, 0.75, m.OccupancyRate, 0.001)
}

func TestEvaluate_EmptyLaneFallsBackToSpeedLimit(t *testing.T) {
	snap := snapshot(0, 0)

	m := Evaluate(snap)

	assert.InDelta(t, 50.004, m.MeanSpeedKmh, 0.001)
	assert.Equal(t, 0.0, m.DensityVehPerKm)
	assert.Equal(t, 0.0, m.OccupancyRate)
	assert.Equal(t, ServiceLevelA, m.ServiceLevel)
}

func TestServiceLevelForDensity_Bands(t *testing.T) {
	tests := []struct {
		density float64
		want    ServiceLevel
	}{
		{0, ServiceLevelA},
		{10.99, ServiceLevelA},
		{11, ServiceLevelB},
		{17.99, ServiceLevelB},
		{18, ServiceLevelC},
		{25.99, ServiceLevelC},
		{26, ServiceLevelD},
		{34.99, ServiceLevelD},
		{35, ServiceLevelE},
		{44.99, ServiceLevelE},
		{45, ServiceLevelF},
		{120, ServiceLevelF},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ServiceLevelForDensity(tt.density), "density %v", tt.density)
	}
}

func TestEvaluateBatch(t *testing.T) {
	metrics := EvaluateBatch([]LaneSnapshot{snapshot(1, 10), snapshot(2, 5)})

	require.Len(t, metrics, 2)
	assert.Equal(t, 1, metrics[0].VehicleCount)
	assert.Equal(t, 2, metrics[1].VehicleCount)
}

func TestEvaluate_AlertMessages(t *testing.T) {
	saturated := snapshot(60, 1)

	m := Evaluate(saturated)

	assert.Equal(t, ServiceLevelF, m.ServiceLevel)
	assert.Contains(t, m.AlertMessage, "saturated")
}
