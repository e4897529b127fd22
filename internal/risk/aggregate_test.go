package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskroute/riskroute/internal/incident"
)

func record(zone string, injured, killed int) incident.Record {
	return incident.Record{
		ID:       zone + "-rec",
		Date:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Time:     "08:15",
		ZoneName: zone,
		Injured:  injured,
		Killed:   killed,
		Latitude: 40.7, Longitude: -73.9,
	}
}

func TestAggregateByZone(t *testing.T) {
	records := []incident.Record{
		record("ATLANTIC AVENUE", 2, 0),
		record("ATLANTIC AVENUE", 1, 1),
		record("BEDFORD AVENUE", 0, 0),
		record("BEDFORD AVENUE", 0, 0),
	}

	aggregates := AggregateByZone(records, PeriodWeights)

	require.Len(t, aggregates, 2)

	atlantic := aggregates["ATLANTIC AVENUE"]
	require.NotNil(t, atlantic)
	assert.Equal(t, 2, atlantic.Count)
	assert.Equal(t, 3, atlantic.TotalInjured)
	assert.Equal(t, 1, atlantic.TotalKilled)
	// 2*1 + 3*2 + 1*5
	assert.Equal(t, 13.0, atlantic.RawRiskScore)
	assert.Equal(t, 0.5, atlantic.Frequency)

	bedford := aggregates["BEDFORD AVENUE"]
	require.NotNil(t, bedford)
	assert.Equal(t, 2.0, bedford.RawRiskScore)

	// Min-max normalization across the batch
	assert.Equal(t, 100.0, atlantic.NormalizedRiskScore)
	assert.Equal(t, 0.0, bedford.NormalizedRiskScore)
}

func TestAggregateByZone_UnspecifiedZone(t *testing.T) {
	records := []incident.Record{record("", 1, 0)}

	aggregates := AggregateByZone(records, ZoneWeights)

	require.Len(t, aggregates, 1)
	assert.Contains(t, aggregates, UnspecifiedZone)
}

func TestAggregateByZone_Empty(t *testing.T) {
	aggregates := AggregateByZone(nil, ZoneWeights)
	assert.Empty(t, aggregates)
}

func TestNormalizeScores_EqualScoresCollapse(t *testing.T) {
	aggregates := map[string]*ZoneAggregate{
		"A": {ZoneKey: "A", RawRiskScore: 7},
		"B": {ZoneKey: "B", RawRiskScore: 7},
	}

	NormalizeScores(aggregates)

	assert.Equal(t, 0.0, aggregates["A"].NormalizedRiskScore)
	assert.Equal(t, 0.0, aggregates["B"].NormalizedRiskScore)
}

func TestAggregateByHourZone(t *testing.T) {
	records := []incident.Record{
		{ZoneName: "ATLANTIC AVENUE", Time: "08:15:30", Injured: 2},
		{ZoneName: "ATLANTIC AVENUE", Time: "08:45", Killed: 1},
		{ZoneName: "BEDFORD AVENUE", Time: "17:05"},
		{ZoneName: "NO TIME"},
		{Time: "09:00"},
	}

	byHour := AggregateByHourZone(records)

	require.Len(t, byHour, 3)

	require.Contains(t, byHour, "08:15")
	require.Contains(t, byHour, "08:45")
	atlantic := byHour["08:15"]["ATLANTIC AVENUE"]
	require.NotNil(t, atlantic)
	assert.Equal(t, 1, atlantic.TotalAccidents)
	assert.Equal(t, 2, atlantic.TotalInjuries)
	// 1*2 + 2*1.5 + 0*3
	assert.Equal(t, 5.0, atlantic.RiskScore)
}

func TestBuildZones(t *testing.T) {
	records := []incident.Record{
		record("ATLANTIC AVENUE", 2, 1),
		record("ATLANTIC AVENUE", 0, 0),
		record("BEDFORD AVENUE", 0, 0),
		{ID: "no-zone", Latitude: 40.7, Longitude: -73.9},
	}

	zones := BuildZones(records, PeriodWeights)

	require.Len(t, zones, 2)

	// Sorted by global risk index descending
	assert.Equal(t, "ATLANTIC AVENUE", zones[0].RouteName)
	assert.Equal(t, 2, zones[0].AccidentCount)
	assert.Len(t, zones[0].Coordinates, 2)
	// 2*1 + 2*2 + 1*5
	assert.Equal(t, 11.0, zones[0].GlobalRiskIndex)
	assert.Equal(t, 100.0, zones[0].NormalizedRiskIndex)

	assert.Equal(t, "BEDFORD AVENUE", zones[1].RouteName)
	assert.Equal(t, 0.0, zones[1].NormalizedRiskIndex)
}

func TestBuildZones_NoNamedStreets(t *testing.T) {
	zones := BuildZones([]incident.Record{{ID: "x"}}, PeriodWeights)
	assert.Nil(t, zones)
}

func TestBuildZones_SingleZoneNormalizesToZero(t *testing.T) {
	zones := BuildZones([]incident.Record{record("ATLANTIC AVENUE", 1, 0)}, PeriodWeights)

	require.Len(t, zones, 1)
	assert.Equal(t, 0.0, zones[0].NormalizedRiskIndex)
}

func TestWeightsScore(t *testing.T) {
	assert.Equal(t, 13.0, PeriodWeights.Score(2, 3, 1))
	assert.Equal(t, 16.0, ZoneWeights.Score(2, 3, 1))
	assert.Equal(t, 11.5, HourWeights.Score(2, 3, 1))
}
