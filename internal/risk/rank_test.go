package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopN(t *testing.T) {
	aggregates := map[string]*ZoneAggregate{
		"ATLANTIC AVENUE": {ZoneKey: "ATLANTIC AVENUE", Count: 10, NormalizedRiskScore: 100, RawRiskScore: 20},
		"BEDFORD AVENUE":  {ZoneKey: "BEDFORD AVENUE", Count: 5, NormalizedRiskScore: 40.555, RawRiskScore: 8},
		"CARROLL STREET":  {ZoneKey: "CARROLL STREET", Count: 2, NormalizedRiskScore: 0, RawRiskScore: 2},
	}

	reports := TopN(aggregates, 2)

	require.Len(t, reports, 2)
	assert.Equal(t, "ATLANTIC AVENUE", reports[0].ZoneName)
	assert.Equal(t, "BEDFORD AVENUE", reports[1].ZoneName)
	// Percentage rounded to two decimals
	assert.Equal(t, 40.56, reports[1].RiskPercentage)
}

func TestTopN_TiesBreakByName(t *testing.T) {
	aggregates := map[string]*ZoneAggregate{
		"B STREET": {ZoneKey: "B STREET", NormalizedRiskScore: 50},
		"A STREET": {ZoneKey: "A STREET", NormalizedRiskScore: 50},
	}

	reports := TopN(aggregates, 2)

	require.Len(t, reports, 2)
	assert.Equal(t, "A STREET", reports[0].ZoneName)
	assert.Equal(t, "B STREET", reports[1].ZoneName)
}

func TestTopN_LargerThanInput(t *testing.T) {
	aggregates := map[string]*ZoneAggregate{
		"A STREET": {ZoneKey: "A STREET"},
	}

	reports := TopN(aggregates, 10)
	assert.Len(t, reports, 1)
}

func TestTopN_InvalidN(t *testing.T) {
	assert.Empty(t, TopN(map[string]*ZoneAggregate{"A": {}}, 0))
	assert.Empty(t, TopN(map[string]*ZoneAggregate{"A": {}}, -1))
	assert.Empty(t, TopN(nil, 5))
}
