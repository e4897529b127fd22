package risk

import (
	"math"
	"sort"
)

// TopN returns up to n zone reports sorted by normalized risk score
// descending, ties broken by zone name for deterministic output. n <= 0 or an
// empty input yields an empty slice.
func TopN(aggregates map[string]*ZoneAggregate, n int) []ZoneReport {
	if n <= 0 || len(aggregates) == 0 {
		return []ZoneReport{}
	}

	keys := make([]string, 0, len(aggregates))
	for key := range aggregates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sort.SliceStable(keys, func(i, j int) bool {
		return aggregates[keys[i]].NormalizedRiskScore > aggregates[keys[j]].NormalizedRiskScore
	})

	if n > len(keys) {
		n = len(keys)
	}

	reports := make([]ZoneReport, 0, n)
	for _, key := range keys[:n] {
		agg := aggregates[key]
		reports = append(reports, ZoneReport{
			ZoneName:       agg.ZoneKey,
			Count:          agg.Count,
			Injured:        agg.TotalInjured,
			Killed:         agg.TotalKilled,
			RawRisk:        agg.RawRiskScore,
			Latitude:       agg.Latitude,
			Longitude:      agg.Longitude,
			RiskPercentage: round2(agg.NormalizedRiskScore),
		})
	}

	return reports
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
