package risk

import (
	"math"
	"sort"

	"github.com/riskroute/riskroute/internal/incident"
)

// AggregateByZone groups records by zone name and computes raw and normalized
// risk scores under the given weighting scheme. Records without a zone name
// fall into UnspecifiedZone. An empty input yields an empty map.
func AggregateByZone(records []incident.Record, w Weights) map[string]*ZoneAggregate {
	aggregates := make(map[string]*ZoneAggregate)

	for _, rec := range records {
		zone := rec.ZoneName
		if zone == "" {
			zone = UnspecifiedZone
		}

		agg, ok := aggregates[zone]
		if !ok {
			agg = &ZoneAggregate{
				ZoneKey:   zone,
				Latitude:  rec.Latitude,
				Longitude: rec.Longitude,
			}
			aggregates[zone] = agg
		}

		agg.Count++
		agg.TotalInjured += rec.Injured
		agg.TotalKilled += rec.Killed
	}

	total := 0
	for _, agg := range aggregates {
		total += agg.Count
	}

	for _, agg := range aggregates {
		agg.Frequency = float64(agg.Count) / float64(total)
		agg.RawRiskScore = w.Score(agg.Count, agg.TotalInjured, agg.TotalKilled)
	}

	NormalizeScores(aggregates)

	return aggregates
}

// NormalizeScores rescales every aggregate's raw score to [0,100] by min-max
// normalization across the batch. When all raw scores are equal (including
// the single-zone case) the range collapses and every normalized score is 0.
func NormalizeScores(aggregates map[string]*ZoneAggregate) {
	if len(aggregates) == 0 {
		return
	}

	minScore := math.Inf(1)
	maxScore := math.Inf(-1)
	for _, agg := range aggregates {
		minScore = math.Min(minScore, agg.RawRiskScore)
		maxScore = math.Max(maxScore, agg.RawRiskScore)
	}

	scoreRange := maxScore - minScore
	if scoreRange == 0 {
		scoreRange = 1
	}

	for _, agg := range aggregates {
		agg.NormalizedRiskScore = (agg.RawRiskScore - minScore) / scoreRange * 100
	}
}

// AggregateByHourZone groups records by (hour, zone), where hour is the
// leading "HH:MM" of the crash time. Records missing either field are
// silently skipped. Scores are raw additive under HourWeights.
func AggregateByHourZone(records []incident.Record) map[string]map[string]*HourZoneAggregate {
	byHour := make(map[string]map[string]*HourZoneAggregate)

	for _, rec := range records {
		if rec.Time == "" || rec.ZoneName == "" {
			continue
		}

		hour := rec.Time
		if len(hour) > 5 {
			hour = hour[:5]
		}

		zones, ok := byHour[hour]
		if !ok {
			zones = make(map[string]*HourZoneAggregate)
			byHour[hour] = zones
		}

		agg, ok := zones[rec.ZoneName]
		if !ok {
			agg = &HourZoneAggregate{
				Hour:      hour,
				ZoneName:  rec.ZoneName,
				Latitude:  rec.Latitude,
				Longitude: rec.Longitude,
			}
			zones[rec.ZoneName] = agg
		}

		agg.TotalAccidents++
		agg.TotalInjuries += rec.Injured
		agg.TotalDeaths += rec.Killed
	}

	for _, zones := range byHour {
		for _, agg := range zones {
			agg.RiskScore = HourWeights.Score(agg.TotalAccidents, agg.TotalInjuries, agg.TotalDeaths)
		}
	}

	return byHour
}

// BuildZones groups records by street name into routing-time risk zones,
// collecting every record's coordinates and normalizing the global risk
// index to [0,100] across all zones. Zones are returned sorted by global
// risk index descending.
func BuildZones(records []incident.Record, w Weights) []Zone {
	byStreet := make(map[string]*Zone)
	var order []string

	for _, rec := range records {
		if rec.ZoneName == "" {
			continue
		}

		zone, ok := byStreet[rec.ZoneName]
		if !ok {
			zone = &Zone{RouteName: rec.ZoneName}
			byStreet[rec.ZoneName] = zone
			order = append(order, rec.ZoneName)
		}

		zone.AccidentCount++
		zone.TotalInjured += rec.Injured
		zone.TotalKilled += rec.Killed
		zone.Coordinates = append(zone.Coordinates, Coordinate{Lat: rec.Latitude, Lon: rec.Longitude})
	}

	if len(byStreet) == 0 {
		return nil
	}

	minIndex := math.Inf(1)
	maxIndex := math.Inf(-1)
	for _, zone := range byStreet {
		zone.GlobalRiskIndex = w.Score(zone.AccidentCount, zone.TotalInjured, zone.TotalKilled)
		minIndex = math.Min(minIndex, zone.GlobalRiskIndex)
		maxIndex = math.Max(maxIndex, zone.GlobalRiskIndex)
	}

	indexRange := maxIndex - minIndex
	if indexRange == 0 {
		indexRange = 1
	}

	zones := make([]Zone, 0, len(byStreet))
	for _, name := range order {
		zone := byStreet[name]
		zone.NormalizedRiskIndex = (zone.GlobalRiskIndex - minIndex) / indexRange * 100
		zones = append(zones, *zone)
	}

	sort.SliceStable(zones, func(i, j int) bool {
		return zones[i].GlobalRiskIndex > zones[j].GlobalRiskIndex
	})

	return zones
}
