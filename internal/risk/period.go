package risk

import (
	"errors"
	"time"

	"github.com/riskroute/riskroute/internal/incident"
)

// ErrInvalidPeriod indicates a non-positive year count was requested.
var ErrInvalidPeriod = errors.New("period years must be a positive integer")

// FilterCurrentYear keeps the records whose crash date falls in the calendar
// year of now. Records with an unknown date are excluded.
func FilterCurrentYear(records []incident.Record, now time.Time) []incident.Record {
	var filtered []incident.Record
	for _, rec := range records {
		if rec.HasDate() && rec.Date.Year() == now.Year() {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// YearlyStats accumulates per-year and per-zone totals for the last n
// calendar years ending at now. Records with an unknown date are excluded.
func YearlyStats(records []incident.Record, n int, now time.Time) (*PeriodStats, error) {
	if n <= 0 {
		return nil, ErrInvalidPeriod
	}

	startYear := now.Year() - n + 1

	stats := &PeriodStats{ByYear: make(map[int]*YearStats)}

	for _, rec := range records {
		if !rec.HasDate() {
			continue
		}
		year := rec.Date.Year()
		if year < startYear || year > now.Year() {
			continue
		}

		stats.TotalAccidents++
		stats.TotalInjured += rec.Injured
		stats.TotalKilled += rec.Killed

		ys, ok := stats.ByYear[year]
		if !ok {
			ys = &YearStats{ByZone: make(map[string]*YearZoneStats)}
			stats.ByYear[year] = ys
		}
		ys.TotalAccidents++
		ys.TotalInjured += rec.Injured
		ys.TotalKilled += rec.Killed

		zone := rec.ZoneName
		if zone == "" {
			zone = UnspecifiedZone
		}
		zs, ok := ys.ByZone[zone]
		if !ok {
			zs = &YearZoneStats{
				Latitude:  rec.Latitude,
				Longitude: rec.Longitude,
			}
			ys.ByZone[zone] = zs
		}
		zs.TotalAccidents++
		zs.TotalInjured += rec.Injured
		zs.TotalKilled += rec.Killed
	}

	return stats, nil
}
