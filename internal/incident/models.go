// Package incident ingests raw collision records and normalizes them into
// canonical incident records for risk aggregation.
package incident

import (
	"errors"
	"time"
)

// Sentinel errors for record normalization. A normalization error marks a
// single record as discarded; it never aborts the surrounding batch.
var (
	// ErrMissingID indicates the record has no unique identifier.
	ErrMissingID = errors.New("record is missing a unique identifier")
	// ErrMissingZone indicates the record has neither a street name nor a borough.
	ErrMissingZone = errors.New("record is missing both street name and borough")
	// ErrInvalidCoordinate indicates a missing, non-numeric, or zero coordinate.
	ErrInvalidCoordinate = errors.New("record has an invalid coordinate")
	// ErrUnparseableDate indicates the crash date could not be parsed.
	// Only surfaced when strict date validation is enabled.
	ErrUnparseableDate = errors.New("record has an unparseable crash date")
	// ErrRecordNotFound indicates the requested record does not exist.
	ErrRecordNotFound = errors.New("incident record not found")
)

// RawRecord is an untyped record as delivered by the open-data source.
// Field names follow the upstream dataset; values are uninterpreted strings.
type RawRecord map[string]string

// Raw field keys used by the NYC collisions dataset.
const (
	fieldID       = "collision_id"
	fieldDate     = "crash_date"
	fieldTime     = "crash_time"
	fieldStreet   = "on_street_name"
	fieldBorough  = "borough"
	fieldLat      = "latitude"
	fieldLon      = "longitude"
	fieldInjured  = "number_of_persons_injured"
	fieldKilled   = "number_of_persons_killed"
	fieldFactor   = "contributing_factor_vehicle_1"
	fieldVehicle  = "vehicle_type_code1"
)

// Record is a canonical incident record. Immutable once normalized.
type Record struct {
	ID                 string    `json:"id"`
	Date               time.Time `json:"date"` // zero time = unknown date
	Time               string    `json:"time"` // "HH:MM" or "HH:MM:SS"
	ZoneName           string    `json:"zone_name"`
	Injured            int       `json:"injured"`
	Killed             int       `json:"killed"`
	ContributingFactor string    `json:"contributing_factor,omitempty"`
	VehicleType        string    `json:"vehicle_type,omitempty"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
}

// HasDate reports whether the record carries a usable crash date.
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Fetched   int
	Discarded int
	Duplicate int
	Inserted  int
	StartedAt time.Time
	Duration  time.Duration
}
