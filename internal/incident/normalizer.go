package incident

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NormalizerConfig holds configuration for the record normalizer.
type NormalizerConfig struct {
	// StrictDateValidation discards records whose crash date cannot be
	// parsed. The upstream source keeps such records with an unknown date,
	// so this defaults to false.
	StrictDateValidation bool

	// Logger for per-record warnings.
	Logger zerolog.Logger
}

// Normalizer cleans and validates raw records into canonical incident records.
type Normalizer struct {
	strictDates bool
	logger      zerolog.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	return &Normalizer{
		strictDates: cfg.StrictDateValidation,
		logger:      cfg.Logger,
	}
}

// dateLayouts accepted for the crash date field, most specific first.
var dateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Normalize validates and cleans a single raw record.
//
// A record is discarded when it lacks an identifier, lacks both street name
// and borough, or has a missing, non-numeric, or zero coordinate. A latitude
// or longitude of exactly 0 is the upstream sentinel for "no fix", so such
// records are dropped even though (0,0) is a real location.
func (n *Normalizer) Normalize(raw RawRecord) (Record, error) {
	id := strings.TrimSpace(raw[fieldID])
	if id == "" {
		return Record{}, ErrMissingID
	}

	street := strings.TrimSpace(raw[fieldStreet])
	borough := strings.TrimSpace(raw[fieldBorough])
	if street == "" && borough == "" {
		return Record{}, fmt.Errorf("record %s: %w", id, ErrMissingZone)
	}

	lat, err := parseCoordinate(raw[fieldLat], -90, 90)
	if err != nil {
		return Record{}, fmt.Errorf("record %s latitude: %w", id, err)
	}
	lon, err := parseCoordinate(raw[fieldLon], -180, 180)
	if err != nil {
		return Record{}, fmt.Errorf("record %s longitude: %w", id, err)
	}

	// Street name wins over borough when both are present.
	zone := street
	if zone == "" {
		zone = borough
	}

	date, ok := parseDate(raw[fieldDate])
	if !ok && n.strictDates {
		return Record{}, fmt.Errorf("record %s: %w", id, ErrUnparseableDate)
	}

	return Record{
		ID:                 id,
		Date:               date,
		Time:               strings.TrimSpace(raw[fieldTime]),
		ZoneName:           strings.ToUpper(zone),
		Injured:            parseCount(raw[fieldInjured]),
		Killed:             parseCount(raw[fieldKilled]),
		ContributingFactor: strings.TrimSpace(raw[fieldFactor]),
		VehicleType:        strings.TrimSpace(raw[fieldVehicle]),
		Latitude:           lat,
		Longitude:          lon,
	}, nil
}

// NormalizeBatch normalizes every record in the batch, logging and skipping
// records that fail. A single bad record never aborts the batch.
func (n *Normalizer) NormalizeBatch(raws []RawRecord) ([]Record, int) {
	records := make([]Record, 0, len(raws))
	discarded := 0

	for _, raw := range raws {
		rec, err := n.Normalize(raw)
		if err != nil {
			n.logger.Warn().
				Err(err).
				Str("record_id", raw[fieldID]).
				Msg("discarding record")
			discarded++
			continue
		}
		records = append(records, rec)
	}

	return records, discarded
}

// Dedupe removes in-batch duplicates by record ID, keeping the first
// occurrence and preserving input order.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := records[:0:0]

	for _, rec := range records {
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}

	return out
}

func parseCoordinate(s string, lo, hi float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidCoordinate
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidCoordinate
	}
	if v == 0 || v < lo || v > hi {
		return 0, ErrInvalidCoordinate
	}
	return v, nil
}

// parseCount coerces a count field to a non-negative integer, defaulting
// missing or invalid values to 0.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
