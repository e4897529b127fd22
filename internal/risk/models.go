// Package risk aggregates incident records into per-zone risk scores and
// street-level risk zones.
package risk

// UnspecifiedZone is the grouping key for records without a zone name.
const UnspecifiedZone = "UNSPECIFIED_ZONE"

// Weights is the weighting scheme applied when scoring an aggregate.
// The upstream system uses several schemes at different call sites; they are
// deliberately kept distinct rather than unified.
type Weights struct {
	Accident float64
	Injured  float64
	Killed   float64
}

// Named weighting presets, one per consumer.
var (
	// PeriodWeights scores the crash-per-period statistics and the
	// street-level risk zone index.
	PeriodWeights = Weights{Accident: 1, Injured: 2, Killed: 5}

	// ZoneWeights scores the standalone risk-by-zone query.
	ZoneWeights = Weights{Accident: 1, Injured: 3, Killed: 5}

	// HourWeights scores the hour-by-zone aggregation.
	HourWeights = Weights{Accident: 2, Injured: 1.5, Killed: 3}
)

// Score computes the weighted raw risk score for the given totals.
func (w Weights) Score(accidents, injured, killed int) float64 {
	return float64(accidents)*w.Accident +
		float64(injured)*w.Injured +
		float64(killed)*w.Killed
}

// ZoneAggregate accumulates incident totals for one zone within a batch.
type ZoneAggregate struct {
	ZoneKey      string  `json:"zone_key"`
	Count        int     `json:"count"`
	TotalInjured int     `json:"total_injured"`
	TotalKilled  int     `json:"total_killed"`

	// Latitude/Longitude are the first record's coordinates; (0,0) means
	// the location is unknown.
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Frequency is the zone's share of the batch's accidents, used as
	// heatmap intensity.
	Frequency float64 `json:"frequency"`

	RawRiskScore        float64 `json:"raw_risk_score"`
	NormalizedRiskScore float64 `json:"normalized_risk_score"`
}

// HourZoneAggregate accumulates incident totals for one (hour, zone) pair.
// Its risk score is additive only; no cross-group normalization applies.
type HourZoneAggregate struct {
	Hour           string  `json:"hour"` // "HH:MM"
	ZoneName       string  `json:"zone_name"`
	TotalAccidents int     `json:"total_accidents"`
	TotalInjuries  int     `json:"total_injuries"`
	TotalDeaths    int     `json:"total_deaths"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	RiskScore      float64 `json:"risk_score"`
}

// ZoneReport is the projection of a ZoneAggregate for ranked reporting.
type ZoneReport struct {
	ZoneName       string  `json:"zone_name"`
	Count          int     `json:"count"`
	Injured        int     `json:"injured"`
	Killed         int     `json:"killed"`
	RawRisk        float64 `json:"raw_risk"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	RiskPercentage float64 `json:"risk_percentage"`
}

// Coordinate is a geographic point attached to a risk zone.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Zone is a street-level record of historical incident-derived risk used to
// evaluate routing safety.
type Zone struct {
	RouteName           string       `json:"route_name"`
	AccidentCount       int          `json:"accident_count"`
	TotalInjured        int          `json:"total_injured"`
	TotalKilled         int          `json:"total_killed"`
	GlobalRiskIndex     float64      `json:"global_risk_index"`
	NormalizedRiskIndex float64      `json:"normalized_risk_index"`
	Coordinates         []Coordinate `json:"coordinates"`
}

// YearZoneStats accumulates per-zone totals within one calendar year.
type YearZoneStats struct {
	TotalAccidents int     `json:"total_accidents"`
	TotalInjured   int     `json:"total_injured"`
	TotalKilled    int     `json:"total_killed"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

// YearStats accumulates totals for one calendar year.
type YearStats struct {
	TotalAccidents int                       `json:"total_accidents"`
	TotalInjured   int                       `json:"total_injured"`
	TotalKilled    int                       `json:"total_killed"`
	ByZone         map[string]*YearZoneStats `json:"by_zone"`
}

// PeriodStats summarizes the last N calendar years of incidents.
type PeriodStats struct {
	TotalAccidents int                `json:"total_accidents"`
	TotalInjured   int                `json:"total_injured"`
	TotalKilled    int                `json:"total_killed"`
	ByYear         map[int]*YearStats `json:"by_year"`
}
