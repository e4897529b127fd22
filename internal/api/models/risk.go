package models

// ZoneRisk is one street zone's aggregated risk.
type ZoneRisk struct {
	Zone                string  `json:"zone"`
	Accidents           int     `json:"accidents"`
	Injured             int     `json:"injured"`
	Killed              int     `json:"killed"`
	RiskScore           float64 `json:"riskScore"`
	NormalizedRiskScore float64 `json:"normalizedRiskScore"`
	Frequency           float64 `json:"frequency,omitempty"`
	Lat                 float64 `json:"lat,omitempty"`
	Lon                 float64 `json:"lon,omitempty"`
}

// ZoneRiskResponse lists aggregated risk per zone.
type ZoneRiskResponse struct {
	GeneratedAt Timestamp  `json:"generatedAt"`
	Zones       []ZoneRisk `json:"zones"`
}

// TopZone is one entry of the most dangerous zones ranking.
type TopZone struct {
	Zone           string  `json:"zone"`
	Accidents      int     `json:"accidents"`
	Injured        int     `json:"injured"`
	Killed         int     `json:"killed"`
	RiskPercentage float64 `json:"riskPercentage"`
}

// TopZonesResponse is the most dangerous zones ranking.
type TopZonesResponse struct {
	GeneratedAt Timestamp `json:"generatedAt"`
	Zones       []TopZone `json:"zones"`
}

// HourZoneRisk is the risk score of one zone during one hour bucket.
type HourZoneRisk struct {
	Zone      string  `json:"zone"`
	Accidents int     `json:"accidents"`
	Injured   int     `json:"injured"`
	Killed    int     `json:"killed"`
	RiskScore float64 `json:"riskScore"`
}

// HourRiskResponse groups zone risk by hour of day.
type HourRiskResponse struct {
	GeneratedAt Timestamp                 `json:"generatedAt"`
	Hours       map[string][]HourZoneRisk `json:"hours"`
}

// YearZoneStat is one zone's totals within a year.
type YearZoneStat struct {
	Zone      string `json:"zone"`
	Accidents int    `json:"accidents"`
	Injured   int    `json:"injured"`
	Killed    int    `json:"killed"`
}

// YearStat is one year's incident totals.
type YearStat struct {
	Year      int            `json:"year"`
	Accidents int            `json:"accidents"`
	Injured   int            `json:"injured"`
	Killed    int            `json:"killed"`
	Zones     []YearZoneStat `json:"zones,omitempty"`
}

// PeriodStatsResponse summarizes incidents over the recent period.
type PeriodStatsResponse struct {
	GeneratedAt Timestamp  `json:"generatedAt"`
	Accidents   int        `json:"accidents"`
	Injured     int        `json:"injured"`
	Killed      int        `json:"killed"`
	Years       []YearStat `json:"years"`
}
