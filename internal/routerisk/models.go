// Package routerisk evaluates candidate route geometries against street-level
// risk zones and selects the safest route among alternatives.
package routerisk

import "errors"

// Sentinel errors for route risk evaluation.
var (
	// ErrNoRoutes indicates no candidate routes were supplied or survived
	// evaluation.
	ErrNoRoutes = errors.New("no candidate routes to evaluate")
	// ErrEmptyGeometry indicates a route geometry without coordinates.
	ErrEmptyGeometry = errors.New("route geometry has no coordinates")
)

// Coordinate is a (lat, lon) point on a route geometry.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Alert flags one risky street found along a route.
type Alert struct {
	Message   string  `json:"message"`
	RiskIndex float64 `json:"risk_index"`
}

// EvaluatedRoute is the transient result of evaluating one route geometry.
type EvaluatedRoute struct {
	Coordinates   []Coordinate `json:"coordinates"`
	Alerts        []Alert      `json:"alerts"`
	RiskyStreets  []string     `json:"risky_streets"`
	RiskScore     float64      `json:"risk_score"`
	HighRiskCount int          `json:"high_risk_count"`

	DistanceMeters  int `json:"distance_meters,omitempty"`
	DurationSeconds int `json:"duration_seconds,omitempty"`
}

// Comparison is the outcome of comparing candidate routes by risk.
// Primary always holds the lowest-risk route; Alternative is the next lowest
// and is nil when only one candidate exists.
type Comparison struct {
	Primary     *EvaluatedRoute `json:"primary"`
	Alternative *EvaluatedRoute `json:"alternative,omitempty"`
}
