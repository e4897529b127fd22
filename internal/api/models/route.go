package models

// RouteAlert flags one risky street along a route.
type RouteAlert struct {
	Message   string  `json:"message"`
	RiskIndex float64 `json:"riskIndex"`
}

// SafeRouteOption is one evaluated route candidate.
type SafeRouteOption struct {
	Coordinates     []Point      `json:"coordinates"`
	Alerts          []RouteAlert `json:"alerts"`
	RiskyStreets    []string     `json:"riskyStreets"`
	RiskScore       float64      `json:"riskScore"`
	HighRiskCount   int          `json:"highRiskCount"`
	DistanceMeters  int          `json:"distanceMeters,omitempty"`
	DurationSeconds int          `json:"durationSeconds,omitempty"`
}

// SafeRouteResponse returns the safest route and, when available, the next
// best alternative.
type SafeRouteResponse struct {
	GeneratedAt Timestamp        `json:"generatedAt"`
	Primary     *SafeRouteOption `json:"primary"`
	Alternative *SafeRouteOption `json:"alternative,omitempty"`
}
