package osrm

// osrmResponse represents the OSRM route service response.
type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Routes  []osrmRoute `json:"routes"`
	// Waypoints are the snapped input coordinates.
	Waypoints []osrmWaypoint `json:"waypoints,omitempty"`
}

// osrmRoute represents a single route in the OSRM response.
type osrmRoute struct {
	Geometry   string    `json:"geometry"` // Encoded polyline (precision 5)
	Distance   float64   `json:"distance"` // Distance in meters
	Duration   float64   `json:"duration"` // Duration in seconds
	Weight     float64   `json:"weight"`
	WeightName string    `json:"weight_name,omitempty"`
	Legs       []osrmLeg `json:"legs,omitempty"`
}

// osrmLeg represents a route leg between two waypoints.
type osrmLeg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Summary  string  `json:"summary,omitempty"`
}

// osrmWaypoint represents a snapped input coordinate.
type osrmWaypoint struct {
	Name     string    `json:"name,omitempty"`
	Location []float64 `json:"location,omitempty"` // [lon, lat]
	Distance float64   `json:"distance,omitempty"`
}

// OSRM response codes used for error mapping.
const (
	osrmCodeOK           = "Ok"
	osrmCodeNoRoute      = "NoRoute"
	osrmCodeNoSegment    = "NoSegment"
	osrmCodeInvalidInput = "InvalidInput"
	osrmCodeInvalidQuery = "InvalidQuery"
)
