// Package congestion evaluates simulated lane snapshots into traffic metrics
// and ordinal congestion classifications.
package congestion

import "time"

// Default substitutions for snapshots missing lane metadata.
const (
	// DefaultLaneLengthMeters is assumed when a snapshot omits lane length.
	DefaultLaneLengthMeters = 100
	// DefaultMaxSpeedKmh is assumed when a snapshot omits the speed limit.
	DefaultMaxSpeedKmh = 50
)

// Vehicle is one vehicle present on a lane at snapshot time.
type Vehicle struct {
	// SpeedMS is the vehicle speed in meters per second.
	SpeedMS float64 `json:"speed"`
	// Length is the vehicle length in meters.
	Length float64 `json:"length"`
	// MinGap is the minimum headway gap in meters.
	MinGap float64 `json:"min_gap"`
}

// Point is a lane shape vertex in (lon, lat) order as produced by the
// simulator's network export.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// LaneSnapshot is one lane's state at a simulation tick.
type LaneSnapshot struct {
	LaneID           string    `json:"lane_id"`
	LaneLengthMeters float64   `json:"lane_length"`
	// MaxSpeedMS is the lane speed limit in meters per second.
	MaxSpeedMS   float64   `json:"max_speed"`
	Vehicles     []Vehicle `json:"vehicles"`
	HaltingCount int       `json:"halting_number"`
	Timestamp    time.Time `json:"timestamp"`
	Shape        []Point   `json:"shape"`
}

// ServiceLevel is the ordinal traffic-density classification, coarsest at A
// (free flow) through F (saturated). Derived purely from vehicle density.
type ServiceLevel string

// Service levels in increasing severity.
const (
	ServiceLevelA ServiceLevel = "A"
	ServiceLevelB ServiceLevel = "B"
	ServiceLevelC ServiceLevel = "C"
	ServiceLevelD ServiceLevel = "D"
	ServiceLevelE ServiceLevel = "E"
	ServiceLevelF ServiceLevel = "F"
)

// Level is the coarser real-time congestion classification used by the
// alerting path. It is an independent scale from ServiceLevel and the two
// must not be conflated: map coloring consumes ServiceLevel, alerting
// consumes Level.
type Level string

// Congestion levels in increasing severity.
const (
	LevelGreen  Level = "green"
	LevelYellow Level = "yellow"
	LevelOrange Level = "orange"
	LevelRed    Level = "red"
)

// Severity returns the level's rank for ordering comparisons, 0 = green.
func (l Level) Severity() int {
	switch l {
	case LevelYellow:
		return 1
	case LevelOrange:
		return 2
	case LevelRed:
		return 3
	default:
		return 0
	}
}

// LaneMetrics is the batch-analytics evaluation of a lane snapshot.
type LaneMetrics struct {
	LaneID            string       `json:"lane_id"`
	MeanSpeedKmh      float64      `json:"mean_speed"`
	DensityVehPerKm   float64      `json:"density"`
	TrafficFlow       float64      `json:"traffic_flow"`
	TravelTimeMinutes float64      `json:"travel_time"`
	OccupancyRate     float64      `json:"occupancy_rate"`
	ServiceLevel      ServiceLevel `json:"service_level"`
	AlertMessage      string       `json:"message"`
	ColorCode         string       `json:"color"`
	Timestamp         time.Time    `json:"timestamp"`
	Shape             []Point      `json:"shape,omitempty"`

	VehicleCount int     `json:"vehicle_count"`
	HaltingCount int     `json:"halting_number"`
	MaxSpeedKmh  float64 `json:"max_speed"`
}

// Classification is the real-time evaluation of a lane snapshot.
type Classification struct {
	LaneID string `json:"lane_id"`
	Level  Level  `json:"congestion_level"`
	Color  string `json:"color"`
}
