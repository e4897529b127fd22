package models

// SnapshotVehicle is one vehicle on a lane at snapshot time.
type SnapshotVehicle struct {
	Speed  float64 `json:"speed"`
	Length float64 `json:"length"`
	MinGap float64 `json:"minGap"`
}

// LaneSnapshotRequest is one lane's state submitted for evaluation.
type LaneSnapshotRequest struct {
	LaneID     string            `json:"laneId" validate:"required"`
	LaneLength float64           `json:"laneLength"`
	MaxSpeed   float64           `json:"maxSpeed"`
	Vehicles   []SnapshotVehicle `json:"vehicles"`
	Halting    int               `json:"haltingNumber"`
	Shape      [][]float64       `json:"shape,omitempty"` // [lon, lat] pairs
}

// SnapshotBatchRequest carries a batch of lane snapshots.
type SnapshotBatchRequest struct {
	Lanes []LaneSnapshotRequest `json:"lanes" validate:"required,min=1"`
}

// LaneClassification is the real-time congestion classification of one lane.
type LaneClassification struct {
	LaneID string `json:"laneId"`
	Level  string `json:"congestionLevel"`
	Color  string `json:"color"`
}

// SnapshotBatchResponse returns the classification for each submitted lane.
type SnapshotBatchResponse struct {
	GeneratedAt Timestamp            `json:"generatedAt"`
	Lanes       []LaneClassification `json:"lanes"`
}

// LaneMetrics is one lane's evaluated traffic metrics.
type LaneMetrics struct {
	LaneID        string      `json:"laneId"`
	MeanSpeed     float64     `json:"meanSpeed"`
	Density       float64     `json:"density"`
	TrafficFlow   float64     `json:"trafficFlow"`
	TravelTime    float64     `json:"travelTime"`
	OccupancyRate float64     `json:"occupancyRate"`
	ServiceLevel  string      `json:"serviceLevel"`
	Message       string      `json:"message"`
	Color         string      `json:"color"`
	VehicleCount  int         `json:"vehicleCount"`
	Halting       int         `json:"haltingNumber"`
	MaxSpeed      float64     `json:"maxSpeed"`
	Shape         [][]float64 `json:"shape,omitempty"`
}

// LaneMetricsResponse lists the stored lane metrics.
type LaneMetricsResponse struct {
	GeneratedAt Timestamp     `json:"generatedAt"`
	Lanes       []LaneMetrics `json:"lanes"`
}
