package congestion

import "context"

// Repository defines the interface for persisted lane metrics.
type Repository interface {
	// UpsertMetrics stores the evaluated metrics, one row per lane; a lane's
	// previous evaluation is overwritten.
	UpsertMetrics(ctx context.Context, metrics []LaneMetrics) error

	// ListMetrics retrieves the latest evaluation for every lane.
	ListMetrics(ctx context.Context) ([]LaneMetrics, error)
}
