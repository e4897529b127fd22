package risk

import "context"

// Repository defines the interface for persisted aggregation outputs.
// Each run fully replaces the previous output; aggregates are never patched
// incrementally.
type Repository interface {
	// ReplaceZoneAggregates swaps the stored zone aggregates for the batch.
	ReplaceZoneAggregates(ctx context.Context, aggregates map[string]*ZoneAggregate) error

	// ListZoneAggregates retrieves the stored zone aggregates.
	ListZoneAggregates(ctx context.Context) (map[string]*ZoneAggregate, error)

	// ReplaceZones swaps the stored street-level risk zones.
	ReplaceZones(ctx context.Context, zones []Zone) error

	// ListZones retrieves the stored risk zones, highest risk first.
	ListZones(ctx context.Context) ([]Zone, error)

	// ReplaceHourZones swaps the stored hour-by-zone aggregates.
	ReplaceHourZones(ctx context.Context, byHour map[string]map[string]*HourZoneAggregate) error

	// ListHourZones retrieves the stored hour-by-zone aggregates.
	ListHourZones(ctx context.Context) (map[string]map[string]*HourZoneAggregate, error)
}
