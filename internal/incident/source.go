package incident

import "context"

// Source supplies raw collision records from an external dataset.
type Source interface {
	// FetchRecords retrieves raw records, handling any upstream pagination.
	// The caller sees the concatenated result.
	FetchRecords(ctx context.Context) ([]RawRecord, error)

	// Name returns the source identifier for logging and metrics.
	Name() string
}
