package incident

import "context"

// Repository defines the interface for incident record persistence.
type Repository interface {
	// InsertBatch stores the given records. Records whose ID already exists
	// are left untouched.
	InsertBatch(ctx context.Context, records []Record) error

	// ExistingIDs returns the set of record IDs already persisted.
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)

	// List retrieves all persisted records, newest crash date first.
	List(ctx context.Context) ([]Record, error)

	// ListSinceYear retrieves records whose crash date falls in the given
	// calendar year or later. Records with an unknown date are excluded.
	ListSinceYear(ctx context.Context, year int) ([]Record, error)

	// DeleteAll removes every persisted record, for a fresh full reload.
	DeleteAll(ctx context.Context) error
}
