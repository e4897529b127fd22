package incident

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL incident repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InsertBatch stores records, skipping IDs that already exist.
func (r *PostgresRepository) InsertBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO incidents (
			id, crash_date, crash_time, zone_name,
			injured, killed, contributing_factor, vehicle_type,
			latitude, longitude
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	for _, rec := range records {
		batch.Queue(query,
			rec.ID,
			nullableDate(rec.Date),
			rec.Time,
			rec.ZoneName,
			rec.Injured,
			rec.Killed,
			rec.ContributingFactor,
			rec.VehicleType,
			rec.Latitude,
			rec.Longitude,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// ExistingIDs returns the set of persisted record IDs.
func (r *PostgresRepository) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM incidents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}

	return ids, rows.Err()
}

const selectColumns = `
	id, crash_date, crash_time, zone_name,
	injured, killed, contributing_factor, vehicle_type,
	latitude, longitude
`

// List retrieves all records, newest crash date first.
func (r *PostgresRepository) List(ctx context.Context) ([]Record, error) {
	query := `SELECT ` + selectColumns + ` FROM incidents ORDER BY crash_date DESC NULLS LAST`
	return r.queryRecords(ctx, query)
}

// ListSinceYear retrieves records from the given calendar year onward.
func (r *PostgresRepository) ListSinceYear(ctx context.Context, year int) ([]Record, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM incidents
		WHERE crash_date >= $1
		ORDER BY crash_date DESC
	`
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return r.queryRecords(ctx, query, start)
}

// DeleteAll removes every record.
func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM incidents`)
	return err
}

func (r *PostgresRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]Record, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var date *time.Time
		err := rows.Scan(
			&rec.ID,
			&date,
			&rec.Time,
			&rec.ZoneName,
			&rec.Injured,
			&rec.Killed,
			&rec.ContributingFactor,
			&rec.VehicleType,
			&rec.Latitude,
			&rec.Longitude,
		)
		if err != nil {
			return nil, err
		}
		if date != nil {
			rec.Date = *date
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// nullableDate maps the zero time (unknown crash date) to SQL NULL.
func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
