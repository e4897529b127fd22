package risk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL risk repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ReplaceZoneAggregates swaps the stored zone aggregates inside one transaction.
func (r *PostgresRepository) ReplaceZoneAggregates(ctx context.Context, aggregates map[string]*ZoneAggregate) error {
	return r.replace(ctx, `DELETE FROM zone_aggregates`, func(batch *pgx.Batch) {
		query := `
			INSERT INTO zone_aggregates (
				zone_key, accident_count, total_injured, total_killed,
				latitude, longitude, frequency, raw_risk_score, normalized_risk_score
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		for _, agg := range aggregates {
			batch.Queue(query,
				agg.ZoneKey, agg.Count, agg.TotalInjured, agg.TotalKilled,
				agg.Latitude, agg.Longitude, agg.Frequency,
				agg.RawRiskScore, agg.NormalizedRiskScore,
			)
		}
	})
}

// ListZoneAggregates retrieves the stored zone aggregates.
func (r *PostgresRepository) ListZoneAggregates(ctx context.Context) (map[string]*ZoneAggregate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			zone_key, accident_count, total_injured, total_killed,
			latitude, longitude, frequency, raw_risk_score, normalized_risk_score
		FROM zone_aggregates
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aggregates := make(map[string]*ZoneAggregate)
	for rows.Next() {
		var agg ZoneAggregate
		err := rows.Scan(
			&agg.ZoneKey, &agg.Count, &agg.TotalInjured, &agg.TotalKilled,
			&agg.Latitude, &agg.Longitude, &agg.Frequency,
			&agg.RawRiskScore, &agg.NormalizedRiskScore,
		)
		if err != nil {
			return nil, err
		}
		aggregates[agg.ZoneKey] = &agg
	}

	return aggregates, rows.Err()
}

// ReplaceZones swaps the stored street-level risk zones.
func (r *PostgresRepository) ReplaceZones(ctx context.Context, zones []Zone) error {
	return r.replace(ctx, `DELETE FROM risk_zones`, func(batch *pgx.Batch) {
		query := `
			INSERT INTO risk_zones (
				route_name, accident_count, total_injured, total_killed,
				global_risk_index, normalized_risk_index, coordinates
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		for _, zone := range zones {
			coords, _ := json.Marshal(zone.Coordinates)
			batch.Queue(query,
				zone.RouteName, zone.AccidentCount, zone.TotalInjured, zone.TotalKilled,
				zone.GlobalRiskIndex, zone.NormalizedRiskIndex, coords,
			)
		}
	})
}

// ListZones retrieves the stored risk zones, highest risk first.
func (r *PostgresRepository) ListZones(ctx context.Context) ([]Zone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			route_name, accident_count, total_injured, total_killed,
			global_risk_index, normalized_risk_index, coordinates
		FROM risk_zones
		ORDER BY global_risk_index DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		var zone Zone
		var coords []byte
		err := rows.Scan(
			&zone.RouteName, &zone.AccidentCount, &zone.TotalInjured, &zone.TotalKilled,
			&zone.GlobalRiskIndex, &zone.NormalizedRiskIndex, &coords,
		)
		if err != nil {
			return nil, err
		}
		if len(coords) > 0 {
			if err := json.Unmarshal(coords, &zone.Coordinates); err != nil {
				return nil, fmt.Errorf("decoding coordinates for %s: %w", zone.RouteName, err)
			}
		}
		zones = append(zones, zone)
	}

	return zones, rows.Err()
}

// ReplaceHourZones swaps the stored hour-by-zone aggregates.
func (r *PostgresRepository) ReplaceHourZones(ctx context.Context, byHour map[string]map[string]*HourZoneAggregate) error {
	return r.replace(ctx, `DELETE FROM hour_zone_aggregates`, func(batch *pgx.Batch) {
		query := `
			INSERT INTO hour_zone_aggregates (
				hour, zone_name, total_accidents, total_injuries, total_deaths,
				latitude, longitude, risk_score
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		for _, zones := range byHour {
			for _, agg := range zones {
				batch.Queue(query,
					agg.Hour, agg.ZoneName, agg.TotalAccidents, agg.TotalInjuries,
					agg.TotalDeaths, agg.Latitude, agg.Longitude, agg.RiskScore,
				)
			}
		}
	})
}

// ListHourZones retrieves the stored hour-by-zone aggregates.
func (r *PostgresRepository) ListHourZones(ctx context.Context) (map[string]map[string]*HourZoneAggregate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			hour, zone_name, total_accidents, total_injuries, total_deaths,
			latitude, longitude, risk_score
		FROM hour_zone_aggregates
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byHour := make(map[string]map[string]*HourZoneAggregate)
	for rows.Next() {
		var agg HourZoneAggregate
		err := rows.Scan(
			&agg.Hour, &agg.ZoneName, &agg.TotalAccidents, &agg.TotalInjuries,
			&agg.TotalDeaths, &agg.Latitude, &agg.Longitude, &agg.RiskScore,
		)
		if err != nil {
			return nil, err
		}
		zones, ok := byHour[agg.Hour]
		if !ok {
			zones = make(map[string]*HourZoneAggregate)
			byHour[agg.Hour] = zones
		}
		zones[agg.ZoneName] = &agg
	}

	return byHour, rows.Err()
}

// replace runs a delete-then-insert swap in a single transaction.
func (r *PostgresRepository) replace(ctx context.Context, deleteQuery string, queue func(*pgx.Batch)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, deleteQuery); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	queue(batch)

	if batch.Len() > 0 {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
