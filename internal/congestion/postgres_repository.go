package congestion

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

// NewPostgresRepository creates a new PostgreSQL congestion repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// UpsertMetrics stores evaluated metrics keyed by lane id.
func (r *PostgresRepository) UpsertMetrics(ctx context.Context, metrics []LaneMetrics) error {
	if len(metrics) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO lane_metrics (
			lane_id, mean_speed, density, traffic_flow, travel_time,
			occupancy_rate, service_level, message, color, ts, shape,
			vehicle_count, halting_count, max_speed
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (lane_id) DO UPDATE SET
			mean_speed = EXCLUDED.mean_speed,
			density = EXCLUDED.density,
			traffic_flow = EXCLUDED.traffic_flow,
			travel_time = EXCLUDED.travel_time,
			occupancy_rate = EXCLUDED.occupancy_rate,
			service_level = EXCLUDED.service_level,
			message = EXCLUDED.message,
			color = EXCLUDED.color,
			ts = EXCLUDED.ts,
			shape = EXCLUDED.shape,
			vehicle_count = EXCLUDED.vehicle_count,
			halting_count = EXCLUDED.halting_count,
			max_speed = EXCLUDED.max_speed
	`

	for _, m := range metrics {
		shape, _ := json.Marshal(m.Shape)
		batch.Queue(query,
			m.LaneID, m.MeanSpeedKmh, m.DensityVehPerKm, m.TrafficFlow,
			m.TravelTimeMinutes, m.OccupancyRate, string(m.ServiceLevel),
			m.AlertMessage, m.ColorCode, m.Timestamp, shape,
			m.VehicleCount, m.HaltingCount, m.MaxSpeedKmh,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range metrics {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// ListMetrics retrieves the latest evaluation for every lane.
func (r *PostgresRepository) ListMetrics(ctx context.Context) ([]LaneMetrics, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			lane_id, mean_speed, density, traffic_flow, travel_time,
			occupancy_rate, service_level, message, color, ts, shape,
			vehicle_count, halting_count, max_speed
		FROM lane_metrics
		ORDER BY lane_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []LaneMetrics
	for rows.Next() {
		var m LaneMetrics
		var level string
		var shape []byte
		err := rows.Scan(
			&m.LaneID, &m.MeanSpeedKmh, &m.DensityVehPerKm, &m.TrafficFlow,
			&m.TravelTimeMinutes, &m.OccupancyRate, &level,
			&m.AlertMessage, &m.ColorCode, &m.Timestamp, &shape,
			&m.VehicleCount, &m.HaltingCount, &m.MaxSpeedKmh,
		)
		if err != nil {
			return nil, err
		}
		m.ServiceLevel = ServiceLevel(level)
		if len(shape) > 0 {
			if err := json.Unmarshal(shape, &m.Shape); err != nil {
				return nil, fmt.Errorf("decoding shape for %s: %w", m.LaneID, err)
			}
		}
		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}
