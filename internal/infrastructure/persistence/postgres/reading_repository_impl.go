package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/dreschagin/leafwatch/internal/domain/entity"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

// PostgresReadingRepository implements repository.ReadingRepository for
// PostgreSQL.
type PostgresReadingRepository struct {
	db *sql.DB
}

// NewPostgresReadingRepository creates the repository.
func NewPostgresReadingRepository(db *sql.DB) *PostgresReadingRepository {
	return &PostgresReadingRepository{
		db: db,
	}
}

// Save persists one reading.
func (r *PostgresReadingRepository) Save(ctx context.Context, reading *entity.EnvironmentReading) error {
	model := ToDBModel(reading)

	query := `
		INSERT INTO readings (id, temperature, humidity, taken_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		model.ID,
		model.Temperature,
		model.Humidity,
		model.TakenAt,
		model.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	return nil
}

// FindLatest returns the most recent reading, or nil when the table is
// empty.
func (r *PostgresReadingRepository) FindLatest(ctx context.Context) (*entity.EnvironmentReading, error) {
	query := `
		SELECT id, temperature, humidity, taken_at, created_at
		FROM readings
		ORDER BY taken_at DESC
		LIMIT 1
	`

	row := r.db.QueryRowContext(ctx, query)
	model, err := ScanReadingRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan reading: %w", err)
	}

	return ToEntity(model)
}

// FindByTimeRange returns readings taken inside the range, newest first.
func (r *PostgresReadingRepository) FindByTimeRange(
	ctx context.Context,
	timeRange valueobject.TimeRange,
) ([]*entity.EnvironmentReading, error) {
	query := `
		SELECT id, temperature, humidity, taken_at, created_at
		FROM readings
		WHERE taken_at BETWEEN $1 AND $2
		ORDER BY taken_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, timeRange.Start(), timeRange.End())
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

// FindRecent returns the newest readings up to limit, newest first.
func (r *PostgresReadingRepository) FindRecent(ctx context.Context, limit int) ([]*entity.EnvironmentReading, error) {
	query := `
		SELECT id, temperature, humidity, taken_at, created_at
		FROM readings
		ORDER BY taken_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

// DeleteOlderThan removes readings taken before the retention window.
func (r *PostgresReadingRepository) DeleteOlderThan(ctx context.Context, timeRange valueobject.TimeRange) error {
	query := `
		DELETE FROM readings
		WHERE taken_at < $1
	`

	if _, err := r.db.ExecContext(ctx, query, timeRange.Start()); err != nil {
		return fmt.Errorf("failed to delete old readings: %w", err)
	}

	return nil
}

// Count returns the number of stored readings.
func (r *PostgresReadingRepository) Count(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM readings
	`

	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}

	return count, nil
}

// scanReadings scans multiple rows into reading entities.
func (r *PostgresReadingRepository) scanReadings(rows *sql.Rows) ([]*entity.EnvironmentReading, error) {
	var readings []*entity.EnvironmentReading

	for rows.Next() {
		model, err := ScanReadingRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading row: %w", err)
		}

		reading, err := ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to convert to entity: %w", err)
		}

		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return readings, nil
}
