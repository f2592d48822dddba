package repository

import (
	"context"

	"github.com/dreschagin/leafwatch/internal/domain/entity"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

// ReadingRepository defines the storage contract for environment readings
// (Port). The implementation lives in the Infrastructure layer.
type ReadingRepository interface {
	// Save persists one reading.
	Save(ctx context.Context, reading *entity.EnvironmentReading) error

	// FindLatest returns the most recent reading, or nil when none exist.
	FindLatest(ctx context.Context) (*entity.EnvironmentReading, error)

	// FindByTimeRange returns readings taken inside the range, newest first.
	FindByTimeRange(ctx context.Context, timeRange valueobject.TimeRange) ([]*entity.EnvironmentReading, error)

	// FindRecent returns the newest readings up to limit, newest first.
	FindRecent(ctx context.Context, limit int) ([]*entity.EnvironmentReading, error)

	// DeleteOlderThan removes readings taken before the given retention window.
	DeleteOlderThan(ctx context.Context, timeRange valueobject.TimeRange) error

	// Count returns the number of stored readings.
	Count(ctx context.Context) (int64, error)
}
