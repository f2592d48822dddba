package entity

import (
	"errors"
	"time"

	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/google/uuid"
)

// EnvironmentReading is a persisted temperature/humidity sample.
type EnvironmentReading struct {
	id        string
	reading   valueobject.Reading
	createdAt time.Time
}

// NewEnvironmentReading wraps a sensor reading for persistence (Factory Method).
func NewEnvironmentReading(reading valueobject.Reading) (*EnvironmentReading, error) {
	if reading.IsZero() {
		return nil, errors.New("reading cannot be empty")
	}

	return &EnvironmentReading{
		id:        uuid.New().String(),
		reading:   reading,
		createdAt: time.Now(),
	}, nil
}

// ReconstructEnvironmentReading restores a reading from storage (for Repository).
func ReconstructEnvironmentReading(id string, reading valueobject.Reading, createdAt time.Time) *EnvironmentReading {
	return &EnvironmentReading{
		id:        id,
		reading:   reading,
		createdAt: createdAt,
	}
}

func (r *EnvironmentReading) ID() string                   { return r.id }
func (r *EnvironmentReading) Reading() valueobject.Reading { return r.reading }
func (r *EnvironmentReading) CreatedAt() time.Time         { return r.createdAt }

// TakenAt returns when the sensor produced the sample.
func (r *EnvironmentReading) TakenAt() time.Time {
	return r.reading.TakenAt()
}
