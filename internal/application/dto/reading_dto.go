package dto

import (
	"time"

	"github.com/dreschagin/leafwatch/internal/domain/entity"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

// ReadingDTO is one temperature/humidity sample for clients.
type ReadingDTO struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Status      string    `json:"status"` // "ok", "warning"
	Stale       bool      `json:"stale"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewReadingDTO converts a reading into its wire form.
func NewReadingDTO(reading valueobject.Reading, status string, stale bool) *ReadingDTO {
	return &ReadingDTO{
		Temperature: reading.Temperature(),
		Humidity:    reading.Humidity(),
		Status:      status,
		Stale:       stale,
		Timestamp:   reading.TakenAt(),
	}
}

// ReadingHistoryDTO is a window of readings with aggregates.
type ReadingHistoryDTO struct {
	Readings           []*ReadingDTO `json:"readings"`
	AverageTemperature float64       `json:"average_temperature"`
	AverageHumidity    float64       `json:"average_humidity"`
	MinTemperature     float64       `json:"min_temperature"`
	MaxTemperature     float64       `json:"max_temperature"`
	WarningCount       int           `json:"warning_count"`
}

// ReadingDTOFromEntity converts a persisted reading. Status is filled by the
// caller, which owns the evaluator.
func ReadingDTOFromEntity(r *entity.EnvironmentReading, status string) *ReadingDTO {
	return NewReadingDTO(r.Reading(), status, false)
}
