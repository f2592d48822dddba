package postgres

import (
	"time"

	"github.com/dreschagin/leafwatch/internal/domain/entity"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

// ReadingDBModel is the readings table row.
type ReadingDBModel struct {
	ID          string
	Temperature float64
	Humidity    float64
	TakenAt     time.Time
	CreatedAt   time.Time
}

// ToDBModel converts a Domain Entity into its DB row.
func ToDBModel(reading *entity.EnvironmentReading) *ReadingDBModel {
	r := reading.Reading()
	return &ReadingDBModel{
		ID:          reading.ID(),
		Temperature: r.Temperature(),
		Humidity:    r.Humidity(),
		TakenAt:     r.TakenAt(),
		CreatedAt:   reading.CreatedAt(),
	}
}

// ToEntity converts a DB row back into a Domain Entity.
func ToEntity(model *ReadingDBModel) (*entity.EnvironmentReading, error) {
	reading, err := valueobject.NewReading(model.Temperature, model.Humidity, model.TakenAt)
	if err != nil {
		return nil, err
	}

	return entity.ReconstructEnvironmentReading(model.ID, reading, model.CreatedAt), nil
}

// ScanReadingRow scans one DB row into a ReadingDBModel.
func ScanReadingRow(row interface {
	Scan(dest ...interface{}) error
}) (*ReadingDBModel, error) {
	var model ReadingDBModel

	err := row.Scan(
		&model.ID,
		&model.Temperature,
		&model.Humidity,
		&model.TakenAt,
		&model.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}
