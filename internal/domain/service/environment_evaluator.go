package service

import (
	"errors"

	"github.com/dreschagin/leafwatch/internal/domain/entity"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

// Warning boundaries for greenhouse climate. Exceeding either one flips the
// environment status from OK to warning.
const (
	warningTemperature = 35.0
	warningHumidity    = 85.0
)

// EnvironmentStatus is the coarse evaluation of the current climate.
type EnvironmentStatus string

const (
	EnvironmentOK      EnvironmentStatus = "ok"
	EnvironmentWarning EnvironmentStatus = "warning"
)

// EnvironmentEvaluator grades sensor readings and aggregates reading history
// (Domain Service). Contains logic that does not belong to a single entity.
type EnvironmentEvaluator struct{}

// NewEnvironmentEvaluator creates an EnvironmentEvaluator.
func NewEnvironmentEvaluator() *EnvironmentEvaluator {
	return &EnvironmentEvaluator{}
}

// Evaluate grades a persisted reading. Warnings are raised on strict excess
// of either boundary, so 35.0°C and 85.0% are still OK.
func (e *EnvironmentEvaluator) Evaluate(r *entity.EnvironmentReading) EnvironmentStatus {
	return e.EvaluateReading(r.Reading())
}

// EvaluateReading grades a raw sensor sample.
func (e *EnvironmentEvaluator) EvaluateReading(reading valueobject.Reading) EnvironmentStatus {
	if reading.Temperature() > warningTemperature || reading.Humidity() > warningHumidity {
		return EnvironmentWarning
	}
	return EnvironmentOK
}

// AverageTemperature computes the mean temperature across readings.
func (e *EnvironmentEvaluator) AverageTemperature(readings []*entity.EnvironmentReading) (float64, error) {
	if len(readings) == 0 {
		return 0, errors.New("no readings to aggregate")
	}

	var sum float64
	for _, r := range readings {
		sum += r.Reading().Temperature()
	}

	return sum / float64(len(readings)), nil
}

// AverageHumidity computes the mean humidity across readings.
func (e *EnvironmentEvaluator) AverageHumidity(readings []*entity.EnvironmentReading) (float64, error) {
	if len(readings) == 0 {
		return 0, errors.New("no readings to aggregate")
	}

	var sum float64
	for _, r := range readings {
		sum += r.Reading().Humidity()
	}

	return sum / float64(len(readings)), nil
}

// TemperatureRange returns the minimum and maximum temperature across readings.
func (e *EnvironmentEvaluator) TemperatureRange(readings []*entity.EnvironmentReading) (float64, float64, error) {
	if len(readings) == 0 {
		return 0, 0, errors.New("no readings to aggregate")
	}

	min := readings[0].Reading().Temperature()
	max := min
	for _, r := range readings[1:] {
		if val := r.Reading().Temperature(); val < min {
			min = val
		}
		if val := r.Reading().Temperature(); val > max {
			max = val
		}
	}

	return min, max, nil
}

// FindWarnings returns the readings that grade as warnings.
func (e *EnvironmentEvaluator) FindWarnings(readings []*entity.EnvironmentReading) []*entity.EnvironmentReading {
	var warnings []*entity.EnvironmentReading
	for _, r := range readings {
		if e.Evaluate(r) == EnvironmentWarning {
			warnings = append(warnings, r)
		}
	}
	return warnings
}
