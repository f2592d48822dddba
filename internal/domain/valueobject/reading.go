package valueobject

import (
	"errors"
	"fmt"
	"time"
)

// Plausibility window for the DHT11 sensor: readings outside it are noise.
const (
	MinTemperature = 0.0
	MaxTemperature = 50.0
	MinHumidity    = 20.0
	MaxHumidity    = 90.0
)

// Reading is one temperature/humidity sample from the environment sensor
// (Value Object). Immutable.
type Reading struct {
	temperature float64
	humidity    float64
	takenAt     time.Time
}

// NewReading builds a reading, rejecting values outside the sensor's
// plausibility window.
func NewReading(temperature, humidity float64, takenAt time.Time) (Reading, error) {
	if temperature < MinTemperature || temperature > MaxTemperature {
		return Reading{}, errors.New("temperature outside plausible range")
	}
	if humidity < MinHumidity || humidity > MaxHumidity {
		return Reading{}, errors.New("humidity outside plausible range")
	}
	if takenAt.IsZero() {
		return Reading{}, errors.New("taken_at cannot be zero")
	}

	return Reading{
		temperature: temperature,
		humidity:    humidity,
		takenAt:     takenAt,
	}, nil
}

func (r Reading) Temperature() float64 { return r.temperature }
func (r Reading) Humidity() float64    { return r.humidity }
func (r Reading) TakenAt() time.Time   { return r.takenAt }

// IsZero reports whether the reading was never populated.
func (r Reading) IsZero() bool {
	return r.takenAt.IsZero()
}

// IsStale reports whether the reading is older than the given threshold.
func (r Reading) IsStale(threshold time.Duration) bool {
	return time.Since(r.takenAt) > threshold
}

// String returns a display representation.
func (r Reading) String() string {
	return fmt.Sprintf("%.1f°C %.1f%%", r.temperature, r.humidity)
}
