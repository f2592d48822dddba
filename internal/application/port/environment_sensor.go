package port

import (
	"context"
	"errors"

	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

// ErrSensorUnavailable is returned when the sensor produced no plausible
// reading after all retries.
var ErrSensorUnavailable = errors.New("environment sensor unavailable")

// EnvironmentSensor defines the interface for reading temperature and
// humidity (Port). The implementation lives in the Infrastructure layer.
type EnvironmentSensor interface {
	// Read samples the sensor, retrying transient failures internally.
	Read(ctx context.Context) (valueobject.Reading, error)
}
