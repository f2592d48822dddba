package sensor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/dreschagin/leafwatch/pkg/config"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// IIOSensor reads a DHT11 exposed through the Linux industrial-I/O sysfs
// files. The kernel driver reports millidegrees and milli-percent.
// Implements port.EnvironmentSensor.
type IIOSensor struct {
	cfg    config.SensorConfig
	logger *logger.Logger
}

// NewIIOSensor creates the sensor reader.
func NewIIOSensor(cfg config.SensorConfig, log *logger.Logger) *IIOSensor {
	return &IIOSensor{cfg: cfg, logger: log}
}

// Read samples the sensor. DHT11 reads fail routinely (the one-wire timing
// is fragile), so each sample gets a few attempts with a short backoff, and
// implausible values count as failures.
func (s *IIOSensor) Read(ctx context.Context) (valueobject.Reading, error) {
	var lastErr error

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return valueobject.Reading{}, ctx.Err()
			case <-time.After(s.cfg.RetryBackoff):
			}
		}

		reading, err := s.readOnce()
		if err == nil {
			return reading, nil
		}
		lastErr = err
		s.logger.Debug("Sensor read attempt failed",
			"attempt", attempt, "max", s.cfg.MaxAttempts, "error", err.Error())
	}

	return valueobject.Reading{}, fmt.Errorf("%w: %v", port.ErrSensorUnavailable, lastErr)
}

func (s *IIOSensor) readOnce() (valueobject.Reading, error) {
	temperature, err := readMilliValue(s.cfg.TemperaturePath)
	if err != nil {
		return valueobject.Reading{}, fmt.Errorf("temperature: %w", err)
	}

	humidity, err := readMilliValue(s.cfg.HumidityPath)
	if err != nil {
		return valueobject.Reading{}, fmt.Errorf("humidity: %w", err)
	}

	return valueobject.NewReading(temperature, humidity, time.Now())
}

// readMilliValue reads one sysfs attribute and scales it to its base unit.
func readMilliValue(path string) (float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable value %q: %w", strings.TrimSpace(string(raw)), err)
	}

	return value / 1000, nil
}
