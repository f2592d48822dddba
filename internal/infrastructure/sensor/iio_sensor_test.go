package sensor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/pkg/config"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

func writeSysfsFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write sysfs fixture: %v", err)
	}
	return path
}

func testSensorConfig(tempPath, humPath string) config.SensorConfig {
	return config.SensorConfig{
		TemperaturePath: tempPath,
		HumidityPath:    humPath,
		MaxAttempts:     3,
		RetryBackoff:    time.Millisecond,
	}
}

func TestIIOSensor_Read(t *testing.T) {
	dir := t.TempDir()
	tempPath := writeSysfsFile(t, dir, "in_temp_input", "24500\n")
	humPath := writeSysfsFile(t, dir, "in_humidityrelative_input", "61000\n")

	s := NewIIOSensor(testSensorConfig(tempPath, humPath), logger.New("error"))

	reading, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if reading.Temperature() != 24.5 {
		t.Fatalf("expected 24.5°C, got %f", reading.Temperature())
	}
	if reading.Humidity() != 61 {
		t.Fatalf("expected 61%%, got %f", reading.Humidity())
	}
}

func TestIIOSensor_ImplausibleValuesRejected(t *testing.T) {
	tests := []struct {
		name        string
		temperature string
		humidity    string
	}{
		{name: "temperature too high", temperature: "80000", humidity: "61000"},
		{name: "temperature negative", temperature: "-5000", humidity: "61000"},
		{name: "humidity too low", temperature: "24000", humidity: "5000"},
		{name: "humidity too high", temperature: "24000", humidity: "99000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			tempPath := writeSysfsFile(t, dir, "in_temp_input", tc.temperature)
			humPath := writeSysfsFile(t, dir, "in_humidityrelative_input", tc.humidity)

			s := NewIIOSensor(testSensorConfig(tempPath, humPath), logger.New("error"))

			_, err := s.Read(context.Background())
			if !errors.Is(err, port.ErrSensorUnavailable) {
				t.Fatalf("expected ErrSensorUnavailable, got %v", err)
			}
		})
	}
}

func TestIIOSensor_MissingFiles(t *testing.T) {
	s := NewIIOSensor(testSensorConfig("/nonexistent/temp", "/nonexistent/hum"), logger.New("error"))

	_, err := s.Read(context.Background())
	if !errors.Is(err, port.ErrSensorUnavailable) {
		t.Fatalf("expected ErrSensorUnavailable, got %v", err)
	}
}

func TestIIOSensor_GarbageValue(t *testing.T) {
	dir := t.TempDir()
	tempPath := writeSysfsFile(t, dir, "in_temp_input", "not-a-number")
	humPath := writeSysfsFile(t, dir, "in_humidityrelative_input", "61000")

	s := NewIIOSensor(testSensorConfig(tempPath, humPath), logger.New("error"))

	_, err := s.Read(context.Background())
	if !errors.Is(err, port.ErrSensorUnavailable) {
		t.Fatalf("expected ErrSensorUnavailable, got %v", err)
	}
}

func TestIIOSensor_ContextCancelledDuringRetry(t *testing.T) {
	s := NewIIOSensor(testSensorConfig("/nonexistent/temp", "/nonexistent/hum"), logger.New("error"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Read(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
