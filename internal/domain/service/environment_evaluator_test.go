package service

import (
	"testing"
	"time"

	"github.com/dreschagin/leafwatch/internal/domain/entity"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

func mustReadingEntity(t *testing.T, temperature, humidity float64) *entity.EnvironmentReading {
	t.Helper()

	reading, err := valueobject.NewReading(temperature, humidity, time.Now())
	if err != nil {
		t.Fatalf("failed to create reading: %v", err)
	}

	r, err := entity.NewEnvironmentReading(reading)
	if err != nil {
		t.Fatalf("failed to create reading entity: %v", err)
	}

	return r
}

func TestEnvironmentEvaluator_Evaluate(t *testing.T) {
	evaluator := NewEnvironmentEvaluator()

	tests := []struct {
		name        string
		temperature float64
		humidity    float64
		want        EnvironmentStatus
	}{
		{name: "comfortable climate", temperature: 24, humidity: 60, want: EnvironmentOK},
		{name: "exactly at temperature boundary", temperature: 35, humidity: 60, want: EnvironmentOK},
		{name: "exactly at humidity boundary", temperature: 24, humidity: 85, want: EnvironmentOK},
		{name: "temperature above boundary", temperature: 35.5, humidity: 60, want: EnvironmentWarning},
		{name: "humidity above boundary", temperature: 24, humidity: 86, want: EnvironmentWarning},
		{name: "both above boundary", temperature: 40, humidity: 90, want: EnvironmentWarning},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := mustReadingEntity(t, tc.temperature, tc.humidity)
			if got := evaluator.Evaluate(r); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestEnvironmentEvaluator_Averages(t *testing.T) {
	evaluator := NewEnvironmentEvaluator()

	readings := []*entity.EnvironmentReading{
		mustReadingEntity(t, 20, 50),
		mustReadingEntity(t, 30, 70),
	}

	avgTemp, err := evaluator.AverageTemperature(readings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avgTemp != 25 {
		t.Fatalf("expected average temperature 25, got %f", avgTemp)
	}

	avgHum, err := evaluator.AverageHumidity(readings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avgHum != 60 {
		t.Fatalf("expected average humidity 60, got %f", avgHum)
	}
}

func TestEnvironmentEvaluator_EmptyAggregates(t *testing.T) {
	evaluator := NewEnvironmentEvaluator()

	if _, err := evaluator.AverageTemperature(nil); err == nil {
		t.Fatal("expected error for empty readings")
	}
	if _, _, err := evaluator.TemperatureRange(nil); err == nil {
		t.Fatal("expected error for empty readings")
	}
}

func TestEnvironmentEvaluator_TemperatureRange(t *testing.T) {
	evaluator := NewEnvironmentEvaluator()

	readings := []*entity.EnvironmentReading{
		mustReadingEntity(t, 22, 55),
		mustReadingEntity(t, 18, 60),
		mustReadingEntity(t, 31, 65),
	}

	min, max, err := evaluator.TemperatureRange(readings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if min != 18 || max != 31 {
		t.Fatalf("expected range [18, 31], got [%f, %f]", min, max)
	}
}

func TestEnvironmentEvaluator_FindWarnings(t *testing.T) {
	evaluator := NewEnvironmentEvaluator()

	hot := mustReadingEntity(t, 38, 60)
	readings := []*entity.EnvironmentReading{
		mustReadingEntity(t, 24, 60),
		hot,
		mustReadingEntity(t, 26, 55),
	}

	warnings := evaluator.FindWarnings(readings)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if warnings[0].ID() != hot.ID() {
		t.Fatal("expected the hot reading to be flagged")
	}
}
