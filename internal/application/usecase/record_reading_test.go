package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/application/state"
	"github.com/dreschagin/leafwatch/internal/domain/entity"
	"github.com/dreschagin/leafwatch/internal/domain/service"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

type mockSensor struct {
	temperature float64
	humidity    float64
	err         error
}

func (m *mockSensor) Read(_ context.Context) (valueobject.Reading, error) {
	if m.err != nil {
		return valueobject.Reading{}, m.err
	}
	return valueobject.NewReading(m.temperature, m.humidity, time.Now())
}

type mockReadingRepo struct {
	saved []*entity.EnvironmentReading
	err   error
}

func (m *mockReadingRepo) Save(_ context.Context, r *entity.EnvironmentReading) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, r)
	return nil
}

func (m *mockReadingRepo) FindLatest(_ context.Context) (*entity.EnvironmentReading, error) {
	if len(m.saved) == 0 {
		return nil, nil
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *mockReadingRepo) FindByTimeRange(_ context.Context, _ valueobject.TimeRange) ([]*entity.EnvironmentReading, error) {
	return m.saved, nil
}

func (m *mockReadingRepo) FindRecent(_ context.Context, limit int) ([]*entity.EnvironmentReading, error) {
	if limit > len(m.saved) {
		limit = len(m.saved)
	}
	return m.saved[len(m.saved)-limit:], nil
}

func (m *mockReadingRepo) DeleteOlderThan(_ context.Context, _ valueobject.TimeRange) error { return nil }
func (m *mockReadingRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.saved)), nil
}

type mockCache struct {
	deletedPatterns []string
}

func (m *mockCache) Get(_ context.Context, _ string, _ interface{}) error {
	return errors.New("cache miss")
}
func (m *mockCache) Set(_ context.Context, _ string, _ interface{}) error { return nil }
func (m *mockCache) Delete(_ context.Context, _ string) error            { return nil }
func (m *mockCache) DeletePattern(_ context.Context, pattern string) error {
	m.deletedPatterns = append(m.deletedPatterns, pattern)
	return nil
}
func (m *mockCache) Close() error { return nil }

func newReadingFixture(sensor *mockSensor) (*RecordReadingUseCase, *state.SystemState, *mockNotifier, *mockReadingRepo, *mockCache) {
	systemState := state.New(0.6, false, 8)
	notifier := &mockNotifier{}
	repo := &mockReadingRepo{}
	cache := &mockCache{}

	uc := NewRecordReadingUseCase(
		sensor, repo, systemState,
		service.NewEnvironmentEvaluator(), notifier, cache, nil,
		time.Second, logger.New("error"),
	)
	return uc, systemState, notifier, repo, cache
}

func TestRecordReading_Success(t *testing.T) {
	uc, systemState, notifier, repo, cache := newReadingFixture(&mockSensor{temperature: 24, humidity: 60})

	uc.Execute(context.Background())

	reading, available := systemState.LastReading()
	if !available {
		t.Fatal("expected sensor available")
	}
	if reading.Temperature() != 24 || reading.Humidity() != 60 {
		t.Fatalf("unexpected reading: %s", reading.String())
	}

	if len(repo.saved) != 1 {
		t.Fatalf("expected 1 persisted reading, got %d", len(repo.saved))
	}
	if len(cache.deletedPatterns) != 1 {
		t.Fatal("expected cache invalidation after persisting")
	}

	if len(notifier.sensorUpdates) != 1 {
		t.Fatalf("expected 1 sensor broadcast, got %d", len(notifier.sensorUpdates))
	}
	update := notifier.sensorUpdates[0]
	if update.Status != "ok" || update.Stale {
		t.Fatalf("unexpected broadcast: status=%s stale=%v", update.Status, update.Stale)
	}
}

func TestRecordReading_WarningClimate(t *testing.T) {
	uc, _, notifier, _, _ := newReadingFixture(&mockSensor{temperature: 38, humidity: 60})

	uc.Execute(context.Background())

	if len(notifier.sensorUpdates) != 1 {
		t.Fatal("expected sensor broadcast")
	}
	if notifier.sensorUpdates[0].Status != "warning" {
		t.Fatalf("expected warning status, got %s", notifier.sensorUpdates[0].Status)
	}
}

func TestRecordReading_FallbackToLastKnown(t *testing.T) {
	sensor := &mockSensor{temperature: 24, humidity: 60}
	uc, systemState, notifier, repo, _ := newReadingFixture(sensor)

	uc.Execute(context.Background())

	// The sensor goes dark: clients still get the last-known values,
	// flagged as stale, and nothing new is persisted.
	sensor.err = port.ErrSensorUnavailable
	uc.Execute(context.Background())

	if _, available := systemState.LastReading(); available {
		t.Fatal("expected sensor flagged as down")
	}
	if len(repo.saved) != 1 {
		t.Fatalf("failed read must not persist, got %d saved", len(repo.saved))
	}
	if len(notifier.sensorUpdates) != 2 {
		t.Fatalf("expected stale broadcast, got %d updates", len(notifier.sensorUpdates))
	}

	stale := notifier.sensorUpdates[1]
	if !stale.Stale {
		t.Fatal("expected stale flag on fallback broadcast")
	}
	if stale.Temperature != 24 || stale.Humidity != 60 {
		t.Fatal("fallback broadcast must carry the last-known values")
	}
}

func TestRecordReading_NoBroadcastBeforeFirstReading(t *testing.T) {
	uc, _, notifier, _, _ := newReadingFixture(&mockSensor{err: port.ErrSensorUnavailable})

	uc.Execute(context.Background())

	if len(notifier.sensorUpdates) != 0 {
		t.Fatal("no last-known values exist yet, nothing to broadcast")
	}
}
