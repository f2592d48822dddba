package usecase

import (
	"context"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/dto"
	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/application/state"
	"github.com/dreschagin/leafwatch/internal/domain/entity"
	"github.com/dreschagin/leafwatch/internal/domain/repository"
	"github.com/dreschagin/leafwatch/internal/domain/service"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// RecordReadingUseCase polls the environment sensor, persists readings and
// pushes them to connected clients. A sensor outage is never fatal: clients
// keep seeing the last-known values flagged as stale.
type RecordReadingUseCase struct {
	sensor     port.EnvironmentSensor
	repository repository.ReadingRepository
	state      *state.SystemState
	evaluator  *service.EnvironmentEvaluator
	notifier   port.NotificationService
	cache      port.Cache
	telemetry  port.MetricsPublisher
	interval   time.Duration
	logger     *logger.Logger
}

// NewRecordReadingUseCase creates the sensor poll use case. The repository,
// cache and telemetry collaborators are optional: pass nil to skip them.
func NewRecordReadingUseCase(
	sensor port.EnvironmentSensor,
	readingRepo repository.ReadingRepository,
	systemState *state.SystemState,
	evaluator *service.EnvironmentEvaluator,
	notifier port.NotificationService,
	cache port.Cache,
	telemetry port.MetricsPublisher,
	interval time.Duration,
	logger *logger.Logger,
) *RecordReadingUseCase {
	return &RecordReadingUseCase{
		sensor:     sensor,
		repository: readingRepo,
		state:      systemState,
		evaluator:  evaluator,
		notifier:   notifier,
		cache:      cache,
		telemetry:  telemetry,
		interval:   interval,
		logger:     logger,
	}
}

// Run drives the poll loop until ctx is cancelled. Call from a goroutine.
func (uc *RecordReadingUseCase) Run(ctx context.Context) {
	ticker := time.NewTicker(uc.interval)
	defer ticker.Stop()

	uc.logger.Info("Sensor poll loop started", "interval", uc.interval.String())

	// Take one sample immediately so clients see data before the first tick.
	uc.Execute(ctx)

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("Sensor poll loop stopped")
			return
		case <-ticker.C:
			uc.Execute(ctx)
		}
	}
}

// Execute takes one sensor sample and fans it out.
func (uc *RecordReadingUseCase) Execute(ctx context.Context) {
	reading, err := uc.sensor.Read(ctx)
	if err != nil {
		uc.logger.Warn("Sensor read failed, keeping last-known values", "error", err.Error())
		uc.state.MarkSensorFailed()

		// Push the last-known values so clients see the degradation.
		if last, _ := uc.state.LastReading(); !last.IsZero() {
			status := string(uc.evaluator.EvaluateReading(last))
			uc.notifier.BroadcastSensorUpdate(dto.NewReadingDTO(last, status, true))
		}
		return
	}

	uc.state.ApplyReading(reading)

	status := uc.evaluator.EvaluateReading(reading)
	if status == service.EnvironmentWarning {
		uc.logger.Warn("Environment outside comfort range",
			"temperature", reading.Temperature(), "humidity", reading.Humidity())
	}

	if uc.repository != nil {
		record, err := entity.NewEnvironmentReading(reading)
		if err != nil {
			uc.logger.Warn("Skipping invalid reading", "error", err.Error())
		} else if err := uc.repository.Save(ctx, record); err != nil {
			uc.logger.Error("Failed to save reading", err)
		} else if uc.cache != nil {
			// History responses are cached; a new sample invalidates them.
			if err := uc.cache.DeletePattern(ctx, "readings:history:*"); err != nil {
				uc.logger.Warn("Failed to invalidate reading cache", "error", err.Error())
			}
		}
	}

	uc.notifier.BroadcastSensorUpdate(dto.NewReadingDTO(reading, string(status), false))

	if uc.telemetry != nil {
		points := []port.TelemetryPoint{
			{Name: "Temperature", Value: reading.Temperature(), Unit: "", Timestamp: reading.TakenAt()},
			{Name: "Humidity", Value: reading.Humidity(), Unit: "%", Timestamp: reading.TakenAt()},
		}
		if err := uc.telemetry.PublishBatch(ctx, points); err != nil {
			uc.logger.Warn("Failed to publish sensor telemetry", "error", err.Error())
		}
	}
}
