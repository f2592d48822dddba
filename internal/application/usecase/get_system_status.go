package usecase

import (
	"context"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/dto"
	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/application/state"
	"github.com/dreschagin/leafwatch/internal/domain/service"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// readingStaleAfter marks the sensor reading as stale in the status payload
// when the poll loop has missed several cycles.
const readingStaleAfter = time.Minute

// GetSystemStatusUseCase assembles the full status payload for the HTTP
// surface and for WebSocket pushes.
type GetSystemStatusUseCase struct {
	state     *state.SystemState
	evaluator *service.EnvironmentEvaluator
	host      port.HostMonitor
	notifier  port.NotificationService
	logger    *logger.Logger
}

// NewGetSystemStatusUseCase creates the status use case. The host monitor
// is optional: pass nil to omit host stats from the payload.
func NewGetSystemStatusUseCase(
	systemState *state.SystemState,
	evaluator *service.EnvironmentEvaluator,
	host port.HostMonitor,
	notifier port.NotificationService,
	logger *logger.Logger,
) *GetSystemStatusUseCase {
	return &GetSystemStatusUseCase{
		state:     systemState,
		evaluator: evaluator,
		host:      host,
		notifier:  notifier,
		logger:    logger,
	}
}

// Execute builds the status payload from the current state snapshot.
func (uc *GetSystemStatusUseCase) Execute(ctx context.Context) *dto.StatusDTO {
	snap := uc.state.Snapshot()

	status := &dto.StatusDTO{
		Timestamp:        time.Now(),
		CameraAvailable:  snap.CameraAvailable,
		SensorAvailable:  snap.SensorAvailable,
		AlertThreshold:   snap.AlertThreshold,
		ConnectedClients: uc.notifier.ClientCount(),
		DailyCapture: &dto.DailyCaptureDTO{
			Enabled:     snap.DailyEnabled,
			Hour:        snap.DailyHour,
			LastRunDate: snap.LastDailyDate,
			LastResult:  snap.LastDailyResult,
		},
	}

	if !snap.NextDailyRunAt.IsZero() {
		next := snap.NextDailyRunAt
		status.DailyCapture.NextRunAt = &next
	}

	if !snap.LastReading.IsZero() {
		env := string(uc.evaluator.EvaluateReading(snap.LastReading))
		status.Environment = dto.NewReadingDTO(
			snap.LastReading, env, snap.LastReading.IsStale(readingStaleAfter))
	}

	if snap.LastDiagnosis != nil {
		status.LastDiagnosis = dto.NewDiagnosisDTO(*snap.LastDiagnosis)
	}

	if uc.host != nil {
		if hostStatus, err := uc.host.Status(ctx); err != nil {
			uc.logger.Warn("Failed to sample host status", "error", err.Error())
		} else {
			status.Host = &dto.HostDTO{
				CPUPercent:    hostStatus.CPUPercent,
				MemoryPercent: hostStatus.MemoryPercent,
				DiskPercent:   hostStatus.DiskPercent,
				UptimeSeconds: hostStatus.UptimeSeconds,
			}
		}
	}

	return status
}
