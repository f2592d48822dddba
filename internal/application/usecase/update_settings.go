package usecase

import (
	"context"

	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/application/state"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// UpdateSettingsUseCase applies runtime setting changes: the alert threshold
// and the daily capture toggle. Changes are volatile, matching the rest of
// the system state.
type UpdateSettingsUseCase struct {
	state    *state.SystemState
	notifier port.NotificationService
	status   *GetSystemStatusUseCase
	logger   *logger.Logger
}

// NewUpdateSettingsUseCase creates the settings use case.
func NewUpdateSettingsUseCase(
	systemState *state.SystemState,
	notifier port.NotificationService,
	status *GetSystemStatusUseCase,
	logger *logger.Logger,
) *UpdateSettingsUseCase {
	return &UpdateSettingsUseCase{
		state:    systemState,
		notifier: notifier,
		status:   status,
		logger:   logger,
	}
}

// SetThreshold replaces the alert threshold. Values outside [0,1] are
// rejected with state.ErrInvalidThreshold and nothing changes.
func (uc *UpdateSettingsUseCase) SetThreshold(ctx context.Context, value float64) error {
	if err := uc.state.UpdateThreshold(value); err != nil {
		uc.logger.Warn("Rejected alert threshold", "value", value)
		return err
	}

	uc.logger.Info("Alert threshold updated", "value", value)
	uc.notifier.BroadcastStatus(uc.status.Execute(ctx))
	return nil
}

// SetDailyCapture toggles the scheduled capture.
func (uc *UpdateSettingsUseCase) SetDailyCapture(ctx context.Context, enabled bool) {
	uc.state.SetDailyCapture(enabled)
	uc.logger.Info("Daily capture toggled", "enabled", enabled)
	uc.notifier.BroadcastStatus(uc.status.Execute(ctx))
}
