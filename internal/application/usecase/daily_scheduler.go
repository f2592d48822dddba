package usecase

import (
	"context"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/dto"
	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/application/state"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// DailySchedulerUseCase runs the scheduled capture once per calendar day at
// the configured hour. Deduplication lives in the state: however many ticks
// fire in a day, the pipeline runs until one succeeds and then stays quiet
// until the next day.
type DailySchedulerUseCase struct {
	pipeline *RunCaptureUseCase
	state    *state.SystemState
	notifier port.NotificationService
	tick     time.Duration
	logger   *logger.Logger
}

// NewDailySchedulerUseCase creates the scheduler.
func NewDailySchedulerUseCase(
	pipeline *RunCaptureUseCase,
	systemState *state.SystemState,
	notifier port.NotificationService,
	tick time.Duration,
	logger *logger.Logger,
) *DailySchedulerUseCase {
	return &DailySchedulerUseCase{
		pipeline: pipeline,
		state:    systemState,
		notifier: notifier,
		tick:     tick,
		logger:   logger,
	}
}

// Run drives the tick loop until ctx is cancelled. Call from a goroutine.
func (uc *DailySchedulerUseCase) Run(ctx context.Context) {
	ticker := time.NewTicker(uc.tick)
	defer ticker.Stop()

	uc.logger.Info("Daily capture scheduler started", "tick", uc.tick.String())

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("Daily capture scheduler stopped")
			return
		case <-ticker.C:
			uc.Tick(ctx)
		}
	}
}

// Tick performs one scheduler evaluation. Exposed for the manual trigger
// path and for tests.
func (uc *DailySchedulerUseCase) Tick(ctx context.Context) {
	if !uc.state.DailyCaptureDue() {
		return
	}
	uc.runScheduled(ctx)
}

// RunNow forces a scheduled-style run regardless of the calendar, for the
// manual trigger endpoint. A successful forced run still counts as today's
// run.
func (uc *DailySchedulerUseCase) RunNow(ctx context.Context) *dto.CaptureResultDTO {
	return uc.runScheduled(ctx)
}

func (uc *DailySchedulerUseCase) runScheduled(ctx context.Context) *dto.CaptureResultDTO {
	uc.logger.Info("Running scheduled capture")

	result, err := uc.pipeline.Execute(ctx, valueobject.SourceScheduled)
	if err != nil {
		// The date does not advance: the next tick retries on the same day.
		uc.logger.Error("Scheduled capture failed", err)
		if result == nil {
			result = dto.NewCaptureFailureDTO(valueobject.SourceScheduled.String(), "scheduled capture failed")
		}
		uc.state.SetDailyResult(result)
		uc.notifier.BroadcastDailyResult(result)
		return result
	}

	uc.state.MarkDailyCaptureDone()
	uc.state.SetDailyResult(result)
	uc.notifier.BroadcastDailyResult(result)

	uc.logger.Info("Scheduled capture completed", "filename", result.Filename)
	return result
}
