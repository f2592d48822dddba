package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/dreschagin/leafwatch/internal/application/state"
	"github.com/dreschagin/leafwatch/internal/domain/service"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

func newSettingsFixture() (*UpdateSettingsUseCase, *state.SystemState, *mockNotifier) {
	systemState := state.New(0.6, false, 8)
	notifier := &mockNotifier{}
	log := logger.New("error")
	status := NewGetSystemStatusUseCase(systemState, service.NewEnvironmentEvaluator(), nil, notifier, log)
	return NewUpdateSettingsUseCase(systemState, notifier, status, log), systemState, notifier
}

func TestUpdateSettings_SetThreshold(t *testing.T) {
	uc, systemState, notifier := newSettingsFixture()

	if err := uc.SetThreshold(context.Background(), 0.75); err != nil {
		t.Fatalf("SetThreshold() error = %v", err)
	}
	if systemState.AlertThreshold() != 0.75 {
		t.Fatalf("expected threshold 0.75, got %f", systemState.AlertThreshold())
	}
	if len(notifier.statuses) != 1 {
		t.Fatalf("expected status broadcast after update, got %d", len(notifier.statuses))
	}
	if notifier.statuses[0].AlertThreshold != 0.75 {
		t.Fatalf("broadcast carries stale threshold: %f", notifier.statuses[0].AlertThreshold)
	}
}

func TestUpdateSettings_RejectsOutOfRangeThreshold(t *testing.T) {
	uc, systemState, notifier := newSettingsFixture()

	err := uc.SetThreshold(context.Background(), 1.5)
	if !errors.Is(err, state.ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
	if systemState.AlertThreshold() != 0.6 {
		t.Fatalf("rejected update must not mutate: got %f", systemState.AlertThreshold())
	}
	if len(notifier.statuses) != 0 {
		t.Fatal("rejected update must not broadcast")
	}
}

func TestUpdateSettings_SetDailyCapture(t *testing.T) {
	uc, systemState, notifier := newSettingsFixture()

	uc.SetDailyCapture(context.Background(), true)
	if !systemState.DailyCaptureEnabled() {
		t.Fatal("expected daily capture enabled")
	}
	if len(notifier.statuses) != 1 {
		t.Fatal("expected status broadcast after toggle")
	}
	if !notifier.statuses[0].DailyCapture.Enabled {
		t.Fatal("broadcast carries stale toggle")
	}

	uc.SetDailyCapture(context.Background(), false)
	if systemState.DailyCaptureEnabled() {
		t.Fatal("expected daily capture disabled")
	}
}
