package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/dto"
	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/application/state"
	"github.com/dreschagin/leafwatch/internal/domain/entity"
	"github.com/dreschagin/leafwatch/internal/domain/service"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// RunCaptureUseCase runs the full capture pipeline: acquire a frame, persist
// it, classify it, grade the result, update state and fan out notifications.
type RunCaptureUseCase struct {
	frames     port.FrameSource
	classifier port.Classifier
	store      port.ImageStore
	policy     *service.SeverityPolicy
	state      *state.SystemState
	notifier   port.NotificationService
	events     port.EventPublisher
	archiver   port.CaptureArchiver
	index      port.CaptureIndex
	telemetry  port.MetricsPublisher
	status     *GetSystemStatusUseCase
	logger     *logger.Logger
}

// NewRunCaptureUseCase creates the capture pipeline. The archiver, index,
// events and telemetry collaborators are optional: pass nil to skip them.
func NewRunCaptureUseCase(
	frames port.FrameSource,
	classifier port.Classifier,
	store port.ImageStore,
	policy *service.SeverityPolicy,
	systemState *state.SystemState,
	notifier port.NotificationService,
	events port.EventPublisher,
	archiver port.CaptureArchiver,
	index port.CaptureIndex,
	telemetry port.MetricsPublisher,
	status *GetSystemStatusUseCase,
	logger *logger.Logger,
) *RunCaptureUseCase {
	return &RunCaptureUseCase{
		frames:     frames,
		classifier: classifier,
		store:      store,
		policy:     policy,
		state:      systemState,
		notifier:   notifier,
		events:     events,
		archiver:   archiver,
		index:      index,
		telemetry:  telemetry,
		status:     status,
		logger:     logger,
	}
}

// Execute runs the pipeline against the camera for the given source.
// When the camera is unavailable the run leaves no trace: no file, no state
// change, no notification beyond the returned failure envelope.
func (uc *RunCaptureUseCase) Execute(ctx context.Context, source valueobject.CaptureSource) (*dto.CaptureResultDTO, error) {
	if !source.UsesCamera() {
		return nil, fmt.Errorf("source %s does not capture from the camera", source)
	}

	frame, err := uc.frames.Grab(ctx)
	if err != nil {
		uc.logger.Error("Failed to grab camera frame", err, "source", source.String())
		uc.state.SetCameraAvailable(false)
		if errors.Is(err, port.ErrCameraUnavailable) {
			return dto.NewCaptureFailureDTO(source.String(), "camera unavailable"), err
		}
		return dto.NewCaptureFailureDTO(source.String(), "frame acquisition failed"), err
	}
	uc.state.SetCameraAvailable(true)

	return uc.process(ctx, source, frame.Data, frame.CapturedAt)
}

// ExecuteUpload runs the pipeline on a client-provided image, skipping
// frame acquisition.
func (uc *RunCaptureUseCase) ExecuteUpload(ctx context.Context, image []byte) (*dto.CaptureResultDTO, error) {
	return uc.process(ctx, valueobject.SourceUploaded, image, time.Now())
}

func (uc *RunCaptureUseCase) process(
	ctx context.Context,
	source valueobject.CaptureSource,
	image []byte,
	takenAt time.Time,
) (*dto.CaptureResultDTO, error) {
	// 1. Persist the image first: a classifier outage must never lose it.
	stored, err := uc.store.Save(ctx, source, image, takenAt)
	if err != nil {
		uc.logger.Error("Failed to save capture image", err, "source", source.String())
		return dto.NewCaptureFailureDTO(source.String(), "failed to save image"), err
	}

	uc.logger.Debug("Capture image saved",
		"source", source.String(), "filename", stored.Filename, "size", stored.Size)

	// 2. Classify. An unreachable classifier degrades to a failed analysis
	// diagnosis; the pipeline still completes.
	var diagnosis valueobject.Diagnosis
	var analysisTime time.Duration

	started := time.Now()
	classification, err := uc.classifier.Classify(ctx, image)
	analysisTime = time.Since(started)
	if err != nil {
		uc.logger.Error("Classification failed", err, "filename", stored.Filename)
		diagnosis = uc.policy.AnalysisFailed("classifier unavailable")
	} else {
		diagnosis = uc.policy.Diagnose(classification.ClassName, classification.Confidence)
		if classification.Elapsed > 0 {
			analysisTime = classification.Elapsed
		}
	}

	// 3. Build the capture aggregate.
	capture, err := entity.NewCapture(source, stored.Filename, stored.Path, stored.Size, diagnosis, takenAt)
	if err != nil {
		uc.logger.Error("Failed to build capture", err, "filename", stored.Filename)
		return dto.NewCaptureFailureDTO(source.String(), "invalid capture"), err
	}

	// 4. Update shared state. The frame is long released here, so the state
	// mutex is the only lock held.
	threshold := uc.state.AlertThreshold()
	uc.state.ApplyDiagnosis(diagnosis, capture.CapturedAt())

	result := dto.NewCaptureResultDTO(capture, analysisTime)

	// 5. Fan out to connected clients. The status push happens on every
	// run; the scheduled source gets its own result event from the
	// scheduler instead of the generic capture one.
	if source != valueobject.SourceScheduled {
		uc.notifier.BroadcastCaptureResult(result)
	}
	uc.notifier.BroadcastStatus(uc.status.Execute(ctx))
	if capture.ShouldAlert(threshold) {
		alert := dto.NewAlertDTO(capture)
		uc.notifier.BroadcastAlert(alert)
		uc.logger.Warn("Disease alert raised",
			"class", diagnosis.ClassName(), "confidence", diagnosis.Confidence(), "threshold", threshold)
	}

	// 6. Best-effort side channels: broker event, archive, index, telemetry.
	uc.publishSideEffects(ctx, capture, image, analysisTime)

	uc.logger.Info("Capture pipeline completed",
		"source", source.String(),
		"filename", stored.Filename,
		"class", diagnosis.ClassName(),
		"category", diagnosis.Category().String(),
		"severity", diagnosis.Severity().String())

	return result, nil
}

// publishSideEffects fans the capture out to the optional collaborators.
// Failures are logged and swallowed: none of them may fail the pipeline.
func (uc *RunCaptureUseCase) publishSideEffects(
	ctx context.Context,
	capture *entity.Capture,
	image []byte,
	analysisTime time.Duration,
) {
	d := capture.Diagnosis()

	if uc.events != nil {
		subject := fmt.Sprintf("captures.%s", capture.Source().FilePrefix())
		event := map[string]interface{}{
			"capture_id": capture.ID(),
			"source":     capture.Source().String(),
			"class_name": d.ClassName(),
			"category":   d.Category().String(),
			"severity":   d.Severity().String(),
			"confidence": d.Confidence(),
			"filename":   capture.Filename(),
			"timestamp":  capture.CapturedAt(),
		}
		if err := uc.events.PublishEvent(ctx, subject, event); err != nil {
			uc.logger.Warn("Failed to publish capture event", "error", err.Error())
		}
	}

	var archiveKey, archiveURL string
	if uc.archiver != nil {
		archiveKey = fmt.Sprintf("%s/%s", capture.Source().FilePrefix(), capture.Filename())
		url, err := uc.archiver.Archive(ctx, archiveKey, "image/jpeg", image)
		if err != nil {
			uc.logger.Warn("Failed to archive capture", "key", archiveKey, "error", err.Error())
			archiveKey = ""
		} else {
			archiveURL = url
		}
	}

	if uc.index != nil {
		record := port.CaptureRecord{
			CaptureID:  capture.ID(),
			Source:     capture.Source().String(),
			ClassName:  d.ClassName(),
			Category:   d.Category().String(),
			Severity:   d.Severity().String(),
			Confidence: d.Confidence(),
			Filename:   capture.Filename(),
			ArchiveKey: archiveKey,
			ArchiveURL: archiveURL,
			SizeBytes:  capture.ImageSize(),
			CapturedAt: capture.CapturedAt(),
		}
		if err := uc.index.Put(ctx, record); err != nil {
			uc.logger.Warn("Failed to index capture", "capture_id", capture.ID(), "error", err.Error())
		}
	}

	if uc.telemetry != nil {
		points := []port.TelemetryPoint{
			{
				Name:       "CaptureCount",
				Value:      1,
				Unit:       "count",
				Timestamp:  capture.CapturedAt(),
				Dimensions: map[string]string{"Source": capture.Source().String()},
			},
			{
				Name:      "AnalysisLatency",
				Value:     analysisTime.Seconds() * 1000,
				Unit:      "ms",
				Timestamp: capture.CapturedAt(),
			},
		}
		if err := uc.telemetry.PublishBatch(ctx, points); err != nil {
			uc.logger.Warn("Failed to publish capture telemetry", "error", err.Error())
		}
	}
}
