package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/dto"
	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/application/state"
	"github.com/dreschagin/leafwatch/internal/domain/service"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

type mockFrameSource struct {
	frame    []byte
	err      error
	grabbed  int
	lastGrab time.Time
}

func (m *mockFrameSource) Grab(_ context.Context) (port.Frame, error) {
	m.grabbed++
	if m.err != nil {
		return port.Frame{}, m.err
	}
	m.lastGrab = time.Now()
	return port.Frame{Data: m.frame, CapturedAt: m.lastGrab}, nil
}

func (m *mockFrameSource) Frames(_ context.Context) (<-chan port.Frame, error) {
	ch := make(chan port.Frame)
	close(ch)
	return ch, nil
}

func (m *mockFrameSource) Available() bool { return m.err == nil }
func (m *mockFrameSource) Close() error    { return nil }

type mockClassifier struct {
	result port.Classification
	err    error
	calls  int
}

func (m *mockClassifier) Classify(_ context.Context, _ []byte) (port.Classification, error) {
	m.calls++
	if m.err != nil {
		return port.Classification{}, m.err
	}
	return m.result, nil
}

type savedImage struct {
	source valueobject.CaptureSource
	data   []byte
}

type mockImageStore struct {
	saved []savedImage
	err   error
}

func (m *mockImageStore) Save(
	_ context.Context,
	source valueobject.CaptureSource,
	image []byte,
	takenAt time.Time,
) (port.StoredImage, error) {
	if m.err != nil {
		return port.StoredImage{}, m.err
	}
	m.saved = append(m.saved, savedImage{source: source, data: image})
	filename := fmt.Sprintf("%s_%s.jpg", source.FilePrefix(), takenAt.Format("20060102_150405"))
	return port.StoredImage{
		Filename: filename,
		Path:     "/data/" + filename,
		Size:     int64(len(image)),
		SavedAt:  takenAt,
	}, nil
}

func (m *mockImageStore) List(_ context.Context, _ valueobject.CaptureSource, _ int) ([]port.StoredImage, error) {
	return nil, nil
}

func (m *mockImageStore) Open(_ context.Context, _ valueobject.CaptureSource, _ string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

type mockNotifier struct {
	statuses      []*dto.StatusDTO
	results       []*dto.CaptureResultDTO
	dailyResults  []*dto.CaptureResultDTO
	alerts        []*dto.AlertDTO
	sensorUpdates []*dto.ReadingDTO
}

func (m *mockNotifier) BroadcastStatus(s *dto.StatusDTO)              { m.statuses = append(m.statuses, s) }
func (m *mockNotifier) BroadcastCaptureResult(r *dto.CaptureResultDTO) { m.results = append(m.results, r) }
func (m *mockNotifier) BroadcastDailyResult(r *dto.CaptureResultDTO) {
	m.dailyResults = append(m.dailyResults, r)
}
func (m *mockNotifier) BroadcastAlert(a *dto.AlertDTO) { m.alerts = append(m.alerts, a) }
func (m *mockNotifier) BroadcastSensorUpdate(r *dto.ReadingDTO) {
	m.sensorUpdates = append(m.sensorUpdates, r)
}
func (m *mockNotifier) ClientCount() int { return 0 }

type pipelineFixture struct {
	frames     *mockFrameSource
	classifier *mockClassifier
	store      *mockImageStore
	notifier   *mockNotifier
	state      *state.SystemState
	uc         *RunCaptureUseCase
}

func newPipelineFixture(threshold float64) *pipelineFixture {
	f := &pipelineFixture{
		frames:     &mockFrameSource{frame: []byte("jpeg-bytes")},
		classifier: &mockClassifier{result: port.Classification{ClassName: "Late_blight", Confidence: 0.85}},
		store:      &mockImageStore{},
		notifier:   &mockNotifier{},
		state:      state.New(threshold, false, 8),
	}

	log := logger.New("error")
	status := NewGetSystemStatusUseCase(f.state, service.NewEnvironmentEvaluator(), nil, f.notifier, log)
	f.uc = NewRunCaptureUseCase(
		f.frames, f.classifier, f.store,
		service.NewSeverityPolicy(), f.state, f.notifier,
		nil, nil, nil, nil, status, log,
	)
	return f
}

func TestRunCapture_Success(t *testing.T) {
	f := newPipelineFixture(0.6)

	result, err := f.uc.Execute(context.Background(), valueobject.SourceManual)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !result.Success {
		t.Fatal("expected successful result")
	}
	if result.Results == nil {
		t.Fatal("expected analysis results")
	}
	if result.Results.ClassName != "Late_blight" {
		t.Fatalf("unexpected class: %s", result.Results.ClassName)
	}
	if result.Results.Type != "disease" || result.Results.Severity != "high" {
		t.Fatalf("unexpected grading: %s/%s", result.Results.Type, result.Results.Severity)
	}
	if result.Results.ImageSize != int64(len("jpeg-bytes")) {
		t.Fatalf("unexpected image size: %d", result.Results.ImageSize)
	}

	if len(f.store.saved) != 1 {
		t.Fatalf("expected 1 saved image, got %d", len(f.store.saved))
	}
	if len(f.notifier.results) != 1 {
		t.Fatalf("expected 1 capture result broadcast, got %d", len(f.notifier.results))
	}
	if len(f.notifier.statuses) != 1 {
		t.Fatalf("expected 1 status broadcast, got %d", len(f.notifier.statuses))
	}
	if len(f.notifier.alerts) != 1 {
		t.Fatalf("expected 1 alert for confidence above threshold, got %d", len(f.notifier.alerts))
	}

	snap := f.state.Snapshot()
	if snap.LastDiagnosis == nil || !snap.LastDiagnosis.IsDisease() {
		t.Fatal("expected diagnosis recorded in state")
	}
	if !snap.CameraAvailable {
		t.Fatal("expected camera flagged available")
	}
}

func TestRunCapture_CameraUnavailableLeavesNoTrace(t *testing.T) {
	f := newPipelineFixture(0.6)
	f.frames.err = port.ErrCameraUnavailable

	result, err := f.uc.Execute(context.Background(), valueobject.SourceManual)
	if !errors.Is(err, port.ErrCameraUnavailable) {
		t.Fatalf("expected ErrCameraUnavailable, got %v", err)
	}
	if result == nil || result.Success {
		t.Fatal("expected failure envelope")
	}

	if len(f.store.saved) != 0 {
		t.Fatal("camera failure must not save an image")
	}
	if f.classifier.calls != 0 {
		t.Fatal("camera failure must not invoke the classifier")
	}
	if len(f.notifier.results) != 0 || len(f.notifier.alerts) != 0 {
		t.Fatal("camera failure must not broadcast results")
	}

	snap := f.state.Snapshot()
	if snap.LastDiagnosis != nil {
		t.Fatal("camera failure must not record a diagnosis")
	}
	if snap.CameraAvailable {
		t.Fatal("camera must be flagged unavailable")
	}
}

func TestRunCapture_ClassifierDownStillSavesImage(t *testing.T) {
	f := newPipelineFixture(0.6)
	f.classifier.err = port.ErrClassifierUnavailable

	result, err := f.uc.Execute(context.Background(), valueobject.SourceManual)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(f.store.saved) != 1 {
		t.Fatal("image must be saved even when analysis fails")
	}
	if result.Results == nil || result.Results.Type != "error" {
		t.Fatalf("expected failed analysis diagnosis, got %+v", result.Results)
	}
	if len(f.notifier.alerts) != 0 {
		t.Fatal("failed analysis must not raise an alert")
	}
}

func TestRunCapture_AlertThresholdStrict(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		threshold  float64
		wantAlert  bool
	}{
		{name: "above threshold", confidence: 0.61, threshold: 0.6, wantAlert: true},
		{name: "exactly threshold", confidence: 0.6, threshold: 0.6, wantAlert: false},
		{name: "below threshold", confidence: 0.5, threshold: 0.6, wantAlert: false},
		{name: "threshold zero", confidence: 0.01, threshold: 0, wantAlert: true},
		{name: "threshold one", confidence: 1, threshold: 1, wantAlert: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newPipelineFixture(tc.threshold)
			f.classifier.result = port.Classification{ClassName: "late_blight", Confidence: tc.confidence}

			if _, err := f.uc.Execute(context.Background(), valueobject.SourceManual); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			gotAlert := len(f.notifier.alerts) == 1
			if gotAlert != tc.wantAlert {
				t.Fatalf("confidence %.2f threshold %.2f: alert = %v, want %v",
					tc.confidence, tc.threshold, gotAlert, tc.wantAlert)
			}
		})
	}
}

func TestRunCapture_HealthyNeverAlerts(t *testing.T) {
	f := newPipelineFixture(0)
	f.classifier.result = port.Classification{ClassName: "healthy", Confidence: 0.99}

	if _, err := f.uc.Execute(context.Background(), valueobject.SourceManual); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(f.notifier.alerts) != 0 {
		t.Fatal("healthy diagnosis must never alert")
	}
}

func TestRunCapture_UploadSkipsCamera(t *testing.T) {
	f := newPipelineFixture(0.6)
	f.frames.err = port.ErrCameraUnavailable

	result, err := f.uc.ExecuteUpload(context.Background(), []byte("uploaded-jpeg"))
	if err != nil {
		t.Fatalf("ExecuteUpload() error = %v", err)
	}

	if f.frames.grabbed != 0 {
		t.Fatal("upload must not touch the camera")
	}
	if !result.Success {
		t.Fatal("expected successful result")
	}
	if result.Source != valueobject.SourceUploaded.String() {
		t.Fatalf("unexpected source: %s", result.Source)
	}
	if len(f.store.saved) != 1 || f.store.saved[0].source != valueobject.SourceUploaded {
		t.Fatal("upload must be saved under the upload source")
	}
}

func TestRunCapture_RejectsNonCameraSource(t *testing.T) {
	f := newPipelineFixture(0.6)

	if _, err := f.uc.Execute(context.Background(), valueobject.SourceUploaded); err == nil {
		t.Fatal("expected error for upload source on the camera path")
	}
}
