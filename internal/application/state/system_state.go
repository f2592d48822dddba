package state

import (
	"errors"
	"sync"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/dto"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

// ErrInvalidThreshold is returned when an alert threshold update falls
// outside [0,1]. The stored value is left untouched.
var ErrInvalidThreshold = errors.New("alert threshold must be within [0,1]")

const scheduleDateLayout = "2006-01-02"

// Snapshot is a point-in-time copy of the system state. Safe to serialize
// and hand out: it shares nothing with the live state.
type Snapshot struct {
	LastDiagnosis    *valueobject.Diagnosis
	DiseaseDetected  bool
	LastCaptureAt    time.Time
	LastReading      valueobject.Reading
	SensorAvailable  bool
	CameraAvailable  bool
	AlertThreshold   float64
	DailyEnabled     bool
	DailyHour        int
	LastDailyDate    string // YYYY-MM-DD, empty until the first run
	NextDailyRunAt   time.Time
	LastDailyResult  *dto.CaptureResultDTO
	StartedAt        time.Time
}

// SystemState is the process-wide mutable state of the appliance. All access
// goes through one mutex; callers get copies, never live references.
// Volatile: nothing here survives a restart.
type SystemState struct {
	mu sync.Mutex

	lastDiagnosis   *valueobject.Diagnosis
	diseaseDetected bool
	lastCaptureAt   time.Time

	lastReading     valueobject.Reading
	sensorAvailable bool
	cameraAvailable bool

	alertThreshold float64

	dailyEnabled    bool
	dailyHour       int
	lastDailyDate   string
	nextDailyRunAt  time.Time
	lastDailyResult *dto.CaptureResultDTO

	startedAt time.Time
	now       func() time.Time
}

// New creates the system state with its initial settings.
func New(alertThreshold float64, dailyEnabled bool, dailyHour int) *SystemState {
	s := &SystemState{
		alertThreshold: alertThreshold,
		dailyEnabled:   dailyEnabled,
		dailyHour:      dailyHour,
		startedAt:      time.Now(),
		now:            time.Now,
	}
	if dailyEnabled {
		s.nextDailyRunAt = s.nextRunAfter(s.now())
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *SystemState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		DiseaseDetected: s.diseaseDetected,
		LastCaptureAt:   s.lastCaptureAt,
		LastReading:     s.lastReading,
		SensorAvailable: s.sensorAvailable,
		CameraAvailable: s.cameraAvailable,
		AlertThreshold:  s.alertThreshold,
		DailyEnabled:    s.dailyEnabled,
		DailyHour:       s.dailyHour,
		LastDailyDate:   s.lastDailyDate,
		NextDailyRunAt:  s.nextDailyRunAt,
		StartedAt:       s.startedAt,
	}

	if s.lastDiagnosis != nil {
		d := *s.lastDiagnosis
		snap.LastDiagnosis = &d
	}
	if s.lastDailyResult != nil {
		r := *s.lastDailyResult
		if s.lastDailyResult.Results != nil {
			res := *s.lastDailyResult.Results
			r.Results = &res
		}
		snap.LastDailyResult = &r
	}

	return snap
}

// AlertThreshold returns the current alert threshold.
func (s *SystemState) AlertThreshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alertThreshold
}

// UpdateThreshold replaces the alert threshold. Values outside [0,1] are
// rejected without touching the stored value.
func (s *SystemState) UpdateThreshold(v float64) error {
	if v < 0 || v > 1 {
		return ErrInvalidThreshold
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertThreshold = v
	return nil
}

// SetDailyCapture toggles the scheduled capture. Enabling recomputes the
// next run time, disabling clears it.
func (s *SystemState) SetDailyCapture(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dailyEnabled = enabled
	if enabled {
		s.nextDailyRunAt = s.nextRunAfter(s.now())
	} else {
		s.nextDailyRunAt = time.Time{}
	}
}

// DailyCaptureEnabled reports whether the scheduled capture is on.
func (s *SystemState) DailyCaptureEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dailyEnabled
}

// DailyCaptureDue reports whether a scheduled capture should run now: the
// feature is on, the hour has arrived and today's run has not happened yet.
func (s *SystemState) DailyCaptureDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dailyEnabled {
		return false
	}

	now := s.now()
	if now.Hour() < s.dailyHour {
		return false
	}
	return s.lastDailyDate != now.Format(scheduleDateLayout)
}

// MarkDailyCaptureDone records a successful scheduled run for today and
// moves the next run to tomorrow. The date only ever advances.
func (s *SystemState) MarkDailyCaptureDone() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.lastDailyDate = now.Format(scheduleDateLayout)
	s.nextDailyRunAt = time.Date(
		now.Year(), now.Month(), now.Day(),
		s.dailyHour, 0, 0, 0, now.Location(),
	).AddDate(0, 0, 1)
}

// SetDailyResult retains the outcome of the latest scheduled run, success
// or failure, for the HTTP surface.
func (s *SystemState) SetDailyResult(result *dto.CaptureResultDTO) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDailyResult = result
}

// ApplyDiagnosis records the outcome of a capture run.
func (s *SystemState) ApplyDiagnosis(d valueobject.Diagnosis, capturedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastDiagnosis = &d
	s.diseaseDetected = d.IsDisease()
	s.lastCaptureAt = capturedAt
}

// ApplyReading records a fresh sensor reading.
func (s *SystemState) ApplyReading(r valueobject.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastReading = r
	s.sensorAvailable = true
}

// MarkSensorFailed flags the sensor as down. The last reading is kept so
// clients still see the last-known values.
func (s *SystemState) MarkSensorFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensorAvailable = false
}

// LastReading returns the last-known sensor values and whether the sensor
// is currently healthy.
func (s *SystemState) LastReading() (valueobject.Reading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReading, s.sensorAvailable
}

// SetCameraAvailable records the camera stream health.
func (s *SystemState) SetCameraAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameraAvailable = available
}

// nextRunAfter computes the next scheduled run strictly after t. Callers
// hold the mutex.
func (s *SystemState) nextRunAfter(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), s.dailyHour, 0, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
