package dto

import (
	"fmt"
	"time"

	"github.com/dreschagin/leafwatch/internal/domain/entity"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

// DiagnosisDTO carries the analysis outcome for one capture.
type DiagnosisDTO struct {
	ClassName         string  `json:"class_name"`
	Confidence        float64 `json:"confidence"`
	ConfidencePercent string  `json:"confidence_percent"`
	Type              string  `json:"type"` // "healthy", "disease", "unknown", "error"
	Severity          string  `json:"severity"`
	Description       string  `json:"description"`
	Recommendation    string  `json:"recommendation"`
	Color             string  `json:"color"`
	Icon              string  `json:"icon"`
	AnalysisTime      string  `json:"analysis_time"`
	ImageSize         int64   `json:"image_size"`
	Source            string  `json:"source"`
}

// CaptureResultDTO is the envelope sent to clients after a capture run.
// Used both for HTTP responses and WebSocket pushes.
type CaptureResultDTO struct {
	Success   bool          `json:"success"`
	Filename  string        `json:"filename,omitempty"`
	Path      string        `json:"path,omitempty"`
	Results   *DiagnosisDTO `json:"results,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message,omitempty"`
	Source    string        `json:"source"`
}

// NewDiagnosisDTO converts a diagnosis into its wire form.
func NewDiagnosisDTO(d valueobject.Diagnosis) *DiagnosisDTO {
	return &DiagnosisDTO{
		ClassName:         d.ClassName(),
		Confidence:        d.Confidence(),
		ConfidencePercent: d.ConfidencePercent(),
		Type:              d.Category().String(),
		Severity:          d.Severity().String(),
		Description:       d.Description(),
		Recommendation:    d.Recommendation(),
		Color:             d.Color(),
		Icon:              d.Icon(),
	}
}

// NewCaptureResultDTO converts a capture into its wire form.
func NewCaptureResultDTO(capture *entity.Capture, analysisTime time.Duration) *CaptureResultDTO {
	results := NewDiagnosisDTO(capture.Diagnosis())
	results.AnalysisTime = fmt.Sprintf("%.2fs", analysisTime.Seconds())
	results.ImageSize = capture.ImageSize()
	results.Source = capture.Source().String()

	return &CaptureResultDTO{
		Success:   true,
		Filename:  capture.Filename(),
		Path:      capture.ImagePath(),
		Timestamp: capture.CapturedAt(),
		Source:    capture.Source().String(),
		Results:   results,
	}
}

// NewCaptureFailureDTO builds the envelope for a run that produced no image.
func NewCaptureFailureDTO(source, message string) *CaptureResultDTO {
	return &CaptureResultDTO{
		Success:   false,
		Timestamp: time.Now(),
		Message:   message,
		Source:    source,
	}
}

// AlertDTO is a disease alert pushed to clients.
type AlertDTO struct {
	Timestamp      time.Time `json:"timestamp"`
	ClassName      string    `json:"class_name"`
	Severity       string    `json:"severity"`
	Confidence     float64   `json:"confidence"`
	Filename       string    `json:"filename"`
	Source         string    `json:"source"`
	Message        string    `json:"message"`
	Recommendation string    `json:"recommendation"`
}

// NewAlertDTO builds an alert from a capture whose diagnosis crossed the
// alert threshold.
func NewAlertDTO(capture *entity.Capture) *AlertDTO {
	d := capture.Diagnosis()

	return &AlertDTO{
		Timestamp:      capture.CapturedAt(),
		ClassName:      d.ClassName(),
		Severity:       d.Severity().String(),
		Confidence:     d.Confidence(),
		Filename:       capture.Filename(),
		Source:         capture.Source().String(),
		Message:        fmt.Sprintf("Disease detected: %s (%s)", d.ClassName(), d.ConfidencePercent()),
		Recommendation: d.Recommendation(),
	}
}
