package valueobject

import "errors"

// CaptureSource identifies which trigger produced a pipeline run (Value Object).
type CaptureSource string

const (
	SourceManual    CaptureSource = "manual_capture"
	SourceScheduled CaptureSource = "daily_capture"
	SourceUploaded  CaptureSource = "upload"
)

// Validate checks that the source is one of the known triggers.
func (s CaptureSource) Validate() error {
	switch s {
	case SourceManual, SourceScheduled, SourceUploaded:
		return nil
	default:
		return errors.New("invalid capture source")
	}
}

// String returns the wire representation of the source.
func (s CaptureSource) String() string {
	return string(s)
}

// FilePrefix returns the filename tag for images captured from this source.
func (s CaptureSource) FilePrefix() string {
	switch s {
	case SourceScheduled:
		return "daily"
	case SourceUploaded:
		return "upload"
	default:
		return "manual"
	}
}

// UsesCamera reports whether the pipeline must pull a frame from the camera
// for this source. Uploaded images arrive with the request.
func (s CaptureSource) UsesCamera() bool {
	return s == SourceManual || s == SourceScheduled
}

// AllCaptureSources returns every valid trigger source.
func AllCaptureSources() []CaptureSource {
	return []CaptureSource{SourceManual, SourceScheduled, SourceUploaded}
}
