package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

// captureIDLayout is the timestamp format embedded into capture ids and
// filenames. Second precision is enough: the pipeline serializes camera
// access, so two captures can never share a second within one source.
const captureIDLayout = "20060102_150405"

// Capture is one complete pipeline run: the persisted image plus its
// diagnosis (Aggregate Root). Immutable once created.
type Capture struct {
	id         string
	source     valueobject.CaptureSource
	filename   string
	imagePath  string
	imageSize  int64
	diagnosis  valueobject.Diagnosis
	capturedAt time.Time
}

// NewCapture creates a capture with a timestamp-derived id (Factory Method).
func NewCapture(
	source valueobject.CaptureSource,
	filename, imagePath string,
	imageSize int64,
	diagnosis valueobject.Diagnosis,
	capturedAt time.Time,
) (*Capture, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, errors.New("capture filename cannot be empty")
	}
	if capturedAt.IsZero() {
		return nil, errors.New("captured_at cannot be zero")
	}

	return &Capture{
		id:         fmt.Sprintf("%s_%s", source.FilePrefix(), capturedAt.Format(captureIDLayout)),
		source:     source,
		filename:   filename,
		imagePath:  imagePath,
		imageSize:  imageSize,
		diagnosis:  diagnosis,
		capturedAt: capturedAt,
	}, nil
}

func (c *Capture) ID() string                          { return c.id }
func (c *Capture) Source() valueobject.CaptureSource   { return c.source }
func (c *Capture) Filename() string                    { return c.filename }
func (c *Capture) ImagePath() string                   { return c.imagePath }
func (c *Capture) ImageSize() int64                    { return c.imageSize }
func (c *Capture) Diagnosis() valueobject.Diagnosis    { return c.diagnosis }
func (c *Capture) CapturedAt() time.Time               { return c.capturedAt }

// Timestamp returns the id-style timestamp of the capture.
func (c *Capture) Timestamp() string {
	return c.capturedAt.Format(captureIDLayout)
}

// ShouldAlert reports whether this capture must fan out a disease alert:
// a disease diagnosis whose confidence is strictly above the threshold.
func (c *Capture) ShouldAlert(threshold float64) bool {
	return c.diagnosis.IsDisease() && c.diagnosis.ExceedsThreshold(threshold)
}

// Age returns how long ago the capture was taken.
func (c *Capture) Age() time.Duration {
	return time.Since(c.capturedAt)
}
