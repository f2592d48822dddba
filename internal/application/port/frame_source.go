package port

import (
	"context"
	"errors"
	"time"
)

// ErrCameraUnavailable is returned when no frame can be produced because the
// camera stream is down or has gone stale.
var ErrCameraUnavailable = errors.New("camera unavailable")

// Frame is one JPEG frame taken from the camera stream.
type Frame struct {
	Data       []byte
	CapturedAt time.Time
}

// FrameSource defines the interface for acquiring camera frames (Port).
// The implementation lives in the Infrastructure layer.
type FrameSource interface {
	// Grab returns the freshest frame. Returns ErrCameraUnavailable when
	// the stream is down or the last frame is too old to trust.
	Grab(ctx context.Context) (Frame, error)

	// Frames subscribes to the live stream. The channel closes when ctx
	// is cancelled or the source shuts down.
	Frames(ctx context.Context) (<-chan Frame, error)

	// Available reports whether the stream currently delivers frames.
	Available() bool

	// Close stops the stream reader.
	Close() error
}
