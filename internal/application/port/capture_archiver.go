package port

import "context"

// CaptureArchiver defines the interface for off-device archival of capture
// images (Port).
type CaptureArchiver interface {
	// Archive uploads an image and returns a URL for reading it back.
	Archive(ctx context.Context, key, contentType string, body []byte) (string, error)
}
