package port

import (
	"context"
	"io"
	"time"

	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

// StoredImage describes one image persisted on local disk.
type StoredImage struct {
	Filename string
	Path     string
	Size     int64
	SavedAt  time.Time
}

// ImageStore defines the interface for persisting capture images (Port).
// The implementation lives in the Infrastructure layer.
type ImageStore interface {
	// Save writes an image into the directory for the given source, using
	// the source's filename convention.
	Save(ctx context.Context, source valueobject.CaptureSource, image []byte, takenAt time.Time) (StoredImage, error)

	// List returns stored images for the source, newest first, up to limit.
	// A limit of zero means no cap.
	List(ctx context.Context, source valueobject.CaptureSource, limit int) ([]StoredImage, error)

	// Open returns a reader over a stored image for serving.
	Open(ctx context.Context, source valueobject.CaptureSource, filename string) (io.ReadCloser, error)
}
