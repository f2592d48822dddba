package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/dreschagin/leafwatch/pkg/config"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

const filenameTimeLayout = "20060102_150405"

// ImageStore persists capture images into per-source directories on local
// disk. The directory listing is the catalog: no database involved.
// Implements port.ImageStore.
type ImageStore struct {
	dirs   map[valueobject.CaptureSource]string
	logger *logger.Logger
}

// NewImageStore creates the store and its directories.
func NewImageStore(cfg config.CaptureConfig, log *logger.Logger) (*ImageStore, error) {
	s := &ImageStore{
		dirs: map[valueobject.CaptureSource]string{
			valueobject.SourceUploaded:  cfg.UploadsDir,
			valueobject.SourceManual:    cfg.CapturesDir,
			valueobject.SourceScheduled: cfg.DailyCapturesDir,
		},
		logger: log,
	}

	for source, dir := range s.dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", source, err)
		}
	}

	return s, nil
}

// Save writes the image as {prefix}_{timestamp}.jpg into the source's
// directory.
func (s *ImageStore) Save(
	_ context.Context,
	source valueobject.CaptureSource,
	image []byte,
	takenAt time.Time,
) (port.StoredImage, error) {
	dir, ok := s.dirs[source]
	if !ok {
		return port.StoredImage{}, fmt.Errorf("unknown capture source: %s", source)
	}
	if len(image) == 0 {
		return port.StoredImage{}, fmt.Errorf("refusing to save an empty image")
	}

	filename := fmt.Sprintf("%s_%s.jpg", source.FilePrefix(), takenAt.Format(filenameTimeLayout))
	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, image, 0o644); err != nil {
		return port.StoredImage{}, fmt.Errorf("failed to write image: %w", err)
	}

	s.logger.Debug("Image saved", "path", path, "size", len(image))

	return port.StoredImage{
		Filename: filename,
		Path:     path,
		Size:     int64(len(image)),
		SavedAt:  takenAt,
	}, nil
}

// List returns the source's JPEG files, newest first. The embedded
// timestamp makes filenames sort chronologically.
func (s *ImageStore) List(
	_ context.Context,
	source valueobject.CaptureSource,
	limit int,
) ([]port.StoredImage, error) {
	dir, ok := s.dirs[source]
	if !ok {
		return nil, fmt.Errorf("unknown capture source: %s", source)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s directory: %w", source, err)
	}

	images := make([]port.StoredImage, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		images = append(images, port.StoredImage{
			Filename: entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			Size:     info.Size(),
			SavedAt:  parseFilenameTime(entry.Name(), info.ModTime()),
		})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Filename > images[j].Filename
	})

	if limit > 0 && len(images) > limit {
		images = images[:limit]
	}

	return images, nil
}

// Open returns a reader over one stored image. The filename is validated
// against path traversal before touching the disk.
func (s *ImageStore) Open(
	_ context.Context,
	source valueobject.CaptureSource,
	filename string,
) (io.ReadCloser, error) {
	dir, ok := s.dirs[source]
	if !ok {
		return nil, fmt.Errorf("unknown capture source: %s", source)
	}
	if filename != filepath.Base(filename) || filename == "." || filename == "" {
		return nil, fmt.Errorf("invalid filename: %q", filename)
	}

	f, err := os.Open(filepath.Join(dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return f, nil
}

// parseFilenameTime recovers the capture time from the filename, falling
// back to the file's mtime for foreign files.
func parseFilenameTime(filename string, fallback time.Time) time.Time {
	base := strings.TrimSuffix(filename, ".jpg")
	idx := strings.Index(base, "_")
	if idx < 0 || len(base) <= idx+1 {
		return fallback
	}
	t, err := time.ParseInLocation(filenameTimeLayout, base[idx+1:], time.Local)
	if err != nil {
		return fallback
	}
	return t
}
