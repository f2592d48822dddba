package local

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/dreschagin/leafwatch/pkg/config"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

func newTestStore(t *testing.T) *ImageStore {
	t.Helper()

	dir := t.TempDir()
	store, err := NewImageStore(config.CaptureConfig{
		UploadsDir:       filepath.Join(dir, "uploads"),
		CapturesDir:      filepath.Join(dir, "captures"),
		DailyCapturesDir: filepath.Join(dir, "daily_captures"),
	}, logger.New("error"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestImageStore_SaveFilenameConvention(t *testing.T) {
	store := newTestStore(t)
	takenAt := time.Date(2026, 4, 10, 8, 15, 30, 0, time.Local)

	tests := []struct {
		source valueobject.CaptureSource
		want   string
	}{
		{source: valueobject.SourceManual, want: "manual_20260410_081530.jpg"},
		{source: valueobject.SourceScheduled, want: "daily_20260410_081530.jpg"},
		{source: valueobject.SourceUploaded, want: "upload_20260410_081530.jpg"},
	}

	for _, tc := range tests {
		t.Run(string(tc.source), func(t *testing.T) {
			stored, err := store.Save(context.Background(), tc.source, []byte("jpeg-data"), takenAt)
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if stored.Filename != tc.want {
				t.Fatalf("expected filename %s, got %s", tc.want, stored.Filename)
			}
			if stored.Size != int64(len("jpeg-data")) {
				t.Fatalf("unexpected size: %d", stored.Size)
			}
		})
	}
}

func TestImageStore_RejectsEmptyImage(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save(context.Background(), valueobject.SourceManual, nil, time.Now()); err == nil {
		t.Fatal("expected error for empty image")
	}
}

func TestImageStore_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	times := []time.Time{
		time.Date(2026, 4, 8, 8, 0, 0, 0, time.Local),
		time.Date(2026, 4, 10, 8, 0, 0, 0, time.Local),
		time.Date(2026, 4, 9, 8, 0, 0, 0, time.Local),
	}
	for _, takenAt := range times {
		if _, err := store.Save(ctx, valueobject.SourceScheduled, []byte("x"), takenAt); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	images, err := store.List(ctx, valueobject.SourceScheduled, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}

	want := []string{
		"daily_20260410_080000.jpg",
		"daily_20260409_080000.jpg",
		"daily_20260408_080000.jpg",
	}
	for i, image := range images {
		if image.Filename != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], image.Filename)
		}
	}
	if !images[0].SavedAt.Equal(times[1]) {
		t.Fatalf("expected capture time recovered from filename, got %s", images[0].SavedAt)
	}

	// Sources do not leak into each other.
	manual, err := store.List(ctx, valueobject.SourceManual, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(manual) != 0 {
		t.Fatalf("expected empty manual listing, got %d", len(manual))
	}
}

func TestImageStore_ListLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		takenAt := time.Date(2026, 4, day, 8, 0, 0, 0, time.Local)
		if _, err := store.Save(ctx, valueobject.SourceManual, []byte("x"), takenAt); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	images, err := store.List(ctx, valueobject.SourceManual, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	if images[0].Filename != "manual_20260405_080000.jpg" {
		t.Fatalf("expected newest first, got %s", images[0].Filename)
	}
}

func TestImageStore_OpenRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stored, err := store.Save(ctx, valueobject.SourceUploaded, []byte("payload"), time.Now())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	r, err := store.Open(ctx, valueobject.SourceUploaded, stored.Filename)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestImageStore_OpenRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"../escape.jpg", "a/b.jpg", "", "."} {
		if _, err := store.Open(context.Background(), valueobject.SourceUploaded, name); err == nil {
			t.Fatalf("expected rejection for %q", name)
		}
	}
}
