package port

import (
	"context"

	"github.com/dreschagin/leafwatch/internal/application/dto"
)

// CaptureRecord holds the metadata indexed for one archived capture.
type CaptureRecord = dto.CaptureRecord

// CaptureListQuery defines the parameters for listing indexed captures.
type CaptureListQuery = dto.CaptureListQuery

// CaptureListPage holds one page of results and the cursor to the next.
type CaptureListPage = dto.CaptureListPage

// CaptureIndex defines the interface for the capture metadata index (Port).
type CaptureIndex interface {
	// Put upserts one capture record.
	Put(ctx context.Context, record CaptureRecord) error

	// ListBySource returns indexed captures for a source, newest first.
	ListBySource(ctx context.Context, query CaptureListQuery) (CaptureListPage, error)
}
