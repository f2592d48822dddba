package dto

import (
	"time"
)

// CaptureRecord holds the metadata indexed for one archived capture.
type CaptureRecord struct {
	CaptureID  string
	Source     string
	ClassName  string
	Category   string
	Severity   string
	Confidence float64
	Filename   string
	ArchiveKey string
	ArchiveURL string
	SizeBytes  int64
	CapturedAt time.Time
}

// CaptureListQuery defines the parameters for listing indexed captures.
type CaptureListQuery struct {
	Source string
	Limit  int
	Cursor string
	From   time.Time
	To     time.Time
}

// CaptureListPage holds one page of results and the cursor to the next.
type CaptureListPage struct {
	Items      []CaptureRecord
	NextCursor string
}

// CaptureFileDTO describes one stored image in a gallery listing.
type CaptureFileDTO struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// CaptureListDTO is a gallery listing for one source.
type CaptureListDTO struct {
	Source string            `json:"source"`
	Count  int               `json:"count"`
	Items  []*CaptureFileDTO `json:"items"`
}

// ArchivedCaptureDTO describes one indexed capture with its analysis
// metadata.
type ArchivedCaptureDTO struct {
	CaptureID  string    `json:"capture_id"`
	Source     string    `json:"source"`
	ClassName  string    `json:"class_name"`
	Category   string    `json:"category"`
	Severity   string    `json:"severity"`
	Confidence float64   `json:"confidence"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url,omitempty"`
	SizeBytes  int64     `json:"size_bytes"`
	CapturedAt time.Time `json:"captured_at"`
}

// ArchivedCaptureListDTO is one page of indexed captures.
type ArchivedCaptureListDTO struct {
	Items      []*ArchivedCaptureDTO `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// NewArchivedCaptureListDTO converts an index page into its wire form.
func NewArchivedCaptureListDTO(page CaptureListPage) *ArchivedCaptureListDTO {
	out := &ArchivedCaptureListDTO{
		Items:      make([]*ArchivedCaptureDTO, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for _, item := range page.Items {
		out.Items = append(out.Items, &ArchivedCaptureDTO{
			CaptureID:  item.CaptureID,
			Source:     item.Source,
			ClassName:  item.ClassName,
			Category:   item.Category,
			Severity:   item.Severity,
			Confidence: item.Confidence,
			Filename:   item.Filename,
			URL:        item.ArchiveURL,
			SizeBytes:  item.SizeBytes,
			CapturedAt: item.CapturedAt,
		})
	}
	return out
}
