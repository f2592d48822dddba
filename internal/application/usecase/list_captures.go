package usecase

import (
	"context"
	"fmt"

	"github.com/dreschagin/leafwatch/internal/application/dto"
	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// ListCapturesUseCase serves the gallery listings: local images per source,
// and the archived metadata index when one is configured.
type ListCapturesUseCase struct {
	store  port.ImageStore
	index  port.CaptureIndex
	logger *logger.Logger
}

// NewListCapturesUseCase creates the listing use case. The index is
// optional: pass nil when no archive backend is configured.
func NewListCapturesUseCase(store port.ImageStore, index port.CaptureIndex, logger *logger.Logger) *ListCapturesUseCase {
	return &ListCapturesUseCase{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// Execute lists local images for one source, newest first.
func (uc *ListCapturesUseCase) Execute(
	ctx context.Context,
	source valueobject.CaptureSource,
	limit int,
) (*dto.CaptureListDTO, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}

	images, err := uc.store.List(ctx, source, limit)
	if err != nil {
		uc.logger.Error("Failed to list captures", err, "source", source.String())
		return nil, fmt.Errorf("failed to list captures: %w", err)
	}

	out := &dto.CaptureListDTO{
		Source: source.String(),
		Count:  len(images),
		Items:  make([]*dto.CaptureFileDTO, 0, len(images)),
	}
	for _, img := range images {
		out.Items = append(out.Items, &dto.CaptureFileDTO{
			Filename:  img.Filename,
			Path:      img.Path,
			SizeBytes: img.Size,
			CreatedAt: img.SavedAt,
		})
	}

	return out, nil
}

// ExecuteArchived lists indexed captures with their analysis metadata.
func (uc *ListCapturesUseCase) ExecuteArchived(
	ctx context.Context,
	query port.CaptureListQuery,
) (*dto.ArchivedCaptureListDTO, error) {
	if uc.index == nil {
		return &dto.ArchivedCaptureListDTO{Items: []*dto.ArchivedCaptureDTO{}}, nil
	}

	page, err := uc.index.ListBySource(ctx, query)
	if err != nil {
		uc.logger.Error("Failed to list archived captures", err, "source", query.Source)
		return nil, fmt.Errorf("failed to list archived captures: %w", err)
	}

	return dto.NewArchivedCaptureListDTO(page), nil
}
