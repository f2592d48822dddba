package usecase

import (
	"context"
	"fmt"

	"github.com/dreschagin/leafwatch/internal/application/dto"
	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/domain/repository"
	"github.com/dreschagin/leafwatch/internal/domain/service"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// GetReadingHistoryUseCase returns persisted environment readings with
// aggregates, cache-aside over Redis when a cache is configured.
type GetReadingHistoryUseCase struct {
	repository repository.ReadingRepository
	evaluator  *service.EnvironmentEvaluator
	cache      port.Cache
	logger     *logger.Logger
}

// NewGetReadingHistoryUseCase creates the history use case.
func NewGetReadingHistoryUseCase(
	readingRepo repository.ReadingRepository,
	evaluator *service.EnvironmentEvaluator,
	cache port.Cache,
	logger *logger.Logger,
) *GetReadingHistoryUseCase {
	return &GetReadingHistoryUseCase{
		repository: readingRepo,
		evaluator:  evaluator,
		cache:      cache,
		logger:     logger,
	}
}

// Execute returns the reading history for a time range.
func (uc *GetReadingHistoryUseCase) Execute(
	ctx context.Context,
	timeRange valueobject.TimeRange,
) (*dto.ReadingHistoryDTO, error) {
	if uc.repository == nil {
		return nil, fmt.Errorf("reading history requires a configured database")
	}

	if uc.cache == nil {
		return uc.executeWithoutCache(ctx, timeRange)
	}

	duration := timeRange.End().Sub(timeRange.Start()).String()
	cacheKey := fmt.Sprintf("readings:history:%s", duration)

	var cached *dto.ReadingHistoryDTO
	if err := uc.cache.Get(ctx, cacheKey, &cached); err == nil {
		uc.logger.Debug("Cache hit for reading history", "count", len(cached.Readings))
		return cached, nil
	}

	uc.logger.Debug("Cache miss for reading history, fetching from DB")

	history, err := uc.executeWithoutCache(ctx, timeRange)
	if err != nil {
		return nil, err
	}

	// Cache asynchronously so the response is not blocked.
	go func() {
		if err := uc.cache.Set(context.Background(), cacheKey, history); err != nil {
			uc.logger.Warn("Failed to cache reading history", "error", err.Error())
		}
	}()

	return history, nil
}

func (uc *GetReadingHistoryUseCase) executeWithoutCache(
	ctx context.Context,
	timeRange valueobject.TimeRange,
) (*dto.ReadingHistoryDTO, error) {
	readings, err := uc.repository.FindByTimeRange(ctx, timeRange)
	if err != nil {
		uc.logger.Error("Failed to fetch reading history", err)
		return nil, fmt.Errorf("failed to fetch reading history: %w", err)
	}

	if len(readings) == 0 {
		return &dto.ReadingHistoryDTO{Readings: []*dto.ReadingDTO{}}, nil
	}

	avgTemp, _ := uc.evaluator.AverageTemperature(readings)
	avgHum, _ := uc.evaluator.AverageHumidity(readings)
	minTemp, maxTemp, _ := uc.evaluator.TemperatureRange(readings)
	warnings := uc.evaluator.FindWarnings(readings)

	out := &dto.ReadingHistoryDTO{
		Readings:           make([]*dto.ReadingDTO, 0, len(readings)),
		AverageTemperature: avgTemp,
		AverageHumidity:    avgHum,
		MinTemperature:     minTemp,
		MaxTemperature:     maxTemp,
		WarningCount:       len(warnings),
	}
	for _, r := range readings {
		status := string(uc.evaluator.Evaluate(r))
		out.Readings = append(out.Readings, dto.ReadingDTOFromEntity(r, status))
	}

	return out, nil
}
