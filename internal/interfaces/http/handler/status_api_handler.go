package handler

import (
	"net/http"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/usecase"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/dreschagin/leafwatch/internal/interfaces/http/middleware"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// StatusAPIHandler обрабатывает API запросы состояния устройства
type StatusAPIHandler struct {
	statusUC    *usecase.GetSystemStatusUseCase
	historyUC   *usecase.GetReadingHistoryUseCase
	maxDuration time.Duration
	logger      *logger.Logger
}

// NewStatusAPIHandler создает новый handler
func NewStatusAPIHandler(
	statusUC *usecase.GetSystemStatusUseCase,
	historyUC *usecase.GetReadingHistoryUseCase,
	maxDuration time.Duration,
	logger *logger.Logger,
) *StatusAPIHandler {
	if maxDuration <= 0 {
		maxDuration = 24 * time.Hour
	}

	return &StatusAPIHandler{
		statusUC:    statusUC,
		historyUC:   historyUC,
		maxDuration: maxDuration,
		logger:      logger,
	}
}

// Status возвращает полный снимок состояния устройства
func (h *StatusAPIHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.statusUC.Execute(r.Context()))
}

// Sensor возвращает последнее показание датчика
func (h *StatusAPIHandler) Sensor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := h.statusUC.Execute(r.Context())
	if status.Environment == nil {
		http.Error(w, "No sensor reading yet", http.StatusNotFound)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, status.Environment)
}

// ReadingHistory возвращает историю показаний за период
func (h *StatusAPIHandler) ReadingHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	durationStr := r.URL.Query().Get("duration")
	if durationStr == "" {
		durationStr = "1h"
	}

	// Парсим duration
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		http.Error(w, "Invalid duration format", http.StatusBadRequest)
		return
	}
	if duration <= 0 || duration > h.maxDuration {
		http.Error(w, "Duration out of allowed range", http.StatusBadRequest)
		return
	}

	timeRange, err := valueobject.NewTimeRangeFromDuration(duration)
	if err != nil {
		http.Error(w, "Invalid time range", http.StatusBadRequest)
		return
	}

	history, err := h.historyUC.Execute(r.Context(), timeRange)
	if err != nil {
		h.logger.Error("Failed to get reading history", err)
		http.Error(w, "Failed to fetch reading history", http.StatusServiceUnavailable)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, history)
}
