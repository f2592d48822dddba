package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dreschagin/leafwatch/internal/application/state"
	"github.com/dreschagin/leafwatch/internal/application/usecase"
	"github.com/dreschagin/leafwatch/internal/interfaces/http/middleware"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// SettingsAPIHandler обрабатывает API запросы настроек и управления
// ежедневной съемкой
type SettingsAPIHandler struct {
	settingsUC  *usecase.UpdateSettingsUseCase
	statusUC    *usecase.GetSystemStatusUseCase
	schedulerUC *usecase.DailySchedulerUseCase
	logger      *logger.Logger
}

// NewSettingsAPIHandler создает новый handler
func NewSettingsAPIHandler(
	settingsUC *usecase.UpdateSettingsUseCase,
	statusUC *usecase.GetSystemStatusUseCase,
	schedulerUC *usecase.DailySchedulerUseCase,
	logger *logger.Logger,
) *SettingsAPIHandler {
	return &SettingsAPIHandler{
		settingsUC:  settingsUC,
		statusUC:    statusUC,
		schedulerUC: schedulerUC,
		logger:      logger,
	}
}

type thresholdRequest struct {
	Threshold float64 `json:"threshold"`
}

type dailyToggleRequest struct {
	Enabled bool `json:"enabled"`
}

// Threshold возвращает или меняет порог алертов
func (h *SettingsAPIHandler) Threshold(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		status := h.statusUC.Execute(r.Context())
		middleware.WriteJSON(w, http.StatusOK, thresholdRequest{Threshold: status.AlertThreshold})

	case http.MethodPost:
		var req thresholdRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}

		if err := h.settingsUC.SetThreshold(r.Context(), req.Threshold); err != nil {
			if errors.Is(err, state.ErrInvalidThreshold) {
				middleware.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
					"success": false,
					"error":   "invalid_threshold",
					"message": "threshold must be within [0,1]",
				})
				return
			}
			h.logger.Error("Failed to update threshold", err)
			http.Error(w, "Failed to update threshold", http.StatusInternalServerError)
			return
		}

		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"threshold": req.Threshold,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Daily возвращает информацию о ежедневной съемке или включает/выключает ее
func (h *SettingsAPIHandler) Daily(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		status := h.statusUC.Execute(r.Context())
		middleware.WriteJSON(w, http.StatusOK, status.DailyCapture)

	case http.MethodPost:
		var req dailyToggleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}

		h.settingsUC.SetDailyCapture(r.Context(), req.Enabled)

		status := h.statusUC.Execute(r.Context())
		middleware.WriteJSON(w, http.StatusOK, status.DailyCapture)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// DailyRun принудительно запускает ежедневную съемку
func (h *SettingsAPIHandler) DailyRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := h.schedulerUC.RunNow(r.Context())
	if result == nil {
		http.Error(w, "Daily capture did not produce a result", http.StatusInternalServerError)
		return
	}
	if !result.Success {
		middleware.WriteJSON(w, http.StatusServiceUnavailable, result)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// DailyLast возвращает результат последней ежедневной съемки
func (h *SettingsAPIHandler) DailyLast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := h.statusUC.Execute(r.Context())
	if status.DailyCapture == nil || status.DailyCapture.LastResult == nil {
		http.Error(w, "No daily capture yet", http.StatusNotFound)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, status.DailyCapture.LastResult)
}
