package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/application/usecase"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/dreschagin/leafwatch/internal/interfaces/http/middleware"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// CaptureAPIHandler обрабатывает API запросы съемки и загрузки изображений
type CaptureAPIHandler struct {
	captureUC      *usecase.RunCaptureUseCase
	listUC         *usecase.ListCapturesUseCase
	maxUploadBytes int64
	listLimit      int
	logger         *logger.Logger
}

// NewCaptureAPIHandler создает новый handler
func NewCaptureAPIHandler(
	captureUC *usecase.RunCaptureUseCase,
	listUC *usecase.ListCapturesUseCase,
	maxUploadBytes int64,
	listLimit int,
	logger *logger.Logger,
) *CaptureAPIHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 16 << 20
	}
	if listLimit <= 0 {
		listLimit = 10
	}

	return &CaptureAPIHandler{
		captureUC:      captureUC,
		listUC:         listUC,
		maxUploadBytes: maxUploadBytes,
		listLimit:      listLimit,
		logger:         logger,
	}
}

// Capture запускает съемку с камеры и анализ
func (h *CaptureAPIHandler) Capture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := h.captureUC.Execute(r.Context(), valueobject.SourceManual)
	if err != nil {
		if errors.Is(err, port.ErrCameraUnavailable) {
			middleware.WriteJSON(w, http.StatusServiceUnavailable, result)
			return
		}
		h.logger.Error("Manual capture failed", err)
		middleware.WriteJSON(w, http.StatusInternalServerError, result)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// Upload принимает изображение из формы и прогоняет его через анализ
func (h *CaptureAPIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, "File too large or malformed form", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if !allowedUploadFilename(header.Filename) {
		http.Error(w, "Unsupported file type, expected jpg/jpeg/png", http.StatusBadRequest)
		return
	}

	image, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", err)
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}
	if len(image) == 0 {
		http.Error(w, "Empty file", http.StatusBadRequest)
		return
	}

	result, err := h.captureUC.ExecuteUpload(r.Context(), image)
	if err != nil {
		h.logger.Error("Upload analysis failed", err, "filename", header.Filename)
		middleware.WriteJSON(w, http.StatusInternalServerError, result)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// List возвращает галерею снимков одного источника
func (h *CaptureAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	source := valueobject.CaptureSource(r.URL.Query().Get("source"))
	if source == "" {
		source = valueobject.SourceManual
	}

	limit := h.listLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	listing, err := h.listUC.Execute(r.Context(), source, limit)
	if err != nil {
		if source.Validate() != nil {
			http.Error(w, "Invalid source", http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to list captures", err, "source", source.String())
		http.Error(w, "Failed to list captures", http.StatusInternalServerError)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, listing)
}

// Archived возвращает страницу проиндексированных снимков из DynamoDB
func (h *CaptureAPIHandler) Archived(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := port.CaptureListQuery{
		Source: r.URL.Query().Get("source"),
		Cursor: r.URL.Query().Get("cursor"),
	}
	if query.Source == "" {
		query.Source = valueobject.SourceManual.String()
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		query.Limit = parsed
	}

	page, err := h.listUC.ExecuteArchived(r.Context(), query)
	if err != nil {
		if strings.Contains(err.Error(), "invalid") {
			http.Error(w, "Invalid query", http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to list archived captures", err, "source", query.Source)
		http.Error(w, "Failed to list archived captures", http.StatusInternalServerError)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, page)
}

// allowedUploadFilename проверяет расширение загружаемого файла
func allowedUploadFilename(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}
