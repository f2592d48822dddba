package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// GalleryHandler отдает сохраненные изображения по HTTP
type GalleryHandler struct {
	store  port.ImageStore
	logger *logger.Logger
}

// NewGalleryHandler создает новый handler
func NewGalleryHandler(store port.ImageStore, logger *logger.Logger) *GalleryHandler {
	return &GalleryHandler{
		store:  store,
		logger: logger,
	}
}

// ServeCapture отдает файл из каталога ручных снимков
func (h *GalleryHandler) ServeCapture(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, valueobject.SourceManual, "/captures/")
}

// ServeDailyCapture отдает файл из каталога ежедневных снимков
func (h *GalleryHandler) ServeDailyCapture(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, valueobject.SourceScheduled, "/daily_captures/")
}

// ServeUpload отдает файл из каталога загрузок
func (h *GalleryHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, valueobject.SourceUploaded, "/uploads/")
}

func (h *GalleryHandler) serve(
	w http.ResponseWriter,
	r *http.Request,
	source valueobject.CaptureSource,
	prefix string,
) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filename := strings.TrimPrefix(r.URL.Path, prefix)
	if filename == "" || strings.Contains(filename, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	file, err := h.store.Open(r.Context(), source, filename)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	defer func() { _ = file.Close() }()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, file); err != nil {
		h.logger.Debug("Image transfer interrupted", "filename", filename, "error", err.Error())
	}
}
