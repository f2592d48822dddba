package handler

import (
	"fmt"
	"net/http"

	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

const streamBoundary = "frame"

// StreamHandler ретранслирует живой поток камеры клиентам
type StreamHandler struct {
	frames port.FrameSource
	logger *logger.Logger
}

// NewStreamHandler создает новый handler
func NewStreamHandler(frames port.FrameSource, logger *logger.Logger) *StreamHandler {
	return &StreamHandler{
		frames: frames,
		logger: logger,
	}
}

// VideoFeed отдает MJPEG поток (multipart/x-mixed-replace)
func (h *StreamHandler) VideoFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	frames, err := h.frames.Frames(r.Context())
	if err != nil {
		http.Error(w, "Camera unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "close")

	h.logger.Debug("Video feed client connected", "remote_addr", r.RemoteAddr)

	for frame := range frames {
		if _, err := fmt.Fprintf(w,
			"--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n",
			streamBoundary, len(frame.Data)); err != nil {
			break
		}
		if _, err := w.Write(frame.Data); err != nil {
			break
		}
		if _, err := fmt.Fprint(w, "\r\n"); err != nil {
			break
		}
		flusher.Flush()
	}

	h.logger.Debug("Video feed client disconnected", "remote_addr", r.RemoteAddr)
}
