package http

import (
	"io/fs"
	"net/http"

	"github.com/dreschagin/leafwatch/internal/interfaces/http/handler"
	"github.com/dreschagin/leafwatch/internal/interfaces/http/middleware"
	"github.com/dreschagin/leafwatch/pkg/config"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// Router настраивает маршруты приложения
type Router struct {
	mux                *http.ServeMux
	captureAPIHandler  *handler.CaptureAPIHandler
	statusAPIHandler   *handler.StatusAPIHandler
	settingsAPIHandler *handler.SettingsAPIHandler
	galleryHandler     *handler.GalleryHandler
	streamHandler      *handler.StreamHandler
	websocketHandler   *handler.WebSocketHandler
	security           config.SecurityConfig
	rateLimitPerMin    int
	logger             *logger.Logger
}

// NewRouter создает новый router
func NewRouter(
	captureAPIHandler *handler.CaptureAPIHandler,
	statusAPIHandler *handler.StatusAPIHandler,
	settingsAPIHandler *handler.SettingsAPIHandler,
	galleryHandler *handler.GalleryHandler,
	streamHandler *handler.StreamHandler,
	websocketHandler *handler.WebSocketHandler,
	security config.SecurityConfig,
	rateLimitPerMin int,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		captureAPIHandler:  captureAPIHandler,
		statusAPIHandler:   statusAPIHandler,
		settingsAPIHandler: settingsAPIHandler,
		galleryHandler:     galleryHandler,
		streamHandler:      streamHandler,
		websocketHandler:   websocketHandler,
		security:           security,
		rateLimitPerMin:    rateLimitPerMin,
		logger:             logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Static assets are embedded into the binary.
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("failed to initialize embedded static assets: " + err.Error())
	}
	rt.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Health endpoints are intentionally unauthenticated for probes.
	rt.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rt.mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}, rt.logger)

	// Capture endpoints get their own per-IP limiter: each hit drives the
	// camera and the inference sidecar.
	rps := float64(rt.rateLimitPerMin) / 60.0
	if rps <= 0 {
		rps = 0.5
	}
	captureLimiter := middleware.RateLimit(middleware.NewIPRateLimiter(rps, 5))

	// Dashboard page
	rt.mux.Handle("/", authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		f, err := http.FS(staticFiles).Open("static/index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()
		stat, err := f.Stat()
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, "index.html", stat.ModTime(), f)
	})))

	// Live camera and WebSocket feeds
	rt.mux.Handle("/video_feed", authMiddleware(http.HandlerFunc(rt.streamHandler.VideoFeed)))
	rt.mux.Handle("/ws", authMiddleware(http.HandlerFunc(rt.websocketHandler.HandleConnection)))

	// Image galleries
	rt.mux.Handle("/captures/", authMiddleware(http.HandlerFunc(rt.galleryHandler.ServeCapture)))
	rt.mux.Handle("/daily_captures/", authMiddleware(http.HandlerFunc(rt.galleryHandler.ServeDailyCapture)))
	rt.mux.Handle("/uploads/", authMiddleware(http.HandlerFunc(rt.galleryHandler.ServeUpload)))

	// Capture API
	rt.mux.Handle("/api/v1/capture", authMiddleware(captureLimiter(http.HandlerFunc(rt.captureAPIHandler.Capture))))
	rt.mux.Handle("/upload", authMiddleware(captureLimiter(http.HandlerFunc(rt.captureAPIHandler.Upload))))
	rt.mux.Handle("/api/v1/captures", authMiddleware(http.HandlerFunc(rt.captureAPIHandler.List)))
	rt.mux.Handle("/api/v1/captures/archive", authMiddleware(http.HandlerFunc(rt.captureAPIHandler.Archived)))

	// Status API
	rt.mux.Handle("/api/v1/status", authMiddleware(http.HandlerFunc(rt.statusAPIHandler.Status)))
	rt.mux.Handle("/api/v1/sensor", authMiddleware(http.HandlerFunc(rt.statusAPIHandler.Sensor)))
	rt.mux.Handle("/api/v1/readings/history", authMiddleware(http.HandlerFunc(rt.statusAPIHandler.ReadingHistory)))

	// Settings API
	rt.mux.Handle("/api/v1/threshold", authMiddleware(http.HandlerFunc(rt.settingsAPIHandler.Threshold)))
	rt.mux.Handle("/api/v1/daily", authMiddleware(http.HandlerFunc(rt.settingsAPIHandler.Daily)))
	rt.mux.Handle("/api/v1/daily/run", authMiddleware(captureLimiter(http.HandlerFunc(rt.settingsAPIHandler.DailyRun))))
	rt.mux.Handle("/api/v1/daily/last", authMiddleware(http.HandlerFunc(rt.settingsAPIHandler.DailyLast)))

	// Применяем middleware
	var h http.Handler = rt.mux
	h = middleware.Compression(h)
	h = middleware.Logger(rt.logger)(h)
	h = middleware.Recovery(rt.logger)(h)

	return h
}
