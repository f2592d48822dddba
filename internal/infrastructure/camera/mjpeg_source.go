package camera

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/pkg/config"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// maxFrameBytes caps a single JPEG part. Anything larger is a corrupt
// stream, not a frame.
const maxFrameBytes = 8 << 20

// MJPEGSource reads an MJPEG-over-HTTP camera stream in the background and
// keeps the freshest JPEG behind a lock. Implements port.FrameSource.
type MJPEGSource struct {
	cfg    config.CameraConfig
	client *http.Client
	logger *logger.Logger

	mu        sync.RWMutex
	latest    port.Frame
	connected bool

	subsMu sync.Mutex
	subs   map[chan port.Frame]struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

// NewMJPEGSource creates the source. Call Run from a goroutine to start the
// stream reader.
func NewMJPEGSource(cfg config.CameraConfig, log *logger.Logger) *MJPEGSource {
	return &MJPEGSource{
		cfg: cfg,
		client: &http.Client{
			// No overall timeout: the stream response never ends.
			Transport: &http.Transport{
				ResponseHeaderTimeout: cfg.DialTimeout,
			},
		},
		logger: log,
		subs:   make(map[chan port.Frame]struct{}),
		closed: make(chan struct{}),
	}
}

// Run reads the camera stream until ctx is cancelled, reconnecting with
// backoff after stream errors.
func (s *MJPEGSource) Run(ctx context.Context) {
	backoff := s.cfg.ReconnectMin

	s.logger.Info("Camera stream reader started", "url", s.cfg.StreamURL)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		default:
		}

		err := s.readStream(ctx)
		s.setConnected(false)
		if ctx.Err() != nil {
			return
		}

		s.logger.Warn("Camera stream interrupted, reconnecting",
			"error", err.Error(), "backoff", backoff.String())

		select {
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > s.cfg.ReconnectMax {
			backoff = s.cfg.ReconnectMax
		}
	}
}

// readStream consumes one stream connection until it breaks.
func (s *MJPEGSource) readStream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.StreamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build stream request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to camera stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("camera stream returned status %d", resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return fmt.Errorf("camera stream is not multipart: %q", resp.Header.Get("Content-Type"))
	}
	boundary := params["boundary"]
	if boundary == "" {
		return fmt.Errorf("camera stream has no multipart boundary")
	}

	s.logger.Info("Camera stream connected")

	reader := multipart.NewReader(resp.Body, boundary)
	for {
		part, err := reader.NextPart()
		if err != nil {
			return fmt.Errorf("camera stream ended: %w", err)
		}

		data, err := io.ReadAll(io.LimitReader(part, maxFrameBytes))
		part.Close()
		if err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}
		if len(data) == 0 {
			continue
		}

		frame := port.Frame{Data: data, CapturedAt: time.Now()}
		s.setLatest(frame)
		s.fanOut(frame)
	}
}

// Grab returns the freshest frame. When the stream frame is stale or
// missing it falls back to the snapshot URL before giving up.
func (s *MJPEGSource) Grab(ctx context.Context) (port.Frame, error) {
	s.mu.RLock()
	frame := s.latest
	s.mu.RUnlock()

	if frame.Data != nil && time.Since(frame.CapturedAt) <= s.cfg.MaxFrameAge {
		return frame, nil
	}

	if s.cfg.SnapshotURL != "" {
		if snap, err := s.grabSnapshot(ctx); err == nil {
			return snap, nil
		} else {
			s.logger.Warn("Snapshot fallback failed", "error", err.Error())
		}
	}

	return port.Frame{}, port.ErrCameraUnavailable
}

// grabSnapshot fetches a single JPEG from the camera's still endpoint.
func (s *MJPEGSource) grabSnapshot(ctx context.Context) (port.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.SnapshotURL, nil)
	if err != nil {
		return port.Frame{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return port.Frame{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return port.Frame{}, fmt.Errorf("snapshot returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return port.Frame{}, err
	}
	if len(data) == 0 {
		return port.Frame{}, fmt.Errorf("snapshot is empty")
	}

	frame := port.Frame{Data: data, CapturedAt: time.Now()}
	s.setLatest(frame)
	return frame, nil
}

// Frames subscribes to the live stream for MJPEG passthrough. Slow readers
// drop frames instead of blocking the reader loop.
func (s *MJPEGSource) Frames(ctx context.Context) (<-chan port.Frame, error) {
	ch := make(chan port.Frame, 1)

	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.closed:
		}
		s.subsMu.Lock()
		delete(s.subs, ch)
		s.subsMu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Available reports whether the stream currently delivers frames.
func (s *MJPEGSource) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected && s.latest.Data != nil &&
		time.Since(s.latest.CapturedAt) <= s.cfg.MaxFrameAge
}

// Close stops the reader loop and detaches all subscribers.
func (s *MJPEGSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	return nil
}

func (s *MJPEGSource) setLatest(frame port.Frame) {
	s.mu.Lock()
	s.latest = frame
	s.connected = true
	s.mu.Unlock()
}

func (s *MJPEGSource) setConnected(connected bool) {
	s.mu.Lock()
	s.connected = connected
	s.mu.Unlock()
}

func (s *MJPEGSource) fanOut(frame port.Frame) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- frame:
		default:
			// Drop the stale frame so the reader loop never blocks.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- frame:
			default:
			}
		}
	}
}
