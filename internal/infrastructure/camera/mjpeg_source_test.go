package camera

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/pkg/config"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

func testCameraConfig(streamURL, snapshotURL string) config.CameraConfig {
	return config.CameraConfig{
		StreamURL:    streamURL,
		SnapshotURL:  snapshotURL,
		MaxFrameAge:  2 * time.Second,
		DialTimeout:  time.Second,
		ReconnectMin: 10 * time.Millisecond,
		ReconnectMax: 50 * time.Millisecond,
	}
}

func mjpegHandler(frames [][]byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		flusher := w.(http.Flusher)
		for _, frame := range frames {
			fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame))
			w.Write(frame)
			fmt.Fprint(w, "\r\n")
			flusher.Flush()
		}
		// Keep the connection open so the reader does not reconnect
		// mid-test.
		<-r.Context().Done()
	}
}

func waitForFrame(t *testing.T, src *MJPEGSource) port.Frame {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		frame, err := src.Grab(context.Background())
		if err == nil {
			return frame
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for a frame")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestMJPEGSource_GrabFromStream(t *testing.T) {
	server := httptest.NewServer(mjpegHandler([][]byte{[]byte("frame-one"), []byte("frame-two")}))
	defer server.Close()

	src := NewMJPEGSource(testCameraConfig(server.URL, ""), logger.New("error"))
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go src.Run(ctx)

	frame := waitForFrame(t, src)
	if string(frame.Data) != "frame-one" && string(frame.Data) != "frame-two" {
		t.Fatalf("unexpected frame payload: %q", frame.Data)
	}
	if frame.CapturedAt.IsZero() {
		t.Fatal("expected capture timestamp")
	}
}

func TestMJPEGSource_SnapshotFallback(t *testing.T) {
	snapshot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("still-jpeg"))
	}))
	defer snapshot.Close()

	// No stream reader running: Grab must fall back to the snapshot URL.
	src := NewMJPEGSource(testCameraConfig("http://127.0.0.1:1/stream", snapshot.URL), logger.New("error"))
	defer src.Close()

	frame, err := src.Grab(context.Background())
	if err != nil {
		t.Fatalf("Grab() error = %v", err)
	}
	if string(frame.Data) != "still-jpeg" {
		t.Fatalf("unexpected snapshot payload: %q", frame.Data)
	}
}

func TestMJPEGSource_UnavailableWithoutAnySource(t *testing.T) {
	src := NewMJPEGSource(testCameraConfig("http://127.0.0.1:1/stream", ""), logger.New("error"))
	defer src.Close()

	_, err := src.Grab(context.Background())
	if !errors.Is(err, port.ErrCameraUnavailable) {
		t.Fatalf("expected ErrCameraUnavailable, got %v", err)
	}
}

func TestMJPEGSource_FramesSubscription(t *testing.T) {
	server := httptest.NewServer(mjpegHandler([][]byte{[]byte("a"), []byte("b"), []byte("c")}))
	defer server.Close()

	src := NewMJPEGSource(testCameraConfig(server.URL, ""), logger.New("error"))
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames, err := src.Frames(ctx)
	if err != nil {
		t.Fatalf("Frames() error = %v", err)
	}

	go src.Run(ctx)

	select {
	case frame, ok := <-frames:
		if !ok {
			t.Fatal("subscription closed early")
		}
		if len(frame.Data) == 0 {
			t.Fatal("expected frame data")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a subscribed frame")
	}

	// Cancelling the subscriber context closes the channel.
	cancel()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel never closed")
		}
	}
}
