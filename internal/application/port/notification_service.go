package port

import "github.com/dreschagin/leafwatch/internal/application/dto"

// NotificationService defines the interface for pushing updates to connected
// clients (Port). The implementation is the WebSocket Hub in Infrastructure.
type NotificationService interface {
	// BroadcastStatus pushes the full system status to all clients.
	BroadcastStatus(status *dto.StatusDTO)

	// BroadcastCaptureResult pushes a manual capture or upload result.
	BroadcastCaptureResult(result *dto.CaptureResultDTO)

	// BroadcastDailyResult pushes the outcome of a scheduled capture run.
	BroadcastDailyResult(result *dto.CaptureResultDTO)

	// BroadcastAlert pushes a disease alert to all clients.
	BroadcastAlert(alert *dto.AlertDTO)

	// BroadcastSensorUpdate pushes a fresh environment reading.
	BroadcastSensorUpdate(reading *dto.ReadingDTO)

	// ClientCount returns the number of connected clients.
	ClientCount() int
}
