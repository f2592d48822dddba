package port

import (
	"context"
	"time"
)

// TelemetryPoint is one appliance telemetry datum (capture counts, analysis
// latency, sensor health) destined for an external observability platform.
type TelemetryPoint struct {
	Name       string
	Value      float64
	Unit       string
	Timestamp  time.Time
	Dimensions map[string]string
}

// MetricsPublisher defines the interface for publishing telemetry to external observability platforms.
// This port allows the application layer to publish telemetry without coupling to specific implementations.
type MetricsPublisher interface {
	// PublishBatch publishes multiple points in a single operation.
	// Implementations should handle batching constraints (e.g., CloudWatch's 1000 metrics/request limit).
	PublishBatch(ctx context.Context, points []TelemetryPoint) error

	// PublishSingle publishes a single point immediately.
	// Use this for high-priority telemetry that needs immediate delivery.
	PublishSingle(ctx context.Context, point TelemetryPoint) error

	// Flush forces immediate publication of any buffered points.
	// Should be called during graceful shutdown to prevent data loss.
	Flush(ctx context.Context) error
}
