package port

import "context"

// HostStatus is a snapshot of the appliance host's resource usage.
type HostStatus struct {
	CPUPercent    float64
	MemoryPercent float64
	DiskPercent   float64
	UptimeSeconds uint64
}

// HostMonitor defines the interface for sampling the device the appliance
// runs on (Port). The implementation lives in the Infrastructure layer.
type HostMonitor interface {
	// Status samples CPU, memory, disk and uptime.
	Status(ctx context.Context) (HostStatus, error)
}
