package dto

import "time"

// DailyCaptureDTO describes the scheduled capture state.
type DailyCaptureDTO struct {
	Enabled     bool              `json:"enabled"`
	Hour        int               `json:"hour"`
	NextRunAt   *time.Time        `json:"next_run_at,omitempty"`
	LastRunDate string            `json:"last_run_date,omitempty"` // YYYY-MM-DD
	LastResult  *CaptureResultDTO `json:"last_result,omitempty"`
}

// HostDTO carries appliance host resource usage.
type HostDTO struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// StatusDTO is the full system status pushed to clients and returned by the
// status endpoint.
type StatusDTO struct {
	Timestamp        time.Time        `json:"timestamp"`
	CameraAvailable  bool             `json:"camera_available"`
	SensorAvailable  bool             `json:"sensor_available"`
	Environment      *ReadingDTO      `json:"environment,omitempty"`
	LastDiagnosis    *DiagnosisDTO    `json:"last_diagnosis,omitempty"`
	AlertThreshold   float64          `json:"alert_threshold"`
	DailyCapture     *DailyCaptureDTO `json:"daily_capture"`
	Host             *HostDTO         `json:"host,omitempty"`
	ConnectedClients int              `json:"connected_clients"`
}
