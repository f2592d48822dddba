package device

import (
	"context"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/dreschagin/leafwatch/internal/application/port"
)

// GopsutilHostMonitor читает состояние устройства через gopsutil
// Реализует интерфейс port.HostMonitor
type GopsutilHostMonitor struct {
	diskPath string
}

// NewGopsutilHostMonitor создает новый монитор устройства
func NewGopsutilHostMonitor(diskPath string) *GopsutilHostMonitor {
	if diskPath == "" {
		diskPath = "/"
	}
	return &GopsutilHostMonitor{diskPath: diskPath}
}

// Status собирает CPU, память, диск и uptime параллельно
func (m *GopsutilHostMonitor) Status(ctx context.Context) (port.HostStatus, error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		status port.HostStatus
	)

	// Функция для сбора одного показателя с обработкой ошибок
	collectFunc := func(collect func(context.Context) (float64, error), assign func(*port.HostStatus, float64)) {
		defer wg.Done()
		value, err := collect(ctx)
		if err != nil {
			// Показатель пропускаем, но продолжаем
			return
		}
		mu.Lock()
		assign(&status, value)
		mu.Unlock()
	}

	wg.Add(4)
	go collectFunc(m.cpuPercent, func(s *port.HostStatus, v float64) { s.CPUPercent = v })
	go collectFunc(m.memoryPercent, func(s *port.HostStatus, v float64) { s.MemoryPercent = v })
	go collectFunc(m.diskPercent, func(s *port.HostStatus, v float64) { s.DiskPercent = v })
	go func() {
		defer wg.Done()
		uptime, err := host.UptimeWithContext(ctx)
		if err != nil {
			return
		}
		mu.Lock()
		status.UptimeSeconds = uptime
		mu.Unlock()
	}()

	wg.Wait()

	return status, nil
}

// cpuPercent возвращает мгновенную загрузку CPU
func (m *GopsutilHostMonitor) cpuPercent(ctx context.Context) (float64, error) {
	// Интервал 0 отдает загрузку с момента прошлого вызова
	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percentages) == 0 {
		return 0, nil
	}
	return percentages[0], nil
}

// memoryPercent возвращает процент занятой памяти
func (m *GopsutilHostMonitor) memoryPercent(ctx context.Context) (float64, error) {
	vmStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vmStat.UsedPercent, nil
}

// diskPercent возвращает процент занятого диска
func (m *GopsutilHostMonitor) diskPercent(ctx context.Context) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, m.diskPath)
	if err != nil {
		return 0, err
	}
	return usage.UsedPercent, nil
}
