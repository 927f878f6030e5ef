// Package sysstat samples host resource usage for the admin system page.
package sysstat

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type Snapshot struct {
	CPUPercent     float64 `json:"cpu_percent"`
	CPUCores       int     `json:"cpu_cores"`
	MemoryTotal    uint64  `json:"memory_total"`
	MemoryUsed     uint64  `json:"memory_used"`
	MemoryPercent  float64 `json:"memory_percent"`
	HostUptime     uint64  `json:"host_uptime_seconds"`
	ProcessUptime  int64   `json:"process_uptime_seconds"`
	Goroutines     int     `json:"goroutines"`
	HeapAllocBytes uint64  `json:"heap_alloc_bytes"`
}

var started = time.Now()

// Collect takes one sample. Individual probe failures leave their fields zero.
func Collect(ctx context.Context) Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := Snapshot{
		CPUCores:       runtime.NumCPU(),
		ProcessUptime:  int64(time.Since(started).Seconds()),
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: ms.HeapAlloc,
	}
	if pct, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemoryTotal = vm.Total
		s.MemoryUsed = vm.Used
		s.MemoryPercent = vm.UsedPercent
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		s.HostUptime = up
	}
	return s
}
