package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
)

// SystemInfo holds the static facts shown in the info panel. Collected once
// at startup; fields that cannot be determined stay empty.
type SystemInfo struct {
	Hostname  string
	OS        string
	OSVersion string
	CPUModel  string
	Cores     int
	Threads   int
	GPUModels []string
}

// CollectSystemInfo gathers host and CPU identity. Every lookup is
// best-effort: a failing probe leaves its field empty rather than failing
// the whole collection.
func CollectSystemInfo(ctx context.Context) SystemInfo {
	var info SystemInfo

	if h, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = h.Hostname
		info.OS = h.Platform
		info.OSVersion = h.PlatformVersion
		if info.OS == "" {
			info.OS = h.OS
		}
	}

	if stats, err := cpu.InfoWithContext(ctx); err == nil && len(stats) > 0 {
		info.CPUModel = strings.TrimSpace(stats[0].ModelName)
	}
	if physical, err := cpu.CountsWithContext(ctx, false); err == nil {
		info.Cores = physical
	}
	if logical, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.Threads = logical
	}

	return info
}

// OSLine renders "platform version" for display.
func (i SystemInfo) OSLine() string {
	if i.OSVersion == "" {
		return i.OS
	}
	return fmt.Sprintf("%s %s", i.OS, i.OSVersion)
}

// CPULine renders the CPU model with core/thread counts.
func (i SystemInfo) CPULine() string {
	model := i.CPUModel
	if model == "" {
		model = "unknown cpu"
	}
	if i.Cores > 0 && i.Threads > 0 {
		return fmt.Sprintf("%s (%dc/%dt)", model, i.Cores, i.Threads)
	}
	return model
}
