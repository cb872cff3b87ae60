// Package metrics contains pulsetop's sampling engine: the source adapter
// contract, the merged point-in-time Snapshot, rolling history series for
// graphing, and the Sampler that drives periodic collection.
package metrics

import (
	"context"
	"time"
)

// Snapshot is one merged, timestamped reading across all enabled metric
// domains. A nil/empty field means the domain was absent for that tick,
// never a fabricated zero reading.
type Snapshot struct {
	Timestamp time.Time
	CPU       *CPUMetrics
	Memory    *MemoryMetrics
	GPUs      []GPUDevice
	Network   []InterfaceStats
}

// CPUMetrics contains aggregate and per-core usage percentages.
// PerCore is ordered by core index so rendering stays stable across ticks.
type CPUMetrics struct {
	Total   float64
	PerCore []float64
}

// MemoryMetrics contains RAM and swap usage in bytes.
type MemoryMetrics struct {
	Used      uint64
	Total     uint64
	SwapUsed  uint64
	SwapTotal uint64
}

// UsedPercent returns RAM usage as a percentage of total.
func (m MemoryMetrics) UsedPercent() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Used) / float64(m.Total) * 100
}

// SwapPercent returns swap usage as a percentage of total swap.
func (m MemoryMetrics) SwapPercent() float64 {
	if m.SwapTotal == 0 {
		return 0
	}
	return float64(m.SwapUsed) / float64(m.SwapTotal) * 100
}

// GPUDevice is one GPU's telemetry for a single tick. Index is the stable
// device identity assigned at probe time; it survives other devices
// dropping out of a tick, so history series and labels never shift between
// devices.
type GPUDevice struct {
	Index       int
	Vendor      string
	Name        string
	Utilization float64
	MemoryUsed  uint64
	MemoryTotal uint64
	Temperature float64
}

// InterfaceStats holds per-interface byte deltas for one sampling interval.
type InterfaceStats struct {
	Name    string
	RxBytes uint64
	TxBytes uint64
}

// Status describes the availability of a metric source.
type Status int

const (
	// StatusActive means the source is polled every tick.
	StatusActive Status = iota
	// StatusDisabled means the source was switched off by configuration.
	StatusDisabled
	// StatusUnavailable means the source failed to probe or failed
	// persistently; it is never polled again this session.
	StatusUnavailable
)

// String returns a human-readable status label.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusDisabled:
		return "disabled"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Reading is a partial snapshot produced by one source. Each adapter fills
// only the fields for its own domain; the Sampler merges readings from all
// sources into a Snapshot.
type Reading struct {
	CPU     *CPUMetrics
	Memory  *MemoryMetrics
	GPUs    []GPUDevice
	Network []InterfaceStats
}

// Source is the uniform capability exposed by every metric domain adapter.
//
// Probe is called once at startup and determines availability; the reason
// string explains an unavailable result. Sample is called once per tick for
// active sources and must honor ctx cancellation, since slow driver calls
// are bounded by a per-source ceiling.
type Source interface {
	Name() string
	Probe() (Status, string)
	Sample(ctx context.Context) (Reading, error)
}
