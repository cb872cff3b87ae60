// Package gpu detects and samples GPU telemetry. Vendors are probed in a
// fixed order (NVIDIA, then AMD, then Intel) and the first backend that
// initializes owns the session; machines with no supported GPU report an
// empty device list forever.
package gpu

import (
	"context"
	"fmt"

	"github.com/pulsetop/pulsetop/internal/logger"
	"github.com/pulsetop/pulsetop/internal/metrics"
)

// Device identifies one GPU owned by a backend.
type Device struct {
	Index  int
	Vendor string
	Name   string
}

// Backend is the per-vendor sampling capability.
type Backend interface {
	Vendor() string
	Devices() []Device
	Sample(ctx context.Context, d Device) (metrics.GPUDevice, error)
}

// Detect probes vendors in priority order and returns the first backend
// that finds at least one device, or nil when no supported GPU is present.
func Detect(log logger.Logger) Backend {
	if log == nil {
		log = logger.Noop()
	}
	if b := detectNVIDIA(runNvidiaSMI); b != nil {
		log.Debug("nvidia backend selected (%d devices)", len(b.Devices()))
		return b
	}
	if b := detectAMD(defaultSysfsRoot); b != nil {
		log.Debug("amd backend selected (%d devices)", len(b.Devices()))
		return b
	}
	if b := detectIntel(defaultSysfsRoot); b != nil {
		log.Debug("intel backend selected (%d devices)", len(b.Devices()))
		return b
	}
	log.Debug("no supported gpu found")
	return nil
}

// Source adapts the vendor dispatcher to the metrics.Source contract.
type Source struct {
	enabled  bool
	log      logger.Logger
	detectFn func() Backend
	backend  Backend
}

// NewSource creates a GPU source. When enabled is false the source probes
// as disabled and no vendor detection runs at all.
func NewSource(enabled bool, log logger.Logger) *Source {
	if log == nil {
		log = logger.Noop()
	}
	return &Source{
		enabled:  enabled,
		log:      log,
		detectFn: func() Backend { return Detect(log) },
	}
}

// Name implements metrics.Source.
func (s *Source) Name() string { return "gpu" }

// Probe implements metrics.Source. Vendor detection happens exactly once,
// here; its outcome holds for the whole session.
func (s *Source) Probe() (metrics.Status, string) {
	if !s.enabled {
		return metrics.StatusDisabled, "disabled by configuration"
	}
	s.backend = s.detectFn()
	if s.backend == nil {
		return metrics.StatusUnavailable, "no supported gpu found"
	}
	return metrics.StatusActive, ""
}

// DeviceNames returns the detected device names, or nil before a successful
// probe. Used for the static info panel.
func (s *Source) DeviceNames() []string {
	if s.backend == nil {
		return nil
	}
	devices := s.backend.Devices()
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.Name)
	}
	return names
}

// Sample implements metrics.Source. A device that fails to sample is simply
// absent from this tick's reading; the sample as a whole errors only when
// every device failed, which feeds the sampler's demotion counter.
func (s *Source) Sample(ctx context.Context) (metrics.Reading, error) {
	devices := s.backend.Devices()
	out := make([]metrics.GPUDevice, 0, len(devices))
	var lastErr error
	for _, d := range devices {
		m, err := s.backend.Sample(ctx, d)
		if err != nil {
			lastErr = err
			s.log.Debug("gpu %s/%d sample failed: %v", d.Vendor, d.Index, err)
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 && lastErr != nil {
		return metrics.Reading{}, fmt.Errorf("all gpu devices failed: %w", lastErr)
	}
	return metrics.Reading{GPUs: out}, nil
}
