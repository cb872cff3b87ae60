package metrics

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUSource samples aggregate and per-core CPU usage. Usage is computed from
// cumulative jiffies deltas between consecutive reads, so the first tick
// reports 0% and corrects on the next one.
type CPUSource struct {
	timesFn func(ctx context.Context, percpu bool) ([]cpu.TimesStat, error)

	prevTotal cpu.TimesStat
	prevCores []cpu.TimesStat
	primed    bool
}

// NewCPUSource creates a CPU source backed by gopsutil.
func NewCPUSource() *CPUSource {
	return &CPUSource{timesFn: cpu.TimesWithContext}
}

// Name implements Source.
func (s *CPUSource) Name() string { return "cpu" }

// Probe implements Source. CPU times must be readable for the source to be
// usable at all.
func (s *CPUSource) Probe() (Status, string) {
	if _, err := s.timesFn(context.Background(), false); err != nil {
		return StatusUnavailable, fmt.Sprintf("cpu times unreadable: %v", err)
	}
	return StatusActive, ""
}

// Sample implements Source.
func (s *CPUSource) Sample(ctx context.Context) (Reading, error) {
	totals, err := s.timesFn(ctx, false)
	if err != nil {
		return Reading{}, err
	}
	if len(totals) == 0 {
		return Reading{}, fmt.Errorf("no aggregate cpu times reported")
	}
	cores, err := s.timesFn(ctx, true)
	if err != nil {
		return Reading{}, err
	}

	m := &CPUMetrics{PerCore: make([]float64, len(cores))}
	if s.primed {
		m.Total = busyPercent(s.prevTotal, totals[0])
		for i := range cores {
			if i < len(s.prevCores) {
				m.PerCore[i] = busyPercent(s.prevCores[i], cores[i])
			}
		}
	}

	s.prevTotal = totals[0]
	s.prevCores = cores
	s.primed = true
	return Reading{CPU: m}, nil
}

// busyPercent computes the busy share of the jiffies elapsed between two
// cumulative readings. Idle and iowait both count as idle time.
func busyPercent(prev, cur cpu.TimesStat) float64 {
	totalDelta := cur.Total() - prev.Total()
	if totalDelta <= 0 {
		return 0
	}
	idleDelta := (cur.Idle + cur.Iowait) - (prev.Idle + prev.Iowait)
	if idleDelta < 0 {
		idleDelta = 0
	}
	busy := (totalDelta - idleDelta) / totalDelta * 100
	if busy < 0 {
		return 0
	}
	if busy > 100 {
		return 100
	}
	return busy
}
