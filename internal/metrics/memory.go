package metrics

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemorySource samples RAM and swap usage. Swap being absent is not an
// error: totals of zero simply render as an empty swap graph.
type MemorySource struct {
	virtualFn func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	swapFn    func(ctx context.Context) (*mem.SwapMemoryStat, error)
}

// NewMemorySource creates a memory source backed by gopsutil.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		virtualFn: mem.VirtualMemoryWithContext,
		swapFn:    mem.SwapMemoryWithContext,
	}
}

// Name implements Source.
func (s *MemorySource) Name() string { return "memory" }

// Probe implements Source.
func (s *MemorySource) Probe() (Status, string) {
	if _, err := s.virtualFn(context.Background()); err != nil {
		return StatusUnavailable, fmt.Sprintf("memory stats unreadable: %v", err)
	}
	return StatusActive, ""
}

// Sample implements Source.
func (s *MemorySource) Sample(ctx context.Context) (Reading, error) {
	vm, err := s.virtualFn(ctx)
	if err != nil {
		return Reading{}, err
	}
	m := &MemoryMetrics{
		Used:  vm.Used,
		Total: vm.Total,
	}
	if swap, err := s.swapFn(ctx); err == nil {
		m.SwapUsed = swap.Used
		m.SwapTotal = swap.Total
	}
	return Reading{Memory: m}, nil
}
