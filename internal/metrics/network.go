package metrics

import (
	"context"
	"fmt"
	"sort"

	gopsnet "github.com/shirou/gopsutil/v3/net"
)

// NetworkSource samples per-interface byte deltas. The interface set is
// enumerated once at probe time and kept stable for the whole session; an
// interface that goes missing mid-run reuses its previous delta for that
// tick.
type NetworkSource struct {
	enabled    bool
	countersFn func(ctx context.Context, pernic bool) ([]gopsnet.IOCountersStat, error)

	order     []string
	prev      map[string]gopsnet.IOCountersStat
	prevDelta map[string]InterfaceStats
	missing   map[string]bool
	primed    bool
}

// NewNetworkSource creates a network source backed by gopsutil. When enabled
// is false the source probes as disabled and is never sampled.
func NewNetworkSource(enabled bool) *NetworkSource {
	return &NetworkSource{
		enabled:    enabled,
		countersFn: gopsnet.IOCountersWithContext,
		prev:       make(map[string]gopsnet.IOCountersStat),
		prevDelta:  make(map[string]InterfaceStats),
		missing:    make(map[string]bool),
	}
}

// Name implements Source.
func (s *NetworkSource) Name() string { return "network" }

// Probe implements Source. It fixes the interface set, sorted by name so
// rendering order stays stable across ticks.
func (s *NetworkSource) Probe() (Status, string) {
	if !s.enabled {
		return StatusDisabled, "disabled by configuration"
	}
	counters, err := s.countersFn(context.Background(), true)
	if err != nil {
		return StatusUnavailable, fmt.Sprintf("network counters unreadable: %v", err)
	}
	if len(counters) == 0 {
		return StatusUnavailable, "no network interfaces found"
	}
	s.order = s.order[:0]
	for _, c := range counters {
		s.order = append(s.order, c.Name)
	}
	sort.Strings(s.order)
	return StatusActive, ""
}

// Sample implements Source. The first tick after probe reports zero deltas.
func (s *NetworkSource) Sample(ctx context.Context) (Reading, error) {
	counters, err := s.countersFn(ctx, true)
	if err != nil {
		return Reading{}, err
	}
	current := make(map[string]gopsnet.IOCountersStat, len(counters))
	for _, c := range counters {
		current[c.Name] = c
	}

	stats := make([]InterfaceStats, 0, len(s.order))
	for _, name := range s.order {
		cur, ok := current[name]
		if !ok {
			// Interface vanished this tick; reuse its last delta.
			s.missing[name] = true
			last := s.prevDelta[name]
			last.Name = name
			stats = append(stats, last)
			continue
		}
		delta := InterfaceStats{Name: name}
		// A reappearing interface re-primes with a zero delta, same as the
		// first tick after probe; its stale counters would otherwise read
		// as a multi-tick spike.
		if s.primed && !s.missing[name] {
			prev := s.prev[name]
			delta.RxBytes = counterDelta(prev.BytesRecv, cur.BytesRecv)
			delta.TxBytes = counterDelta(prev.BytesSent, cur.BytesSent)
		}
		delete(s.missing, name)
		s.prev[name] = cur
		s.prevDelta[name] = delta
		stats = append(stats, delta)
	}
	s.primed = true
	return Reading{Network: stats}, nil
}

// counterDelta returns cur-prev, clamping counter wrap or reset to zero.
func counterDelta(prev, cur uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}
