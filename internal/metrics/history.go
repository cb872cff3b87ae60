package metrics

import "sync"

// Series is a fixed-capacity ring buffer of float64 samples. Pushing into a
// full series evicts the oldest value. The zero value is not usable; create
// with NewSeries.
type Series struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewSeries creates a series holding at most capacity samples.
// Capacities below 1 are clamped to 1.
func NewSeries(capacity int) *Series {
	if capacity < 1 {
		capacity = 1
	}
	return &Series{
		data: make([]float64, capacity),
		size: capacity,
	}
}

// Push appends a value, evicting the oldest when full. O(1).
func (s *Series) Push(v float64) {
	s.data[s.head] = v
	s.head = (s.head + 1) % s.size
	if s.count < s.size {
		s.count++
	}
}

// Len returns the number of stored samples.
func (s *Series) Len() int {
	return s.count
}

// Cap returns the series capacity.
func (s *Series) Cap() int {
	return s.size
}

// Snapshot returns the stored samples oldest-first. The returned slice is a
// copy and safe to retain.
func (s *Series) Snapshot() []float64 {
	out := make([]float64, s.count)
	start := (s.head - s.count + s.size) % s.size
	for i := 0; i < s.count; i++ {
		out[i] = s.data[(start+i)%s.size]
	}
	return out
}

// Latest returns the most recent sample, or 0 when the series is empty.
func (s *Series) Latest() float64 {
	if s.count == 0 {
		return 0
	}
	idx := (s.head - 1 + s.size) % s.size
	return s.data[idx]
}

// Resize changes the capacity, keeping the most recent min(capacity, Len())
// samples in order.
func (s *Series) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == s.size {
		return
	}
	old := s.Snapshot()
	if len(old) > capacity {
		old = old[len(old)-capacity:]
	}
	s.data = make([]float64, capacity)
	s.size = capacity
	s.head = 0
	s.count = 0
	for _, v := range old {
		s.Push(v)
	}
}

// History is a mutex-guarded set of named series sharing one capacity.
// Series are created on first push, so the set is fixed once the first full
// poll round has run.
type History struct {
	mu       sync.RWMutex
	series   map[string]*Series
	capacity int
}

// NewHistory creates an empty history whose series hold capacity samples.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		series:   make(map[string]*Series),
		capacity: capacity,
	}
}

// Push appends a value to the named series, creating it if needed.
func (h *History) Push(name string, v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.series[name]
	if !ok {
		s = NewSeries(h.capacity)
		h.series[name] = s
	}
	s.Push(v)
}

// Snapshot returns a copy of the named series oldest-first, or nil when the
// series does not exist.
func (h *History) Snapshot(name string) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.series[name]
	if !ok {
		return nil
	}
	return s.Snapshot()
}

// Latest returns the most recent value of the named series.
func (h *History) Latest(name string) (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.series[name]
	if !ok || s.Len() == 0 {
		return 0, false
	}
	return s.Latest(), true
}

// Names returns the existing series names in no particular order.
func (h *History) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.series))
	for name := range h.series {
		names = append(names, name)
	}
	return names
}

// Resize changes the capacity of every series, keeping the most recent
// samples.
func (h *History) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.capacity = capacity
	for _, s := range h.series {
		s.Resize(capacity)
	}
}
