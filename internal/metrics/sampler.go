package metrics

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pulsetop/pulsetop/internal/logger"
)

// failureThreshold is how many consecutive failed rounds demote an active
// source to unavailable for the rest of the session.
const failureThreshold = 3

// Series names used by the sampler when pushing history.
const (
	SeriesCPU    = "cpu"
	SeriesMemory = "mem"
	SeriesSwap   = "swap"
)

// GPUSeries returns the history series name for a GPU by device index.
func GPUSeries(index int) string {
	return fmt.Sprintf("gpu%d", index)
}

// NetSeries returns the history series names (rx, tx) for an interface.
func NetSeries(name string) (string, string) {
	return "net:" + name + ":rx", "net:" + name + ":tx"
}

// SourceStatus describes one source's availability as seen by the UI.
type SourceStatus struct {
	Status   Status
	Reason   string
	Degraded bool
}

// sourceState tracks a source's availability and last good reading across
// poll rounds. Owned by the sampler goroutine after Probe.
type sourceState struct {
	src      Source
	status   Status
	reason   string
	failures int
	degraded bool
	last     Reading
	hasLast  bool
}

// Sampler drives periodic collection. It polls all active sources
// concurrently on a fixed cadence, merges their readings into a Snapshot,
// records scalars into History, and publishes the snapshot atomically so the
// render loop never blocks on hardware.
type Sampler struct {
	interval time.Duration
	ceiling  time.Duration
	log      logger.Logger

	sources []*sourceState
	history *History

	latest atomic.Pointer[Snapshot]
	lastTS time.Time

	memSmoothed float64
	memPrimed   bool

	mu   sync.RWMutex // guards status fields read via Statuses
	done chan struct{}
}

// NewSampler creates a sampler polling the given sources every interval,
// keeping historyLen samples per series. Each source's per-tick budget
// equals one interval.
func NewSampler(interval time.Duration, historyLen int, sources []Source, log logger.Logger) *Sampler {
	if log == nil {
		log = logger.Noop()
	}
	states := make([]*sourceState, len(sources))
	for i, src := range sources {
		states[i] = &sourceState{src: src, status: StatusUnavailable}
	}
	return &Sampler{
		interval: interval,
		ceiling:  interval,
		log:      log,
		sources:  states,
		history:  NewHistory(historyLen),
		done:     make(chan struct{}),
	}
}

// Probe checks every source once and records its availability. Sources that
// report disabled or unavailable are never polled afterwards.
func (s *Sampler) Probe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.sources {
		st.status, st.reason = st.src.Probe()
		switch st.status {
		case StatusActive:
			s.log.Debug("source %s active", st.src.Name())
		case StatusDisabled:
			s.log.Debug("source %s disabled: %s", st.src.Name(), st.reason)
		case StatusUnavailable:
			s.log.Warn("source %s unavailable: %s", st.src.Name(), st.reason)
		}
	}
}

// Run drives the poll loop until ctx is cancelled. Ticks that fire while a
// round is still in flight are coalesced, never queued. Run closes Done when
// the loop has fully stopped.
func (s *Sampler) Run(ctx context.Context) {
	defer close(s.done)

	// Prime immediately so the first frame has data.
	s.pollRound(ctx, time.Now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.pollRound(ctx, now)
			// Drop any tick that queued up while the round ran.
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

// Done is closed once Run has returned.
func (s *Sampler) Done() <-chan struct{} {
	return s.done
}

// Latest returns the most recently published snapshot, or nil before the
// first round completes.
func (s *Sampler) Latest() *Snapshot {
	return s.latest.Load()
}

// History returns the sampler's rolling series set.
func (s *Sampler) History() *History {
	return s.history
}

// Statuses returns the availability of every source keyed by name.
func (s *Sampler) Statuses() map[string]SourceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]SourceStatus, len(s.sources))
	for _, st := range s.sources {
		out[st.src.Name()] = SourceStatus{
			Status:   st.status,
			Reason:   st.reason,
			Degraded: st.degraded,
		}
	}
	return out
}

type sampleResult struct {
	reading Reading
	err     error
}

// pollRound samples every active source concurrently, each bounded by the
// per-source ceiling, merges the readings and publishes a snapshot.
func (s *Sampler) pollRound(ctx context.Context, now time.Time) {
	if ctx.Err() != nil {
		return
	}

	results := make([]sampleResult, len(s.sources))
	var wg sync.WaitGroup
	for i, st := range s.sources {
		if st.status != StatusActive {
			continue
		}
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i].reading, results[i].err = s.sampleWithCeiling(ctx, src)
		}(i, st.src)
	}
	wg.Wait()

	s.mu.Lock()
	snap := &Snapshot{Timestamp: s.monotonic(now)}
	for i, st := range s.sources {
		if st.status != StatusActive {
			continue
		}
		reading := results[i].reading
		if err := results[i].err; err != nil {
			st.failures++
			st.degraded = true
			s.log.Debug("source %s sample failed (%d/%d): %v",
				st.src.Name(), st.failures, failureThreshold, err)
			if st.failures >= failureThreshold {
				st.status = StatusUnavailable
				st.reason = fmt.Sprintf("%d consecutive failures: %v", st.failures, err)
				s.log.Warn("source %s demoted: %s", st.src.Name(), st.reason)
				continue
			}
			if !st.hasLast {
				continue
			}
			reading = st.last
		} else {
			st.failures = 0
			st.degraded = false
			st.last = reading
			st.hasLast = true
		}
		mergeReading(snap, reading)
	}
	s.record(snap)
	s.lastTS = snap.Timestamp
	s.mu.Unlock()

	s.latest.Store(snap)
}

// sampleWithCeiling bounds one source's sample to the per-source ceiling.
// A source that overruns is abandoned rather than allowed to stall the
// round; its goroutine exits once the driver call notices cancellation.
func (s *Sampler) sampleWithCeiling(ctx context.Context, src Source) (Reading, error) {
	cctx, cancel := context.WithTimeout(ctx, s.ceiling)
	defer cancel()

	ch := make(chan sampleResult, 1)
	go func() {
		r, err := src.Sample(cctx)
		ch <- sampleResult{reading: r, err: err}
	}()

	select {
	case <-cctx.Done():
		return Reading{}, cctx.Err()
	case res := <-ch:
		return res.reading, res.err
	}
}

// monotonic guarantees strictly increasing snapshot timestamps even if the
// wall clock stalls or steps backwards.
func (s *Sampler) monotonic(now time.Time) time.Time {
	if !now.After(s.lastTS) {
		return s.lastTS.Add(time.Nanosecond)
	}
	return now
}

// mergeReading folds one source's partial reading into the snapshot.
func mergeReading(snap *Snapshot, r Reading) {
	if r.CPU != nil {
		snap.CPU = r.CPU
	}
	if r.Memory != nil {
		snap.Memory = r.Memory
	}
	if len(r.GPUs) > 0 {
		snap.GPUs = r.GPUs
	}
	if len(r.Network) > 0 {
		snap.Network = r.Network
	}
}

// record pushes the snapshot's scalars into history. The memory series is
// smoothed (0.7 carry, 0.3 new) so the graph does not judder at fast
// intervals; the snapshot itself keeps the raw reading.
func (s *Sampler) record(snap *Snapshot) {
	if snap.CPU != nil {
		s.history.Push(SeriesCPU, snap.CPU.Total)
	}
	if snap.Memory != nil {
		target := snap.Memory.UsedPercent()
		if !s.memPrimed {
			s.memSmoothed = target
			s.memPrimed = true
		} else {
			s.memSmoothed = 0.7*s.memSmoothed + 0.3*target
		}
		s.history.Push(SeriesMemory, s.memSmoothed)
		s.history.Push(SeriesSwap, snap.Memory.SwapPercent())
	}
	for _, gpu := range snap.GPUs {
		s.history.Push(GPUSeries(gpu.Index), gpu.Utilization)
	}
	for _, iface := range snap.Network {
		rx, tx := NetSeries(iface.Name)
		s.history.Push(rx, float64(iface.RxBytes))
		s.history.Push(tx, float64(iface.TxBytes))
	}
}
