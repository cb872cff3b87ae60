package metrics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsetop/pulsetop/internal/logger"
)

// fakeSource is a scriptable Source for sampler tests.
type fakeSource struct {
	name     string
	status   Status
	reason   string
	sampleFn func(ctx context.Context) (Reading, error)
	calls    atomic.Int64
}

func (f *fakeSource) Name() string            { return f.name }
func (f *fakeSource) Probe() (Status, string) { return f.status, f.reason }

func (f *fakeSource) Sample(ctx context.Context) (Reading, error) {
	f.calls.Add(1)
	return f.sampleFn(ctx)
}

func cpuReading(total float64) Reading {
	return Reading{CPU: &CPUMetrics{Total: total}}
}

func newTestSampler(t *testing.T, sources ...Source) *Sampler {
	t.Helper()
	s := NewSampler(50*time.Millisecond, 100, sources, logger.Noop())
	s.Probe()
	return s
}

func TestSamplerProbeRecordsStatuses(t *testing.T) {
	active := &fakeSource{name: "cpu", status: StatusActive,
		sampleFn: func(context.Context) (Reading, error) { return cpuReading(1), nil }}
	disabled := &fakeSource{name: "network", status: StatusDisabled, reason: "disabled by configuration"}
	broken := &fakeSource{name: "gpu", status: StatusUnavailable, reason: "no gpu found"}

	s := newTestSampler(t, active, disabled, broken)

	statuses := s.Statuses()
	assert.Equal(t, StatusActive, statuses["cpu"].Status)
	assert.Equal(t, StatusDisabled, statuses["network"].Status)
	assert.Equal(t, StatusUnavailable, statuses["gpu"].Status)
	assert.Equal(t, "no gpu found", statuses["gpu"].Reason)
}

func TestSamplerMergesReadings(t *testing.T) {
	cpuSrc := &fakeSource{name: "cpu", status: StatusActive,
		sampleFn: func(context.Context) (Reading, error) { return cpuReading(42), nil }}
	memSrc := &fakeSource{name: "memory", status: StatusActive,
		sampleFn: func(context.Context) (Reading, error) {
			return Reading{Memory: &MemoryMetrics{Used: 50, Total: 100}}, nil
		}}

	s := newTestSampler(t, cpuSrc, memSrc)
	s.pollRound(context.Background(), time.Now())

	snap := s.Latest()
	require.NotNil(t, snap)
	require.NotNil(t, snap.CPU)
	require.NotNil(t, snap.Memory)
	assert.Equal(t, 42.0, snap.CPU.Total)
	assert.Equal(t, uint64(50), snap.Memory.Used)

	assert.Equal(t, []float64{42}, s.History().Snapshot(SeriesCPU))
	assert.Equal(t, []float64{50}, s.History().Snapshot(SeriesMemory))
}

func TestSamplerSkipsInactiveSources(t *testing.T) {
	disabled := &fakeSource{name: "network", status: StatusDisabled,
		sampleFn: func(context.Context) (Reading, error) { return Reading{}, nil }}
	broken := &fakeSource{name: "gpu", status: StatusUnavailable,
		sampleFn: func(context.Context) (Reading, error) { return Reading{}, nil }}

	s := newTestSampler(t, disabled, broken)
	s.pollRound(context.Background(), time.Now())

	assert.Equal(t, int64(0), disabled.calls.Load())
	assert.Equal(t, int64(0), broken.calls.Load())
}

func TestSamplerDegradedReusesLastReading(t *testing.T) {
	failNext := false
	src := &fakeSource{name: "cpu", status: StatusActive,
		sampleFn: func(context.Context) (Reading, error) {
			if failNext {
				return Reading{}, assert.AnError
			}
			return cpuReading(33), nil
		}}

	s := newTestSampler(t, src)
	s.pollRound(context.Background(), time.Now())

	failNext = true
	s.pollRound(context.Background(), time.Now())

	snap := s.Latest()
	require.NotNil(t, snap.CPU)
	assert.Equal(t, 33.0, snap.CPU.Total)
	assert.True(t, s.Statuses()["cpu"].Degraded)

	// Recovery clears the degraded flag.
	failNext = false
	s.pollRound(context.Background(), time.Now())
	assert.False(t, s.Statuses()["cpu"].Degraded)
}

func TestSamplerDemotesAfterConsecutiveFailures(t *testing.T) {
	src := &fakeSource{name: "gpu", status: StatusActive,
		sampleFn: func(context.Context) (Reading, error) { return Reading{}, assert.AnError }}

	s := newTestSampler(t, src)
	for i := 0; i < failureThreshold; i++ {
		s.pollRound(context.Background(), time.Now())
	}

	st := s.Statuses()["gpu"]
	assert.Equal(t, StatusUnavailable, st.Status)
	assert.NotEmpty(t, st.Reason)

	// Demotion is sticky: no further sampling.
	before := src.calls.Load()
	s.pollRound(context.Background(), time.Now())
	assert.Equal(t, before, src.calls.Load())
}

func TestSamplerFailureCounterResetsOnSuccess(t *testing.T) {
	var n int
	src := &fakeSource{name: "cpu", status: StatusActive,
		sampleFn: func(context.Context) (Reading, error) {
			n++
			if n%failureThreshold == 0 {
				return cpuReading(1), nil // succeed every third round
			}
			return Reading{}, assert.AnError
		}}

	s := newTestSampler(t, src)
	for i := 0; i < failureThreshold*3; i++ {
		s.pollRound(context.Background(), time.Now())
	}

	assert.Equal(t, StatusActive, s.Statuses()["cpu"].Status)
}

func TestSamplerCeilingBoundsSlowSource(t *testing.T) {
	slow := &fakeSource{name: "cpu", status: StatusActive,
		sampleFn: func(ctx context.Context) (Reading, error) {
			<-ctx.Done()
			return Reading{}, ctx.Err()
		}}

	s := newTestSampler(t, slow)
	s.ceiling = 10 * time.Millisecond

	start := time.Now()
	s.pollRound(context.Background(), time.Now())

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, s.Statuses()["cpu"].Degraded)
}

func TestSamplerMonotonicTimestamps(t *testing.T) {
	src := &fakeSource{name: "cpu", status: StatusActive,
		sampleFn: func(context.Context) (Reading, error) { return cpuReading(1), nil }}

	s := newTestSampler(t, src)

	// A stalled wall clock must still produce strictly increasing stamps.
	now := time.Now()
	s.pollRound(context.Background(), now)
	first := s.Latest().Timestamp
	s.pollRound(context.Background(), now)
	second := s.Latest().Timestamp

	assert.True(t, second.After(first))
}

func TestSamplerMemorySmoothing(t *testing.T) {
	used := uint64(20)
	src := &fakeSource{name: "memory", status: StatusActive,
		sampleFn: func(context.Context) (Reading, error) {
			return Reading{Memory: &MemoryMetrics{Used: used, Total: 100}}, nil
		}}

	s := newTestSampler(t, src)
	s.pollRound(context.Background(), time.Now())

	used = 80
	s.pollRound(context.Background(), time.Now())

	series := s.History().Snapshot(SeriesMemory)
	require.Len(t, series, 2)
	assert.Equal(t, 20.0, series[0])
	assert.InDelta(t, 0.7*20+0.3*80, series[1], 0.001)

	// The published snapshot keeps the raw reading.
	assert.Equal(t, uint64(80), s.Latest().Memory.Used)
}

func TestSamplerNetworkAndGPUSeries(t *testing.T) {
	src := &fakeSource{name: "combined", status: StatusActive,
		sampleFn: func(context.Context) (Reading, error) {
			return Reading{
				GPUs:    []GPUDevice{{Vendor: "nvidia", Utilization: 55}},
				Network: []InterfaceStats{{Name: "eth0", RxBytes: 100, TxBytes: 200}},
			}, nil
		}}

	s := newTestSampler(t, src)
	s.pollRound(context.Background(), time.Now())

	assert.Equal(t, []float64{55}, s.History().Snapshot(GPUSeries(0)))
	rx, tx := NetSeries("eth0")
	assert.Equal(t, []float64{100}, s.History().Snapshot(rx))
	assert.Equal(t, []float64{200}, s.History().Snapshot(tx))
}

func TestSamplerGPUSeriesKeyedByDeviceIndex(t *testing.T) {
	round := 0
	src := &fakeSource{name: "gpu", status: StatusActive,
		sampleFn: func(context.Context) (Reading, error) {
			round++
			if round == 2 {
				// Device 0 dropped out this tick; device 1 still reports.
				return Reading{GPUs: []GPUDevice{{Index: 1, Utilization: 99}}}, nil
			}
			return Reading{GPUs: []GPUDevice{
				{Index: 0, Utilization: 10},
				{Index: 1, Utilization: 99},
			}}, nil
		}}

	s := newTestSampler(t, src)
	s.pollRound(context.Background(), time.Now())
	s.pollRound(context.Background(), time.Now())
	s.pollRound(context.Background(), time.Now())

	// Device 1's values must never leak into device 0's series.
	assert.Equal(t, []float64{10, 10}, s.History().Snapshot(GPUSeries(0)))
	assert.Equal(t, []float64{99, 99, 99}, s.History().Snapshot(GPUSeries(1)))
}

func TestSamplerRunStopsOnCancel(t *testing.T) {
	src := &fakeSource{name: "cpu", status: StatusActive,
		sampleFn: func(context.Context) (Reading, error) { return cpuReading(1), nil }}

	s := NewSampler(5*time.Millisecond, 10, []Source{src}, logger.Noop())
	s.Probe()

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	require.Eventually(t, func() bool { return s.Latest() != nil },
		time.Second, time.Millisecond)

	cancel()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("sampler did not stop after cancel")
	}
}
