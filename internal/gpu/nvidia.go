package gpu

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pulsetop/pulsetop/internal/metrics"
)

const nvidiaQueryFields = "name,utilization.gpu,memory.used,memory.total,temperature.gpu"

// detectTimeout bounds the one-off nvidia-smi probe at startup.
const detectTimeout = 2 * time.Second

// runFunc executes nvidia-smi with the given args and returns stdout.
// Injectable for tests.
type runFunc func(ctx context.Context, args ...string) (string, error)

func runNvidiaSMI(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "nvidia-smi", args...).Output()
	return string(out), err
}

// nvidiaBackend samples GPUs through nvidia-smi CSV queries.
type nvidiaBackend struct {
	run     runFunc
	devices []Device
}

// detectNVIDIA enumerates NVIDIA GPUs via nvidia-smi. A missing binary,
// timeout, or empty device list all mean "not this vendor".
func detectNVIDIA(run runFunc) *nvidiaBackend {
	ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
	defer cancel()

	out, err := run(ctx, "--query-gpu=name", "--format=csv,noheader")
	if err != nil {
		return nil
	}
	var devices []Device
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		devices = append(devices, Device{
			Index:  len(devices),
			Vendor: "nvidia",
			Name:   name,
		})
	}
	if len(devices) == 0 {
		return nil
	}
	return &nvidiaBackend{run: run, devices: devices}
}

func (b *nvidiaBackend) Vendor() string    { return "nvidia" }
func (b *nvidiaBackend) Devices() []Device { return b.devices }

// Sample queries one GPU by index.
func (b *nvidiaBackend) Sample(ctx context.Context, d Device) (metrics.GPUDevice, error) {
	out, err := b.run(ctx,
		"-i", strconv.Itoa(d.Index),
		"--query-gpu="+nvidiaQueryFields,
		"--format=csv,noheader,nounits")
	if err != nil {
		return metrics.GPUDevice{}, fmt.Errorf("nvidia-smi query failed: %w", err)
	}
	dev, err := parseNvidiaCSV(out)
	if err != nil {
		return metrics.GPUDevice{}, err
	}
	dev.Index = d.Index
	return dev, nil
}

// parseNvidiaCSV parses one line of nvidia-smi CSV output:
// name, utilization %, memory used MiB, memory total MiB, temperature C.
// Fields reported as [N/A] are left at zero.
func parseNvidiaCSV(out string) (metrics.GPUDevice, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return metrics.GPUDevice{}, fmt.Errorf("empty nvidia-smi output")
	}

	fields := strings.Split(out, ",")
	if len(fields) < 5 {
		return metrics.GPUDevice{}, fmt.Errorf("nvidia-smi output has insufficient fields: expected 5, got %d", len(fields))
	}

	dev := metrics.GPUDevice{
		Vendor: "nvidia",
		Name:   strings.TrimSpace(fields[0]),
	}

	utilStr := strings.TrimSpace(fields[1])
	if utilStr != "" && utilStr != "[N/A]" {
		util, err := strconv.ParseFloat(utilStr, 64)
		if err != nil {
			return metrics.GPUDevice{}, fmt.Errorf("failed to parse gpu utilization %q: %w", utilStr, err)
		}
		dev.Utilization = util
	}

	memUsedStr := strings.TrimSpace(fields[2])
	if memUsedStr != "" && memUsedStr != "[N/A]" {
		memUsed, err := strconv.ParseUint(memUsedStr, 10, 64)
		if err != nil {
			return metrics.GPUDevice{}, fmt.Errorf("failed to parse gpu memory used %q: %w", memUsedStr, err)
		}
		dev.MemoryUsed = memUsed * 1024 * 1024
	}

	memTotalStr := strings.TrimSpace(fields[3])
	if memTotalStr != "" && memTotalStr != "[N/A]" {
		memTotal, err := strconv.ParseUint(memTotalStr, 10, 64)
		if err != nil {
			return metrics.GPUDevice{}, fmt.Errorf("failed to parse gpu memory total %q: %w", memTotalStr, err)
		}
		dev.MemoryTotal = memTotal * 1024 * 1024
	}

	tempStr := strings.TrimSpace(fields[4])
	if tempStr != "" && tempStr != "[N/A]" {
		temp, err := strconv.ParseFloat(tempStr, 64)
		if err != nil {
			return metrics.GPUDevice{}, fmt.Errorf("failed to parse gpu temperature %q: %w", tempStr, err)
		}
		dev.Temperature = temp
	}

	return dev, nil
}
