package gpu

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pulsetop/pulsetop/internal/metrics"
)

const intelVendorID = "0x8086"

// intelBackend detects Intel GPUs via sysfs. i915 exposes no utilization or
// memory counters there, so present devices report zero-valued telemetry
// aside from hwmon temperature when available.
type intelBackend struct {
	cards   []string
	devices []Device
}

func detectIntel(root string) *intelBackend {
	cards := findCards(root, intelVendorID)
	if len(cards) == 0 {
		return nil
	}
	b := &intelBackend{cards: cards}
	for i := range cards {
		b.devices = append(b.devices, Device{
			Index:  i,
			Vendor: "intel",
			Name:   "Intel GPU",
		})
	}
	return b
}

func (b *intelBackend) Vendor() string    { return "intel" }
func (b *intelBackend) Devices() []Device { return b.devices }

// Sample verifies the card is still present and fills in what sysfs offers.
func (b *intelBackend) Sample(ctx context.Context, d Device) (metrics.GPUDevice, error) {
	if err := ctx.Err(); err != nil {
		return metrics.GPUDevice{}, err
	}
	card := b.cards[d.Index]
	if _, err := os.Stat(filepath.Join(card, "device")); err != nil {
		return metrics.GPUDevice{}, err
	}
	return metrics.GPUDevice{
		Index:       d.Index,
		Vendor:      "intel",
		Name:        d.Name,
		Temperature: readHwmonTemp(card),
	}, nil
}
