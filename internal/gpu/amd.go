package gpu

import (
	"context"
	"path/filepath"

	"github.com/pulsetop/pulsetop/internal/metrics"
)

const amdVendorID = "0x1002"

// amdBackend samples AMD GPUs through the amdgpu sysfs interface:
// gpu_busy_percent, mem_info_vram_used/total, and hwmon temperature.
type amdBackend struct {
	cards   []string
	devices []Device
}

// detectAMD looks for DRM cards with the AMD PCI vendor ID under root.
func detectAMD(root string) *amdBackend {
	cards := findCards(root, amdVendorID)
	if len(cards) == 0 {
		return nil
	}
	b := &amdBackend{cards: cards}
	for i := range cards {
		b.devices = append(b.devices, Device{
			Index:  i,
			Vendor: "amd",
			Name:   "AMD GPU",
		})
	}
	return b
}

func (b *amdBackend) Vendor() string    { return "amd" }
func (b *amdBackend) Devices() []Device { return b.devices }

// Sample reads one card's sysfs attributes. Utilization must be readable;
// VRAM and temperature are best-effort.
func (b *amdBackend) Sample(ctx context.Context, d Device) (metrics.GPUDevice, error) {
	if err := ctx.Err(); err != nil {
		return metrics.GPUDevice{}, err
	}
	card := b.cards[d.Index]

	busy, err := readSysfsUint(filepath.Join(card, "device", "gpu_busy_percent"))
	if err != nil {
		return metrics.GPUDevice{}, err
	}

	dev := metrics.GPUDevice{
		Index:       d.Index,
		Vendor:      "amd",
		Name:        d.Name,
		Utilization: float64(busy),
		Temperature: readHwmonTemp(card),
	}
	if used, err := readSysfsUint(filepath.Join(card, "device", "mem_info_vram_used")); err == nil {
		dev.MemoryUsed = used
	}
	if total, err := readSysfsUint(filepath.Join(card, "device", "mem_info_vram_total")); err == nil {
		dev.MemoryTotal = total
	}
	return dev, nil
}
