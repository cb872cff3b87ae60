package gpu

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCard lays out a fake DRM card under root with the given sysfs
// attributes.
func writeCard(t *testing.T, root, card, vendor string, attrs map[string]string) {
	t.Helper()
	deviceDir := filepath.Join(root, "class", "drm", card, "device")
	require.NoError(t, os.MkdirAll(deviceDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(deviceDir, "vendor"), []byte(vendor+"\n"), 0o644))
	for name, value := range attrs {
		path := filepath.Join(deviceDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(value+"\n"), 0o644))
	}
}

func TestDetectAMD(t *testing.T) {
	t.Run("no drm directory", func(t *testing.T) {
		assert.Nil(t, detectAMD(t.TempDir()))
	})

	t.Run("only other vendors", func(t *testing.T) {
		root := t.TempDir()
		writeCard(t, root, "card0", "0x10de", nil)
		assert.Nil(t, detectAMD(root))
	})

	t.Run("finds amd cards, skips connectors", func(t *testing.T) {
		root := t.TempDir()
		writeCard(t, root, "card0", "0x1002", nil)
		writeCard(t, root, "card0-DP-1", "0x1002", nil)
		writeCard(t, root, "card1", "0x8086", nil)

		b := detectAMD(root)
		require.NotNil(t, b)
		assert.Equal(t, "amd", b.Vendor())
		require.Len(t, b.Devices(), 1)
		assert.Equal(t, Device{Index: 0, Vendor: "amd", Name: "AMD GPU"}, b.Devices()[0])
	})
}

func TestAMDBackendSample(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", "0x1002", map[string]string{
		"gpu_busy_percent":         "37",
		"mem_info_vram_used":       "1073741824",
		"mem_info_vram_total":      "8589934592",
		"hwmon/hwmon3/temp1_input": "64000",
	})

	b := detectAMD(root)
	require.NotNil(t, b)

	dev, err := b.Sample(context.Background(), b.Devices()[0])
	require.NoError(t, err)
	assert.Equal(t, 37.0, dev.Utilization)
	assert.Equal(t, uint64(1073741824), dev.MemoryUsed)
	assert.Equal(t, uint64(8589934592), dev.MemoryTotal)
	assert.Equal(t, 64.0, dev.Temperature)
}

func TestAMDBackendSampleMissingBusyFile(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", "0x1002", nil)

	b := detectAMD(root)
	require.NotNil(t, b)

	_, err := b.Sample(context.Background(), b.Devices()[0])
	assert.Error(t, err)
}

func TestAMDBackendSampleVRAMOptional(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", "0x1002", map[string]string{
		"gpu_busy_percent": "12",
	})

	b := detectAMD(root)
	require.NotNil(t, b)

	dev, err := b.Sample(context.Background(), b.Devices()[0])
	require.NoError(t, err)
	assert.Equal(t, 12.0, dev.Utilization)
	assert.Equal(t, uint64(0), dev.MemoryTotal)
	assert.Equal(t, 0.0, dev.Temperature)
}

func TestAMDBackendSampleCancelled(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", "0x1002", map[string]string{"gpu_busy_percent": "5"})

	b := detectAMD(root)
	require.NotNil(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Sample(ctx, b.Devices()[0])
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectIntel(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", "0x8086", nil)

	b := detectIntel(root)
	require.NotNil(t, b)
	assert.Equal(t, "intel", b.Vendor())

	dev, err := b.Sample(context.Background(), b.Devices()[0])
	require.NoError(t, err)
	assert.Equal(t, "intel", dev.Vendor)
	assert.Equal(t, 0.0, dev.Utilization)
}
