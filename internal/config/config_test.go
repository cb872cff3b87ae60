package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsetop/pulsetop/internal/errors"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 50, cfg.Interval)
	assert.Equal(t, 100, cfg.History)
	assert.True(t, cfg.GPU)
	assert.True(t, cfg.Network)
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialFile(t *testing.T) {
	// Fields absent from the file must keep their default values.
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: 200\ngpu: false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Interval)
	assert.Equal(t, 100, cfg.History)
	assert.False(t, cfg.GPU)
	assert.True(t, cfg.Network)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: [not a number\n"), 0o644))

	cfg, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	// Parse failure falls back to defaults, never aborts.
	assert.Equal(t, Default(), cfg)
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: 75\nfuture_knob: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.Interval)
}

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name      string
		persisted Config
		overrides Overrides
		want      Config
	}{
		{
			name:      "no overrides keeps persisted",
			persisted: Config{Interval: 200, History: 50, GPU: false, Network: true},
			overrides: Overrides{},
			want:      Config{Interval: 200, History: 50, GPU: false, Network: true},
		},
		{
			name:      "override beats persisted field by field",
			persisted: Config{Interval: 200, History: 50, GPU: true, Network: true},
			overrides: Overrides{Interval: intPtr(25)},
			want:      Config{Interval: 25, History: 50, GPU: true, Network: true},
		},
		{
			name:      "bool override can re-enable a persisted false",
			persisted: Config{Interval: 50, History: 100, GPU: false, Network: false},
			overrides: Overrides{GPU: boolPtr(true)},
			want:      Config{Interval: 50, History: 100, GPU: true, Network: false},
		},
		{
			name:      "all fields overridden",
			persisted: Default(),
			overrides: Overrides{Interval: intPtr(10), History: intPtr(5), GPU: boolPtr(false), Network: boolPtr(false)},
			want:      Config{Interval: 10, History: 5, GPU: false, Network: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.persisted, tt.overrides)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	// Parent directories are created on demand.
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	saved := Config{Interval: 200, History: 42, GPU: false, Network: true}
	require.NoError(t, Save(saved, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	// Persist a customized config first.
	require.NoError(t, Save(Config{Interval: 500, History: 9, GPU: false, Network: false}, path))

	cfg, err := Reset(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	// The file on disk reflects the defaults afterwards.
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)
}

func TestSaveWriteFailure(t *testing.T) {
	dir := t.TempDir()
	// A path whose parent is a file cannot be created.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Save(Default(), filepath.Join(blocker, "config.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	bad := Config{Interval: 0, History: 100}
	assert.Error(t, bad.Validate())

	bad = Config{Interval: 50, History: -1}
	assert.Error(t, bad.Validate())
}
