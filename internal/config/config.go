// Package config resolves pulsetop's effective configuration from three
// precedence tiers: built-in defaults, the persisted config file, and
// explicit command-line overrides. Resolution happens once at startup;
// the result is immutable for the lifetime of the process except through
// explicit Save/Reset actions.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pulsetop/pulsetop/internal/errors"
)

const (
	// AppDirName is the directory under the platform config dir.
	AppDirName = "pulsetop"
	// FileName is the persisted config file name.
	FileName = "config.yaml"

	// Built-in defaults.
	DefaultInterval = 50
	DefaultHistory  = 100
)

// Config holds the effective runtime settings.
type Config struct {
	// Interval is the sampling/render cadence in milliseconds.
	Interval int `mapstructure:"interval" yaml:"interval"`
	// History is the number of points retained per graph series.
	History int `mapstructure:"history" yaml:"history"`
	// GPU enables GPU monitoring.
	GPU bool `mapstructure:"gpu" yaml:"gpu"`
	// Network enables network monitoring.
	Network bool `mapstructure:"network" yaml:"network"`
}

// Overrides carries optional command-line values. A nil field means the
// flag was not supplied and must not clobber lower-precedence tiers.
type Overrides struct {
	Interval *int
	History  *int
	GPU      *bool
	Network  *bool
}

// Default returns the built-in default configuration.
func Default() Config {
	return Config{
		Interval: DefaultInterval,
		History:  DefaultHistory,
		GPU:      true,
		Network:  true,
	}
}

// DefaultPath returns the platform-conventional location of the persisted
// config file (e.g., ~/.config/pulsetop/config.yaml on Linux).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine config directory",
			"Set HOME (or XDG_CONFIG_HOME) to a writable directory")
	}
	return filepath.Join(dir, AppDirName, FileName), nil
}

// Load reads the persisted config at path and merges it over the defaults
// field-by-field. A missing file yields the defaults with no error. A
// malformed file yields the defaults and a non-nil error so the caller can
// warn; it is never fatal.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("interval", cfg.Interval)
	v.SetDefault("history", cfg.History)
	v.SetDefault("gpu", cfg.GPU)
	v.SetDefault("network", cfg.Network)

	if err := v.ReadInConfig(); err != nil {
		return Default(), errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the YAML syntax in "+path)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the field types in "+path)
	}

	return cfg, nil
}

// Resolve merges the three precedence tiers into the effective config:
// overrides > persisted file > defaults, field by field.
func Resolve(persisted Config, ov Overrides) Config {
	cfg := persisted
	if ov.Interval != nil {
		cfg.Interval = *ov.Interval
	}
	if ov.History != nil {
		cfg.History = *ov.History
	}
	if ov.GPU != nil {
		cfg.GPU = *ov.GPU
	}
	if ov.Network != nil {
		cfg.Network = *ov.Network
	}
	return cfg
}

// Validate checks that the resolved config is usable.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return errors.New(errors.ErrConfig,
			"Interval must be a positive number of milliseconds",
			"Try --interval 50")
	}
	if c.History <= 0 {
		return errors.New(errors.ErrConfig,
			"History length must be positive",
			"Try --history 100")
	}
	return nil
}

// Save serializes cfg to path, creating parent directories as needed.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot create config directory",
			"Check permissions on "+filepath.Dir(path))
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot serialize config", "")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot write config file",
			"Check permissions on "+path)
	}
	return nil
}

// Reset writes the built-in defaults over any persisted file and returns
// the default config.
func Reset(path string) (Config, error) {
	cfg := Default()
	if err := Save(cfg, path); err != nil {
		return cfg, err
	}
	return cfg, nil
}
