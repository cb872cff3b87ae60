// Package cli defines the pulsetop command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pulsetop/pulsetop/internal/app"
	"github.com/pulsetop/pulsetop/internal/config"
	"github.com/pulsetop/pulsetop/internal/logger"
)

// rootFlags holds the per-invocation flag values for the root command.
type rootFlags struct {
	noGPU       bool
	noNetwork   bool
	interval    int
	history     int
	saveConfig  bool
	resetConfig bool
	configPath  string
}

// newRootCmd builds the root command. Flags live in a per-command struct so
// tests can execute the command repeatedly without shared state.
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "pulsetop",
		Short: "Live terminal resource monitor",
		Long: `pulsetop renders live graphs of CPU, memory, swap, GPU and network
usage in your terminal, refreshing on a fixed cadence with bounded history.

Settings resolve in three tiers: command-line flags override the persisted
config file, which overrides the built-in defaults.

Examples:
  pulsetop
  pulsetop --interval 100 --history 200
  pulsetop --no-gpu --no-network
  pulsetop --interval 200 --save-config
  pulsetop --reset-config`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.noGPU, "no-gpu", false, "Disable GPU monitoring")
	cmd.Flags().BoolVar(&flags.noNetwork, "no-network", false, "Disable network monitoring")
	cmd.Flags().IntVar(&flags.interval, "interval", config.DefaultInterval, "Sampling interval in milliseconds")
	cmd.Flags().IntVar(&flags.history, "history", config.DefaultHistory, "Number of samples kept per graph")
	cmd.Flags().BoolVar(&flags.saveConfig, "save-config", false, "Persist the effective settings, then keep running")
	cmd.Flags().BoolVar(&flags.resetConfig, "reset-config", false, "Restore and persist the default settings, then exit")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Config file path (default: platform config dir)")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func runRoot(cmd *cobra.Command, flags *rootFlags) error {
	log := logger.NewEnvLogger("[cli]")

	path := flags.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	if flags.resetConfig {
		if _, err := config.Reset(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored default config at %s\n", path)
		return nil
	}

	persisted, err := config.Load(path)
	if err != nil {
		log.Warn("falling back to defaults: %v", err)
	}

	cfg := config.Resolve(persisted, overridesFromFlags(cmd, flags))
	if err := cfg.Validate(); err != nil {
		return err
	}

	if flags.saveConfig {
		if err := config.Save(cfg, path); err != nil {
			return err
		}
		log.Debug("saved config to %s", path)
	}

	return app.Run(cmd.Context(), cfg)
}

// overridesFromFlags converts only the flags the user actually supplied, so
// untouched flags never clobber the persisted config.
func overridesFromFlags(cmd *cobra.Command, flags *rootFlags) config.Overrides {
	var ov config.Overrides
	if cmd.Flags().Changed("interval") {
		v := flags.interval
		ov.Interval = &v
	}
	if cmd.Flags().Changed("history") {
		v := flags.history
		ov.History = &v
	}
	if cmd.Flags().Changed("no-gpu") {
		v := !flags.noGPU
		ov.GPU = &v
	}
	if cmd.Flags().Changed("no-network") {
		v := !flags.noNetwork
		ov.Network = &v
	}
	return ov
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
