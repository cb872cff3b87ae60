// Package app wires the monitor together: terminal checks, source probing,
// the background sampler, and the Bubble Tea render loop.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/pulsetop/pulsetop/internal/config"
	"github.com/pulsetop/pulsetop/internal/errors"
	"github.com/pulsetop/pulsetop/internal/gpu"
	"github.com/pulsetop/pulsetop/internal/logger"
	"github.com/pulsetop/pulsetop/internal/metrics"
	"github.com/pulsetop/pulsetop/internal/ui"
)

// infoTimeout bounds the one-off static system info collection.
const infoTimeout = 3 * time.Second

// minShutdownGrace is the floor for waiting out an in-flight poll round on
// exit.
const minShutdownGrace = 500 * time.Millisecond

// Run starts the monitor with the resolved config and blocks until the user
// quits or a termination signal arrives. The terminal is restored by Bubble
// Tea before Run returns.
func Run(ctx context.Context, cfg config.Config) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New(errors.ErrTerminal,
			"Standard output is not a terminal",
			"Run pulsetop in an interactive terminal session")
	}
	lipgloss.SetColorProfile(termenv.ColorProfile())

	log := logger.NewEnvLogger("[app]")
	interval := time.Duration(cfg.Interval) * time.Millisecond

	gpuSource := gpu.NewSource(cfg.GPU, logger.NewEnvLogger("[gpu]"))
	sources := []metrics.Source{
		metrics.NewCPUSource(),
		metrics.NewMemorySource(),
		gpuSource,
		metrics.NewNetworkSource(cfg.Network),
	}

	sampler := metrics.NewSampler(interval, cfg.History, sources, logger.NewEnvLogger("[sampler]"))
	sampler.Probe()

	infoCtx, cancelInfo := context.WithTimeout(ctx, infoTimeout)
	info := metrics.CollectSystemInfo(infoCtx)
	cancelInfo()
	info.GPUModels = gpuSource.DeviceNames()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go sampler.Run(ctx)

	program := tea.NewProgram(
		ui.NewModel(sampler, info, interval),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := program.Run()
	cancel()

	// Let the in-flight poll round drain before returning the terminal.
	grace := 2 * interval
	if grace < minShutdownGrace {
		grace = minShutdownGrace
	}
	select {
	case <-sampler.Done():
	case <-time.After(grace):
		log.Warn("sampler did not stop within %s", grace)
	}

	if err != nil {
		// Signal-driven shutdown surfaces as a killed program; that is a
		// clean exit, not a failure.
		if ctx.Err() != nil {
			return nil
		}
		return errors.WrapWithCode(err, errors.ErrTerminal,
			"Terminal UI failed", "")
	}
	return nil
}
