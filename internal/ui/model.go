package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pulsetop/pulsetop/internal/metrics"
)

// Model is the Bubble Tea model for the dashboard. It only reads the
// sampler's published snapshot and history, so a slow driver call can never
// stall a frame.
type Model struct {
	sampler  *metrics.Sampler
	info     metrics.SystemInfo
	keys     KeyMap
	interval time.Duration

	width    int
	height   int
	quitting bool
}

// tickMsg signals a periodic redraw.
type tickMsg time.Time

// NewModel creates a dashboard model refreshing at the given interval.
func NewModel(sampler *metrics.Sampler, info metrics.SystemInfo, interval time.Duration) Model {
	return Model{
		sampler:  sampler,
		info:     info,
		keys:     DefaultKeyMap(),
		interval: interval,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		return m, m.tickCmd()
	}
	return m, nil
}
