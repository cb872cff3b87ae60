package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pulsetop/pulsetop/internal/metrics"
)

const (
	graphHeight  = 4
	sidebarWidth = 34
	minSplit     = 80
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "starting..."
	}

	snap := m.sampler.Latest()
	if snap == nil {
		return LabelStyle.Render("collecting metrics...")
	}

	var graphWidth int
	split := m.width >= minSplit
	if split {
		graphWidth = m.width - sidebarWidth - 4
	} else {
		graphWidth = m.width - 4
	}
	if graphWidth < 10 {
		graphWidth = 10
	}

	graphs := m.renderGraphs(snap, graphWidth)
	var body string
	if split {
		body = lipgloss.JoinHorizontal(lipgloss.Top, graphs, m.renderSidebar(snap))
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, graphs, m.renderSidebar(snap))
	}

	header := TitleStyle.Render("pulsetop") + MutedStyle.Render(" · "+m.info.Hostname)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderFooter())
}

// renderGraphs builds the left column of sparkline graphs.
func (m Model) renderGraphs(snap *metrics.Snapshot, width int) string {
	history := m.sampler.History()
	var sections []string

	if snap.CPU != nil {
		label := labelRow("CPU", fmt.Sprintf("%5.1f%%", snap.CPU.Total), snap.CPU.Total)
		graph := BrailleGraph(history.Snapshot(metrics.SeriesCPU), width, graphHeight, ColorCPU, true)
		sections = append(sections, label+"\n"+graph)
	}

	if snap.Memory != nil {
		used := snap.Memory.UsedPercent()
		detail := fmt.Sprintf("%5.1f%%  %s / %s", used,
			FormatBytes(snap.Memory.Used), FormatBytes(snap.Memory.Total))
		label := labelRow("MEM", detail, used)
		graph := BrailleGraph(history.Snapshot(metrics.SeriesMemory), width, graphHeight, ColorMemory, true)
		sections = append(sections, label+"\n"+graph)

		if snap.Memory.SwapTotal > 0 {
			swapPct := snap.Memory.SwapPercent()
			swapDetail := fmt.Sprintf("%5.1f%%  %s / %s", swapPct,
				FormatBytes(snap.Memory.SwapUsed), FormatBytes(snap.Memory.SwapTotal))
			swapLabel := labelRow("SWP", swapDetail, swapPct)
			swapGraph := BrailleGraph(history.Snapshot(metrics.SeriesSwap), width, graphHeight, ColorSwap, false)
			sections = append(sections, swapLabel+"\n"+swapGraph)
		}
	}

	sections = append(sections, m.renderGPUGraphs(snap, history, width)...)

	return strings.Join(sections, "\n\n")
}

// renderGPUGraphs returns one graph section per GPU, or a single status line
// when the source is off.
func (m Model) renderGPUGraphs(snap *metrics.Snapshot, history *metrics.History, width int) []string {
	status := m.sampler.Statuses()["gpu"]
	switch status.Status {
	case metrics.StatusDisabled:
		return []string{MutedStyle.Render("GPU  disabled")}
	case metrics.StatusUnavailable:
		return []string{MutedStyle.Render("GPU  " + status.Reason)}
	}

	var sections []string
	for _, gpu := range snap.GPUs {
		detail := fmt.Sprintf("%5.1f%%  %s", gpu.Utilization, gpu.Name)
		if gpu.Temperature > 0 {
			detail += fmt.Sprintf("  %.0f°C", gpu.Temperature)
		}
		label := labelRow(fmt.Sprintf("GPU%d", gpu.Index), detail, gpu.Utilization)
		graph := BrailleGraph(history.Snapshot(metrics.GPUSeries(gpu.Index)), width, graphHeight, ColorGPU, true)
		sections = append(sections, label+"\n"+graph)
	}
	return sections
}

// renderSidebar builds the info panel: system identity, GPU models, and
// per-interface network rates.
func (m Model) renderSidebar(snap *metrics.Snapshot) string {
	var lines []string
	lines = append(lines, TitleStyle.Render("System"))
	lines = append(lines, LabelStyle.Render("os   ")+ValueStyle.Render(m.info.OSLine()))
	lines = append(lines, LabelStyle.Render("cpu  ")+ValueStyle.Render(m.info.CPULine()))
	for _, model := range m.info.GPUModels {
		lines = append(lines, LabelStyle.Render("gpu  ")+ValueStyle.Render(model))
	}

	lines = append(lines, "")
	lines = append(lines, TitleStyle.Render("Network"))
	lines = append(lines, m.renderNetworkRows(snap)...)

	return PanelStyle.Width(sidebarWidth - 2).Render(strings.Join(lines, "\n"))
}

// renderNetworkRows formats one "name ↓rate ↑rate" row per interface.
func (m Model) renderNetworkRows(snap *metrics.Snapshot) []string {
	status := m.sampler.Statuses()["network"]
	switch status.Status {
	case metrics.StatusDisabled:
		return []string{MutedStyle.Render("disabled")}
	case metrics.StatusUnavailable:
		return []string{MutedStyle.Render(status.Reason)}
	}

	if len(snap.Network) == 0 {
		return []string{MutedStyle.Render("no traffic data yet")}
	}

	secs := m.interval.Seconds()
	if secs <= 0 {
		secs = 1
	}
	rows := make([]string, 0, len(snap.Network))
	for _, iface := range snap.Network {
		rx := float64(iface.RxBytes) / secs
		tx := float64(iface.TxBytes) / secs
		rows = append(rows, fmt.Sprintf("%s %s %s",
			LabelStyle.Render(padName(iface.Name, 8)),
			lipgloss.NewStyle().Foreground(ColorNetwork).Render("↓"+FormatRate(rx)),
			lipgloss.NewStyle().Foreground(ColorNetwork).Render("↑"+FormatRate(tx))))
	}
	return rows
}

// renderFooter shows key hints plus a degradation marker when any source is
// reusing stale values.
func (m Model) renderFooter() string {
	hint := "q quit"
	for name, st := range m.sampler.Statuses() {
		if st.Degraded {
			hint += "  ·  " + name + " degraded"
		}
	}
	return FooterStyle.Render(hint)
}

// labelRow renders "NAME value" with the value colored by severity.
func labelRow(name, detail string, percent float64) string {
	return LabelStyle.Render(padName(name, 5)) + MetricStyle(percent).Render(detail)
}

func padName(name string, width int) string {
	if len(name) >= width {
		return name
	}
	return name + strings.Repeat(" ", width-len(name))
}
