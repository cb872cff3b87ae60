package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille rendering packs a 2x4 dot matrix into each character cell, giving
// graphs four times the vertical resolution of block characters. Unicode
// braille starts at U+2800 with one bit per dot.

const brailleBase = '⠀'

// brailleDots maps [row][col] to the bit offset of that dot, rows top to
// bottom, columns left to right.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

// sparklineBlocks are block characters for single-row sparklines, lowest to
// highest.
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// normalize converts a 0-100 percentage to the 0-1 range.
func normalize(val float64) float64 {
	if val < 0 {
		return 0
	}
	if val > 100 {
		return 1
	}
	return val / 100
}

// BrailleGraph renders a percentage series as a braille graph of the given
// character dimensions. Each character column holds two data points; columns
// are colored by their peak value when threshold is true, otherwise with the
// base color. Short series fill from the right.
func BrailleGraph(data []float64, width, height int, base lipgloss.Color, threshold bool) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	totalDots := height * 4
	targetPoints := width * 2

	points := data
	if len(data) > targetPoints {
		points = Resample(data, targetPoints)
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = brailleBase
		}
	}

	colPeaks := make([]float64, width)
	offset := targetPoints - len(points)

	for i, val := range points {
		dotHeight := clampInt(int(normalize(val)*float64(totalDots)), totalDots)

		charCol := (i + offset) / 2
		if charCol >= width {
			continue
		}
		if val > colPeaks[charCol] {
			colPeaks[charCol] = val
		}
		subCol := (i + offset) % 2

		for dot := 0; dot < dotHeight; dot++ {
			row := height - 1 - (dot / 4)
			if row < 0 {
				continue
			}
			subRow := 3 - (dot % 4)
			grid[row][charCol] |= rune(1 << brailleDots[subRow][subCol])
		}
	}

	lines := make([]string, 0, height)
	for _, row := range grid {
		var b strings.Builder
		for col, char := range row {
			color := base
			if threshold {
				color = MetricColor(colPeaks[col])
			}
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(char)))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// BlockSparkline renders a single-row percentage sparkline in one color.
func BlockSparkline(data []float64, width int, color lipgloss.Color) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	var b strings.Builder
	for _, val := range Resample(data, width) {
		idx := clampInt(int(normalize(val)*float64(len(sparklineBlocks)-1)), len(sparklineBlocks)-1)
		b.WriteRune(sparklineBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Render(b.String())
}

// Resample fits data to targetSize points. Downsampling takes the max of
// each bucket so spikes survive compression; upsampling interpolates
// linearly.
func Resample(data []float64, targetSize int) []float64 {
	if len(data) == 0 || targetSize <= 0 {
		return nil
	}
	if len(data) == targetSize {
		return data
	}

	result := make([]float64, targetSize)

	if len(data) == 1 {
		for i := range result {
			result[i] = data[0]
		}
		return result
	}

	if len(data) > targetSize {
		bucket := float64(len(data)) / float64(targetSize)
		for i := 0; i < targetSize; i++ {
			start := int(float64(i) * bucket)
			end := int(float64(i+1) * bucket)
			if end > len(data) {
				end = len(data)
			}
			if start >= end {
				start = end - 1
			}
			maxVal := data[start]
			for j := start + 1; j < end; j++ {
				if data[j] > maxVal {
					maxVal = data[j]
				}
			}
			result[i] = maxVal
		}
		return result
	}

	scale := float64(len(data)-1) / float64(targetSize-1)
	for i := 0; i < targetSize; i++ {
		pos := float64(i) * scale
		idx := int(pos)
		frac := pos - float64(idx)
		if idx >= len(data)-1 {
			result[i] = data[len(data)-1]
		} else {
			result[i] = data[idx]*(1-frac) + data[idx+1]*frac
		}
	}
	return result
}
