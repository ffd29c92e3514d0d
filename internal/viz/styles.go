package viz

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelStyle  = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(46)
	headerStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)

	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
)

// badge renders a bold status word in c.
func badge(c lipgloss.Color, text string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(c).Render(text)
}

// ProgressBar renders frac in [0, 1] as a bar whose fill runs from the
// theme's Down colour to its Up colour as the run completes.
func ProgressBar(t Theme, frac float64, width int) string {
	frac = min(max(frac, 0), 1)
	filled := int(frac * float64(width))

	fill := lipgloss.NewStyle().Foreground(SzColor(t, 2*frac-1))
	empty := lipgloss.NewStyle().Foreground(t.Muted)
	return fill.Render(strings.Repeat("█", filled)) + empty.Render(strings.Repeat("░", width-filled))
}

var sparkRunes = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SparklineChart renders the last width values as a one-line chart scaled
// to their own range.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	for _, v := range values {
		sb.WriteRune(sparkRunes[int((v-lo)/span*float64(len(sparkRunes)-1))])
	}
	return sb.String()
}

// Separator draws a rule in the theme's muted colour.
func Separator(t Theme, width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return lipgloss.NewStyle().Foreground(t.Muted).Render(left + " ◆ " + right)
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	return parseHexByte(hex[1:3]), parseHexByte(hex[3:5]), parseHexByte(hex[5:7])
}

func parseHexByte(s string) int {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 255
	}
	return int(v)
}

func hexColor(r, g, b int) string {
	clamp := func(v int) int { return min(max(v, 0), 255) }
	return "#" + strconv.FormatInt(int64(0x100+clamp(r)), 16)[1:] +
		strconv.FormatInt(int64(0x100+clamp(g)), 16)[1:] +
		strconv.FormatInt(int64(0x100+clamp(b)), 16)[1:]
}
