package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/stakeledger/internal/tui/theme"
)

// NetBars renders one horizontal bar per value, green for gains and red for
// losses, scaled to the largest magnitude. Labels and values are printed
// alongside each bar.
func NetBars(labels, values []string, magnitudes []float64, width int) string {
	if len(magnitudes) == 0 {
		return ""
	}
	t := theme.Active

	peak := 0.0
	for _, m := range magnitudes {
		if m < 0 {
			m = -m
		}
		peak = max(peak, m)
	}
	if peak == 0 {
		peak = 1
	}

	labelW, valueW := 0, 0
	for i := range magnitudes {
		labelW = max(labelW, lipgloss.Width(labels[i]))
		valueW = max(valueW, lipgloss.Width(values[i]))
	}
	barMax := width - labelW - valueW - 3
	if barMax < 4 {
		barMax = 4
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for i, m := range magnitudes {
		color := t.Green
		if m < 0 {
			color = t.Red
			m = -m
		}
		n := int(m / peak * float64(barMax))
		if n == 0 && m > 0 {
			n = 1
		}
		barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelW, labels[i])))
		b.WriteString(spaceStyle.Render(" "))
		b.WriteString(barStyle.Render(strings.Repeat("█", n)))
		b.WriteString(spaceStyle.Render(strings.Repeat(" ", barMax-n+1)))
		b.WriteString(barStyle.Render(fmt.Sprintf("%*s", valueW, values[i])))
	}
	return b.String()
}
