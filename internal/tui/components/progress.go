package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/stakeledger/internal/cli"
	"github.com/theirongolddev/stakeledger/internal/tui/theme"
)

// ColorForPct returns green/yellow/orange/red based on limit usage.
func ColorForPct(pct float64) string {
	t := theme.Active
	switch {
	case pct >= 1:
		return string(t.Red)
	case pct >= 0.8:
		return string(t.Orange)
	case pct >= 0.5:
		return string(t.Yellow)
	default:
		return string(t.Green)
	}
}

// LimitBar renders a labeled spend-versus-limit bar, e.g.
// "Weekly   ████████░░░░ €80.00 / €100.00". Zero limits render as "no limit".
func LimitBar(label string, spent, limit decimal.Decimal, m cli.Money, labelW, barWidth int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	head := labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + spaceStyle.Render(" ")
	if !limit.IsPositive() {
		return head + dimStyle.Render("no limit")
	}

	pct := cli.Usage(spent, limit)
	if spent.GreaterThanOrEqual(limit) {
		pct = 1
	}

	bar := progress.New(
		progress.WithSolidFill(ColorForPct(pct)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	amountStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorForPct(pct))).Background(t.Surface).Bold(true)

	return head +
		bar.ViewAs(pct) +
		spaceStyle.Render(" ") +
		amountStyle.Render(m.Format(spent)) +
		dimStyle.Render(" / "+m.Format(limit))
}

// CooldownBar renders cooldown progress from start to deadline at now.
func CooldownBar(total, remaining time.Duration, barWidth int) string {
	t := theme.Active

	pct := 1.0
	if total > 0 {
		pct = 1 - float64(remaining)/float64(total)
	}
	pct = max(0, min(pct, 1))

	bar := progress.New(
		progress.WithSolidFill(string(t.Accent)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	return bar.ViewAs(pct)
}
