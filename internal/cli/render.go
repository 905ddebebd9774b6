package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Palette for plain CLI output
var (
	ColorBorder    = lipgloss.Color("#2F4553")
	ColorTextDim   = lipgloss.Color("#557086")
	ColorTextMuted = lipgloss.Color("#8CA3B8")
	ColorText      = lipgloss.Color("#F4F7FA")
	ColorAccent    = lipgloss.Color("#1475E1")
	ColorGreen     = lipgloss.Color("#00E701")
	ColorOrange    = lipgloss.Color("#FF9D00")
	ColorRed       = lipgloss.Color("#ED4163")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	goodStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	badStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorRed)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
	// LeftCols is how many leading columns are left-aligned; the rest are
	// right-aligned. Zero means one.
	LeftCols int
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
// A row holding the single cell "---" renders as a separator.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	leftCols := t.LeftCols
	if leftCols <= 0 {
		leftCols = 1
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(pad(h, widths[i], i < leftCols)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		rule("├", "┼", "┤")
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule("├", "┼", "┤")
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(valueStyle.Render(pad(cell, widths[i], i < leftCols)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╰", "┴", "╯")

	return b.String()
}

// pad fits cell into w display columns with one space of margin on each side.
func pad(cell string, w int, left bool) string {
	gap := w - lipgloss.Width(cell)
	if gap < 0 {
		gap = 0
	}
	if left {
		return " " + cell + strings.Repeat(" ", gap) + " "
	}
	return " " + strings.Repeat(" ", gap) + cell + " "
}

// RenderLimitBar renders spent against a limit, e.g. "[████░░░░] 50% of €100.00".
// Returns "no limit" when the limit is zero.
func RenderLimitBar(spent, limit decimal.Decimal, width int, m Money) string {
	if !limit.IsPositive() {
		return mutedStyle.Render("no limit")
	}

	pct := Usage(spent, limit)
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	style := goodStyle
	switch {
	case spent.GreaterThanOrEqual(limit):
		style = badStyle
	case pct >= 0.8:
		style = warnStyle
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	label := FormatPercent(spent.Div(limit).InexactFloat64())
	if m.Hide {
		label = HiddenMask
	}
	return fmt.Sprintf("[%s] %s of %s", style.Render(bar), label, m.Format(limit))
}

// RenderBadge returns the status badge for a spend/limit pair: "OVER" when
// strictly above, "LIMIT" when exactly at it, empty otherwise.
func RenderBadge(spent, limit decimal.Decimal) string {
	switch {
	case !limit.IsPositive():
		return ""
	case spent.GreaterThan(limit):
		return badStyle.Render("OVER")
	case spent.Equal(limit):
		return warnStyle.Render("LIMIT")
	default:
		return ""
	}
}

// RenderNet colours a net amount green when positive and red when negative.
func RenderNet(net decimal.Decimal, m Money) string {
	s := m.Signed(net)
	switch {
	case m.Hide:
		return s
	case net.IsPositive():
		return goodStyle.Render(s)
	case net.IsNegative():
		return badStyle.Render(s)
	default:
		return s
	}
}

// RenderSparkline generates a unicode block sparkline from a series of values.
// Negative values are shifted so the minimum maps to the lowest block.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo > 0 {
		lo = 0
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(blocks)-1))
		idx = max(0, min(idx, len(blocks)-1))
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// Muted renders s in the muted text colour.
func Muted(s string) string { return mutedStyle.Render(s) }
