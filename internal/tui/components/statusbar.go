package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/stakeledger/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar with key hints on the left
// and a status note (flash message or error) on the right.
func RenderStatusBar(width int, hints, note string, isError bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	noteStyle := lipgloss.NewStyle().Foreground(t.Accent)
	if isError {
		noteStyle = noteStyle.Foreground(t.Red)
	}

	left := " " + hints
	right := ""
	if note != "" {
		right = noteStyle.Render(note) + " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
