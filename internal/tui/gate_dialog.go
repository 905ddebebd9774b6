package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/stakeledger/internal/cli"
	"github.com/theirongolddev/stakeledger/internal/gate"
	"github.com/theirongolddev/stakeledger/internal/tui/components"
	"github.com/theirongolddev/stakeledger/internal/tui/theme"
)

// gateDialog is the modal shown while the cooldown gate is in flight.
// It is shared by pointer between App copies.
type gateDialog struct {
	gate   *gate.Gate
	venue  string
	input  textinput.Model
	spin   spinner.Model
	status gate.Status

	done    bool
	outcome gate.State
}

func newGateDialog(g *gate.Gate, venueName string, now time.Time) *gateDialog {
	ti := textinput.New()
	ti.Placeholder = "Why do you want to keep playing?"
	ti.CharLimit = 200
	ti.Width = 48
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Moon

	return &gateDialog{
		gate:   g,
		venue:  venueName,
		input:  ti,
		spin:   sp,
		status: g.Status(now),
	}
}

func (d *gateDialog) updateSpinner(msg spinner.TickMsg) tea.Cmd {
	if d.done || d.status.State != gate.Cooling {
		return nil
	}
	var cmd tea.Cmd
	d.spin, cmd = d.spin.Update(msg)
	return cmd
}

func (d *gateDialog) tick(now time.Time) {
	if d.done {
		return
	}
	d.status = d.gate.Status(now)
}

func (d *gateDialog) update(msg tea.KeyMsg, now time.Time) tea.Cmd {
	d.status = d.gate.Status(now)

	switch msg.String() {
	case "esc":
		d.finish(now)
		return nil
	case "enter":
		switch d.status.State {
		case gate.AwaitingReason:
			_, err := d.gate.Advance(gate.Start(d.input.Value()), now)
			d.status = d.gate.Status(now)
			if err == nil {
				d.input.Blur()
				return d.spin.Tick
			}
		case gate.Ready:
			d.finish(now)
		}
		return nil
	}

	if d.status.State == gate.AwaitingReason {
		var cmd tea.Cmd
		d.input, cmd = d.input.Update(msg)
		return cmd
	}
	return nil
}

// finish closes the gate. The outcome is ALLOWED only once the deadline passed.
func (d *gateDialog) finish(now time.Time) {
	st, err := d.gate.Advance(gate.Close(), now)
	if err != nil {
		st = gate.Cancelled
	}
	d.done = true
	d.outcome = st
}

func (d *gateDialog) view(width int) string {
	t := theme.Active
	s := d.status

	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange)
	okStyle := lipgloss.NewStyle().Foreground(t.Green).Bold(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Commitment mode"))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render(triggerText(s.Trigger, d.venue)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Take a %s break before logging more play.",
		cli.FormatDuration(int64(s.Minutes)*60))))
	b.WriteString("\n\n")

	switch s.State {
	case gate.AwaitingReason:
		b.WriteString(d.input.View())
		if s.Message != "" {
			b.WriteString("\n")
			b.WriteString(warnStyle.Render(s.Message))
		}
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render("[enter] start cooldown  [esc] cancel"))
	case gate.Cooling:
		b.WriteString(mutedStyle.Render("Reason: " + s.Reason))
		b.WriteString("\n\n")
		total := time.Duration(s.Minutes) * time.Minute
		b.WriteString(components.CooldownBar(total, s.Remaining, 40))
		b.WriteString("\n")
		b.WriteString(d.spin.View() + " " + textStyle.Render(s.Message))
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render("[esc] cancel"))
	case gate.Ready:
		b.WriteString(okStyle.Render(s.Message))
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render("[enter] log entry  [esc] close"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2).
		Width(min(60, max(width-4, 30)))

	return box.Render(b.String())
}

func triggerText(tr gate.Trigger, venue string) string {
	var reached []string
	if tr.Venue {
		reached = append(reached, fmt.Sprintf("the weekly limit for %s", venue))
	}
	if tr.Weekly {
		reached = append(reached, "your weekly budget")
	}
	if tr.Monthly {
		reached = append(reached, "your monthly budget")
	}
	if len(reached) == 0 {
		return "A spending limit has been reached."
	}
	return "You have reached " + strings.Join(reached, " and ") + "."
}
