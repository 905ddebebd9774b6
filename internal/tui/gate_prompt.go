package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/stakeledger/internal/gate"
)

// GatePrompt runs the cooldown dialog on its own, outside the dashboard.
// The gate must already be awaiting a reason.
type GatePrompt struct {
	dialog *gateDialog
	clock  func() time.Time
	width  int
}

// NewGatePrompt wraps an in-flight gate for venueName.
func NewGatePrompt(g *gate.Gate, venueName string, clock func() time.Time) GatePrompt {
	if clock == nil {
		clock = time.Now
	}
	return GatePrompt{dialog: newGateDialog(g, venueName, clock()), clock: clock, width: 64}
}

// Outcome is ALLOWED or CANCELLED once the prompt has finished.
func (p GatePrompt) Outcome() gate.State {
	if !p.dialog.done {
		return gate.Cancelled
	}
	return p.dialog.outcome
}

// Init implements tea.Model.
func (p GatePrompt) Init() tea.Cmd {
	return tea.Batch(tickCmd(), textinput.Blink)
}

// Update implements tea.Model.
func (p GatePrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		return p, nil
	case tickMsg:
		p.dialog.tick(time.Time(msg))
		return p, tickCmd()
	case spinner.TickMsg:
		return p, p.dialog.updateSpinner(msg)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			p.dialog.finish(p.clock())
			return p, tea.Quit
		}
		cmd := p.dialog.update(msg, p.clock())
		if p.dialog.done {
			return p, tea.Quit
		}
		return p, cmd
	}

	var cmd tea.Cmd
	p.dialog.input, cmd = p.dialog.input.Update(msg)
	return p, cmd
}

// View implements tea.Model.
func (p GatePrompt) View() string {
	if p.dialog.done {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(p.dialog.view(p.width))
}

// RunGatePrompt shows the cooldown dialog in the terminal and returns the
// gate's resolution.
func RunGatePrompt(g *gate.Gate, venueName string) (gate.State, error) {
	final, err := tea.NewProgram(NewGatePrompt(g, venueName, nil)).Run()
	if err != nil {
		return gate.Cancelled, fmt.Errorf("cooldown prompt: %w", err)
	}
	p, ok := final.(GatePrompt)
	if !ok {
		return gate.Cancelled, nil
	}
	return p.Outcome(), nil
}
