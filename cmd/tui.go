package cmd

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/stakeledger/internal/config"
	"github.com/theirongolddev/stakeledger/internal/gate"
	"github.com/theirongolddev/stakeledger/internal/tui"
	"github.com/theirongolddev/stakeledger/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:     "tui",
	Aliases: []string{"dash"},
	Short:   "Launch the interactive dashboard",
	RunE:    runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// The ledger's theme setting replaces this once the app loads.
	theme.SetActive(appCfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	firstRun := !config.Exists()
	opts := []tui.Option{tui.WithClock(nowFunc)}
	if firstRun {
		opts = append(opts, tui.WithSetup())
	}

	g := gate.New(l, gate.WithLogger(slog.Default()))
	app := tui.NewApp(cmd.Context(), l, g, opts...)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if firstRun {
		cfg := appCfg
		cfg.Appearance.Theme = l.State().Settings.Theme
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
	}
	return nil
}
