package cmd

import (
	"errors"
	"fmt"
	"net"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/stakeledger/internal/config"
	"github.com/theirongolddev/stakeledger/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfg := appCfg

	dbPath := cfg.General.DBPath
	if dbPath == "" {
		dbPath = config.DBPath(cfg)
	}
	themeName := cfg.Appearance.Theme
	level := cfg.Logging.Level
	addr := cfg.Daemon.Addr

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to stakeledger!").
				Description("A few defaults for this machine. Currency, budgets and\ncommitment mode are set from the dashboard or `stakeledger settings`."),
			huh.NewInput().
				Title("Ledger database").
				Value(&dbPath),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&level),
			huh.NewInput().
				Title("Daemon listen address").
				Validate(validateAddr).
				Value(&addr),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	cfg.General.DBPath = dbPath
	cfg.Appearance.Theme = themeName
	cfg.Logging.Level = level
	cfg.Daemon.Addr = addr

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "  Saved to %s\n", config.Path())
	_, _ = fmt.Fprintln(out, "  Run `stakeledger setup` anytime to reconfigure.")
	_, _ = fmt.Fprintln(out)
	return nil
}

func validateAddr(s string) error {
	if _, _, err := net.SplitHostPort(s); err != nil {
		return errors.New("expected host:port")
	}
	return nil
}
