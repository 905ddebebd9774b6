package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/stakeledger/internal/config"
	"github.com/theirongolddev/stakeledger/internal/ledger"
	"github.com/theirongolddev/stakeledger/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg := appCfg
	out := cmd.OutOrStdout()

	_, _ = fmt.Fprintf(out, "  Config file: %s\n", config.Path())
	if config.Exists() {
		_, _ = fmt.Fprintln(out, "  Status: loaded")
	} else {
		_, _ = fmt.Fprintln(out, "  Status: using defaults (no config file)")
	}
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintln(out, "  [General]")
	_, _ = fmt.Fprintf(out, "    Ledger database: %s\n", dbPath())
	_, _ = fmt.Fprintf(out, "    Last entry write: %s\n", lastWrite(cmd))
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintln(out, "  [Appearance]")
	_, _ = fmt.Fprintf(out, "    Theme: %s\n", cfg.Appearance.Theme)
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintln(out, "  [Logging]")
	_, _ = fmt.Fprintf(out, "    Level: %s\n", config.LogLevel(cfg))
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintln(out, "  [Daemon]")
	_, _ = fmt.Fprintf(out, "    Address:       %s\n", cfg.Daemon.Addr)
	_, _ = fmt.Fprintf(out, "    Interval:      %ds\n", cfg.Daemon.IntervalSec)
	_, _ = fmt.Fprintf(out, "    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintln(out, "  Run `stakeledger setup` to reconfigure.")
	return nil
}

// lastWrite reports when the entries document was last saved, without
// creating the database if it does not exist yet.
func lastWrite(cmd *cobra.Command) string {
	path := dbPath()
	if _, err := os.Stat(path); err != nil {
		return "no ledger yet"
	}
	db, err := store.Open(path)
	if err != nil {
		return fmt.Sprintf("unreadable (%v)", err)
	}
	defer func() { _ = db.Close() }()

	ts, err := db.UpdatedAt(cmd.Context(), ledger.KeyEntries)
	switch {
	case err != nil:
		return fmt.Sprintf("unreadable (%v)", err)
	case ts.IsZero():
		return "never"
	}
	return ts.Local().Format(time.RFC3339)
}
