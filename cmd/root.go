// Package cmd implements the stakeledger CLI commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/stakeledger/internal/cli"
	"github.com/theirongolddev/stakeledger/internal/config"
	"github.com/theirongolddev/stakeledger/internal/ledger"
	"github.com/theirongolddev/stakeledger/internal/logging"
	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/store"
)

var (
	flagDBPath   string
	flagLogLevel string

	appCfg = config.DefaultConfig()

	nowFunc = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "stakeledger",
	Short: "Personal gambling spend ledger",
	Long: "Track what you spend and win at each venue, set weekly and monthly limits,\n" +
		"and put a cooldown between yourself and the next session once a limit is hit.",
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Ledger database path (default from config or $"+config.EnvDBPath+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func initApp(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appCfg = cfg

	level := config.LogLevel(cfg)
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logging.Setup(level)
	return nil
}

func dbPath() string {
	if flagDBPath != "" {
		return flagDBPath
	}
	return config.DBPath(appCfg)
}

// openLedger opens the sqlite store and loads the ledger from it.
// The returned func closes the store.
func openLedger(ctx context.Context) (*ledger.Ledger, func(), error) {
	db, err := store.Open(dbPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening ledger database: %w", err)
	}
	l, err := ledger.Open(ctx, db, ledger.WithLogger(slog.Default()))
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return l, func() { _ = db.Close() }, nil
}

func moneyFor(s model.Settings) cli.Money {
	return cli.Money{Symbol: s.CurrencySymbol, Hide: s.HideBalances}
}

// resolveVenue finds a venue by id or case-insensitive name.
func resolveVenue(l *ledger.Ledger, ref string) (model.Venue, error) {
	v, err := l.ResolveVenue(ref)
	if err != nil {
		return model.Venue{}, fmt.Errorf("%w (see `stakeledger venue ls`)", err)
	}
	return v, nil
}
