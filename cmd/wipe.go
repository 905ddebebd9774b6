package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var flagWipeYes bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every venue, entry, budget and setting",
	RunE:  runWipe,
}

func init() {
	wipeCmd.Flags().BoolVarP(&flagWipeYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(wipeCmd)
}

func runWipe(cmd *cobra.Command, _ []string) error {
	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	st := l.State()
	out := cmd.OutOrStdout()

	if !flagWipeYes {
		confirmed := false
		err := huh.NewConfirm().
			Title("Wipe the ledger?").
			Description(fmt.Sprintf("This deletes %d venues and %d entries and resets budgets and settings. It cannot be undone.",
				len(st.Venues), len(st.Entries))).
			Affirmative("Wipe").
			Negative("Keep").
			Value(&confirmed).
			Run()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				_, _ = fmt.Fprintln(out, "  Nothing changed.")
				return nil
			}
			return fmt.Errorf("confirm: %w", err)
		}
		if !confirmed {
			_, _ = fmt.Fprintln(out, "  Nothing changed.")
			return nil
		}
	}

	if err := l.ClearAll(cmd.Context()); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "  Ledger wiped.")
	return nil
}
