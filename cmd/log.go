package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/stakeledger/internal/gate"
	"github.com/theirongolddev/stakeledger/internal/ledger"
	"github.com/theirongolddev/stakeledger/internal/tui"
)

var (
	flagLogSpent    string
	flagLogWon      string
	flagLogAt       string
	flagLogNotes    string
	flagLogCooldown int
	flagLogReason   string
)

var logCmd = &cobra.Command{
	Use:   "log VENUE",
	Short: "Log a spend/win entry for a venue",
	Long: "Log a spend/win entry. With commitment mode on and a limit reached, the entry\n" +
		"is only written after a reason is given and the cooldown has run out.",
	Args: cobra.ExactArgs(1),
	RunE: runLog,
}

func init() {
	logCmd.Flags().StringVarP(&flagLogSpent, "spent", "s", "0", "Amount spent")
	logCmd.Flags().StringVarP(&flagLogWon, "won", "w", "0", "Amount won")
	logCmd.Flags().StringVar(&flagLogAt, "at", "", "When it happened (RFC3339 or \"2006-01-02 15:04\"; default now)")
	logCmd.Flags().StringVarP(&flagLogNotes, "notes", "n", "", "Free-form notes")
	logCmd.Flags().IntVar(&flagLogCooldown, "cooldown", 0, "Cooldown minutes for this entry (default from settings)")
	logCmd.Flags().StringVar(&flagLogReason, "reason", "", "Reason to continue; waits out the cooldown without the prompt")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	l, closeFn, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	v, err := resolveVenue(l, args[0])
	if err != nil {
		return err
	}

	now := nowFunc()
	ts := now
	if flagLogAt != "" {
		ts, err = ledger.ParseTimestamp(flagLogAt)
		if err != nil {
			return err
		}
	}
	entry := ledger.NewEntry{
		Timestamp: ts,
		VenueID:   v.ID,
		Spent:     ledger.ParseAmount(flagLogSpent),
		Won:       ledger.ParseAmount(flagLogWon),
		Notes:     flagLogNotes,
	}

	g := gate.New(l, gate.WithLogger(slog.Default()))
	state, err := g.Advance(gate.Request(v.ID, flagLogCooldown), now)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if state != gate.Allowed {
		if flagLogReason != "" {
			state, err = waitCooldown(ctx, g, flagLogReason, out)
		} else {
			state, err = tui.RunGatePrompt(g, v.Name)
		}
		if err != nil {
			return err
		}
	}
	if state != gate.Allowed {
		_, _ = fmt.Fprintln(out, "  Entry not logged.")
		return nil
	}

	id, err := l.AddEntry(ctx, entry)
	if err != nil {
		return err
	}

	m := moneyFor(l.State().Settings)
	_, _ = fmt.Fprintf(out, "  Logged %s: spent %s, won %s, net %s (%s)\n",
		v.Name, m.Format(entry.Spent), m.Format(entry.Won), m.Signed(entry.Won.Sub(entry.Spent)), id)
	return nil
}

// waitCooldown starts the cooldown with reason and blocks until it runs out
// or ctx is cancelled, then closes the gate.
func waitCooldown(ctx context.Context, g *gate.Gate, reason string, out io.Writer) (gate.State, error) {
	if _, err := g.Advance(gate.Start(reason), nowFunc()); err != nil {
		if errors.Is(err, gate.ErrReasonRequired) {
			return gate.Cancelled, fmt.Errorf("--reason: %w", err)
		}
		return gate.Cancelled, err
	}

	st := g.Status(nowFunc())
	_, _ = fmt.Fprintf(out, "  %s\n", triggerLine(st.Trigger))

	ticker := time.NewTicker(gate.PollInterval)
	defer ticker.Stop()

	for st.State == gate.Cooling {
		_, _ = fmt.Fprintf(out, "\r  %s   ", st.Message)
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(out)
			return g.Advance(gate.Close(), nowFunc())
		case <-ticker.C:
		}
		st = g.Status(nowFunc())
	}
	_, _ = fmt.Fprintf(out, "\r  %s   \n", st.Message)
	return g.Advance(gate.Close(), nowFunc())
}

func triggerLine(tr gate.Trigger) string {
	switch {
	case tr.Venue:
		return "Weekly venue limit reached."
	case tr.Weekly:
		return "Weekly budget reached."
	case tr.Monthly:
		return "Monthly budget reached."
	}
	return "Limit reached."
}
