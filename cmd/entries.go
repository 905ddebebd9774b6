package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/stakeledger/internal/cli"
	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/pipeline"
)

var (
	flagEntriesVenue string
	flagEntriesWeek  bool
	flagEntriesMonth bool
	flagEntriesLimit int
)

var entriesCmd = &cobra.Command{
	Use:     "entries",
	Aliases: []string{"history"},
	Short:   "List logged entries, newest first",
	RunE:    runEntriesList,
}

var entriesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List logged entries, newest first",
	RunE:  runEntriesList,
}

var entriesRmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"delete"},
	Short:   "Delete an entry",
	Args:    cobra.ExactArgs(1),
	RunE:    runEntriesRemove,
}

func init() {
	for _, c := range []*cobra.Command{entriesCmd, entriesLsCmd} {
		c.Flags().StringVar(&flagEntriesVenue, "venue", "", "Only entries for this venue")
		c.Flags().BoolVar(&flagEntriesWeek, "week", false, "Only entries from the current week")
		c.Flags().BoolVar(&flagEntriesMonth, "month", false, "Only entries from the current month")
		c.Flags().IntVarP(&flagEntriesLimit, "limit", "l", 20, "Max entries to show (0 for all)")
	}

	entriesCmd.AddCommand(entriesLsCmd, entriesRmCmd)
	rootCmd.AddCommand(entriesCmd)
}

func runEntriesList(cmd *cobra.Command, _ []string) error {
	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	st := l.State()
	now := nowFunc()
	entries := st.Entries

	title := "Entries"
	switch {
	case flagEntriesWeek:
		entries = pipeline.FilterByWeek(entries, now)
		title += "  this week"
	case flagEntriesMonth:
		entries = pipeline.FilterByMonth(entries, now)
		title += "  this month"
	}

	if flagEntriesVenue != "" {
		v, err := resolveVenue(l, flagEntriesVenue)
		if err != nil {
			return err
		}
		entries = filterByVenue(entries, v.ID)
		title += "  " + v.Name
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "\n  No entries found.")
		return nil
	}

	entries = pipeline.History(entries)
	shown := entries
	if flagEntriesLimit > 0 && len(shown) > flagEntriesLimit {
		shown = shown[:flagEntriesLimit]
	}

	m := moneyFor(st.Settings)
	rows := make([][]string, 0, len(shown)+2)
	for _, e := range shown {
		name := "(none)"
		if v, ok := st.Venue(e.VenueID); ok {
			name = v.Name
		}
		rows = append(rows, []string{
			e.ID,
			cli.FormatDate(e.Timestamp.In(now.Location())),
			name,
			e.Notes,
			m.Format(e.Spent),
			m.Format(e.Won),
			m.Signed(e.Net()),
		})
	}

	tot := pipeline.Sum(entries)
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{
		fmt.Sprintf("%d entries", len(entries)), "", "", "",
		m.Format(tot.Spent), m.Format(tot.Won), m.Signed(tot.Net),
	})

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, cli.RenderTable(cli.Table{
		Title:    title,
		Headers:  []string{"ID", "When", "Venue", "Notes", "Spent", "Won", "Net"},
		Rows:     rows,
		LeftCols: 4,
	}))
	if len(shown) < len(entries) {
		_, _ = fmt.Fprintf(out, "  %s\n", cli.Muted(fmt.Sprintf("Showing %d of %d. Use --limit 0 for all.", len(shown), len(entries))))
	}
	return nil
}

func filterByVenue(entries []model.Entry, venueID string) []model.Entry {
	var out []model.Entry
	for _, e := range entries {
		if e.VenueID == venueID {
			out = append(out, e)
		}
	}
	return out
}

func runEntriesRemove(cmd *cobra.Command, args []string) error {
	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	found := false
	for _, e := range l.State().Entries {
		if e.ID == args[0] {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no entry with id %q", args[0])
	}

	if err := l.DeleteEntry(cmd.Context(), args[0]); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Deleted entry %s\n", args[0])
	return nil
}
