package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/stakeledger/internal/cli"
	"github.com/theirongolddev/stakeledger/internal/ledger"
	"github.com/theirongolddev/stakeledger/internal/pipeline"
)

var (
	flagVenueWeekly  string
	flagVenueMonthly string
)

var venueCmd = &cobra.Command{
	Use:     "venue",
	Aliases: []string{"venues"},
	Short:   "Manage venues and their limits",
	RunE:    runVenueList,
}

var venueAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a venue",
	Args:  cobra.ExactArgs(1),
	RunE:  runVenueAdd,
}

var venueLimitsCmd = &cobra.Command{
	Use:   "limits VENUE",
	Short: "Set a venue's weekly and monthly limits (0 for none)",
	Args:  cobra.ExactArgs(1),
	RunE:  runVenueLimits,
}

var venueRmCmd = &cobra.Command{
	Use:     "rm VENUE",
	Aliases: []string{"remove"},
	Short:   "Remove a venue and all of its entries",
	Args:    cobra.ExactArgs(1),
	RunE:    runVenueRemove,
}

var venueLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List venues with this week's spend",
	RunE:  runVenueList,
}

func init() {
	for _, c := range []*cobra.Command{venueAddCmd, venueLimitsCmd} {
		c.Flags().StringVarP(&flagVenueWeekly, "weekly", "w", "0", "Weekly limit")
		c.Flags().StringVarP(&flagVenueMonthly, "monthly", "m", "0", "Monthly limit")
	}

	venueCmd.AddCommand(venueAddCmd, venueLimitsCmd, venueRmCmd, venueLsCmd)
	rootCmd.AddCommand(venueCmd)
}

func runVenueAdd(cmd *cobra.Command, args []string) error {
	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	id, err := l.AddVenue(cmd.Context(), args[0], ledger.ParseAmount(flagVenueWeekly), ledger.ParseAmount(flagVenueMonthly))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Added venue %s (%s)\n", args[0], id)
	return nil
}

func runVenueLimits(cmd *cobra.Command, args []string) error {
	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	v, err := resolveVenue(l, args[0])
	if err != nil {
		return err
	}

	weekly, monthly := v.WeeklyLimit, v.MonthlyLimit
	if cmd.Flags().Changed("weekly") {
		weekly = ledger.ParseAmount(flagVenueWeekly)
	}
	if cmd.Flags().Changed("monthly") {
		monthly = ledger.ParseAmount(flagVenueMonthly)
	}
	if err := l.UpdateVenueLimits(cmd.Context(), v.ID, weekly, monthly); err != nil {
		return err
	}

	m := moneyFor(l.State().Settings)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s: weekly %s, monthly %s\n",
		v.Name, m.Limit(ledger.NonNegative(weekly)), m.Limit(ledger.NonNegative(monthly)))
	return nil
}

func runVenueRemove(cmd *cobra.Command, args []string) error {
	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	v, err := resolveVenue(l, args[0])
	if err != nil {
		return err
	}

	before := len(l.State().Entries)
	if err := l.RemoveVenue(cmd.Context(), v.ID); err != nil {
		return err
	}
	removed := before - len(l.State().Entries)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Removed %s and %d entries\n", v.Name, removed)
	return nil
}

func runVenueList(cmd *cobra.Command, _ []string) error {
	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	st := l.State()
	out := cmd.OutOrStdout()
	if len(st.Venues) == 0 {
		_, _ = fmt.Fprintln(out, "\n  No venues yet. Add one with `stakeledger venue add NAME`.")
		return nil
	}

	sum := pipeline.Summarize(l, nowFunc())
	m := moneyFor(st.Settings)

	rows := make([][]string, 0, len(st.Venues))
	for _, v := range st.Venues {
		vw, _ := sum.Week.Venue(v.ID)
		rows = append(rows, []string{
			v.Name,
			m.Format(vw.Spent),
			m.Format(vw.Won),
			m.Limit(v.WeeklyLimit),
			m.Limit(v.MonthlyLimit),
			cli.RenderBadge(vw.Spent, v.WeeklyLimit),
			v.ID,
		})
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, cli.RenderTable(cli.Table{
		Title:   "Venues  " + sum.Week.Key,
		Headers: []string{"Venue", "Week spent", "Week won", "Weekly limit", "Monthly limit", "", "ID"},
		Rows:    rows,
	}))
	return nil
}
