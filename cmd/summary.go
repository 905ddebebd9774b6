package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/stakeledger/internal/cli"
	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/pipeline"
)

const summaryDays = 8

var flagSummaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "This week's and month's spend, budgets and venue limits",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().BoolVar(&flagSummaryJSON, "json", false, "Print the summary as JSON")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	now := nowFunc()
	st := l.State()
	sum := pipeline.ComputeSummary(st, now)
	out := cmd.OutOrStdout()

	if flagSummaryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	if len(st.Venues) == 0 && len(st.Entries) == 0 {
		_, _ = fmt.Fprintln(out, "\n  Nothing logged yet.")
		_, _ = fmt.Fprintln(out, "  Add a venue with `stakeledger venue add NAME`, then `stakeledger log`.")
		return nil
	}

	m := moneyFor(st.Settings)

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, cli.RenderTitle(fmt.Sprintf("STAKELEDGER  %s  %s", sum.Week.Key, sum.Month.Key)))
	_, _ = fmt.Fprintln(out)

	rows := [][]string{
		periodRow("This week", sum.Week.Totals, sum.Week.Budget, sum.Week.Remaining(), m),
		periodRow("This month", sum.Month.Totals, sum.Month.Budget, sum.Month.Remaining(), m),
	}
	_, _ = fmt.Fprint(out, cli.RenderTable(cli.Table{
		Headers: []string{"Period", "Spent", "Won", "Net", "Budget", "Remaining", ""},
		Rows:    rows,
	}))

	if sum.Week.Budget.IsPositive() || sum.Month.Budget.IsPositive() {
		_, _ = fmt.Fprintln(out)
		if sum.Week.Budget.IsPositive() {
			_, _ = fmt.Fprintf(out, "  Week   %s\n", cli.RenderLimitBar(sum.Week.Spent, sum.Week.Budget, 30, m))
		}
		if sum.Month.Budget.IsPositive() {
			_, _ = fmt.Fprintf(out, "  Month  %s\n", cli.RenderLimitBar(sum.Month.Spent, sum.Month.Budget, 30, m))
		}
	}

	if len(sum.Week.ByVenue) > 0 {
		venueRows := make([][]string, 0, len(sum.Week.ByVenue))
		for _, v := range sum.Week.ByVenue {
			venueRows = append(venueRows, []string{
				v.Name,
				m.Format(v.Spent),
				m.Format(v.Won),
				m.Limit(v.WeeklyLimit),
				usedCell(v.Spent, v.WeeklyLimit),
				cli.RenderBadge(v.Spent, v.WeeklyLimit),
			})
		}
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprint(out, cli.RenderTable(cli.Table{
			Title:   "Venues this week",
			Headers: []string{"Venue", "Spent", "Won", "Weekly limit", "Used", ""},
			Rows:    venueRows,
		}))
	}

	days := pipeline.DailyNet(st.Entries, now.Location(), summaryDays)
	if len(days) > 0 {
		values := make([]float64, len(days))
		for i, d := range days {
			values[i] = d.Net.InexactFloat64()
		}
		last := days[len(days)-1]
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintf(out, "  Daily net  %s  %s\n", cli.RenderSparkline(values),
			cli.Muted(fmt.Sprintf("last %s %s", last.Date.Format("Jan 02"), m.Signed(last.Net))))
	}

	if st.Settings.CommitmentMode {
		_, _ = fmt.Fprintf(out, "\n  %s\n", cli.Muted(fmt.Sprintf("Commitment mode on, %d min cooldown", st.Settings.CooldownMinutes)))
	}
	return nil
}

func periodRow(label string, t model.Totals, budget, remaining decimal.Decimal, m cli.Money) []string {
	return []string{
		label,
		m.Format(t.Spent),
		m.Format(t.Won),
		cli.RenderNet(t.Net, m),
		m.Limit(budget),
		remainingCell(m, budget, remaining),
		cli.RenderBadge(t.Spent, budget),
	}
}

func remainingCell(m cli.Money, budget, remaining decimal.Decimal) string {
	if !budget.IsPositive() {
		return "-"
	}
	return m.Format(remaining)
}

func usedCell(spent, limit decimal.Decimal) string {
	if !limit.IsPositive() {
		return "-"
	}
	return cli.FormatPercent(spent.Div(limit).InexactFloat64())
}
