package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/stakeledger/internal/cli"
	"github.com/theirongolddev/stakeledger/internal/ledger"
	"github.com/theirongolddev/stakeledger/internal/pipeline"
)

var (
	flagBudgetWeekly  string
	flagBudgetMonthly string
)

var budgetCmd = &cobra.Command{
	Use:     "budget",
	Aliases: []string{"budgets"},
	Short:   "Show or set the global weekly and monthly budgets (0 for none)",
	Example: "  stakeledger budget\n  stakeledger budget --weekly 100 --monthly 350",
	RunE:    runBudget,
}

func init() {
	budgetCmd.Flags().StringVarP(&flagBudgetWeekly, "weekly", "w", "0", "Weekly budget")
	budgetCmd.Flags().StringVarP(&flagBudgetMonthly, "monthly", "m", "0", "Monthly budget")
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(cmd *cobra.Command, _ []string) error {
	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	flags := cmd.Flags()
	if flags.Changed("weekly") || flags.Changed("monthly") {
		b := l.State().Budgets
		if flags.Changed("weekly") {
			b.Weekly = ledger.ParseAmount(flagBudgetWeekly)
		}
		if flags.Changed("monthly") {
			b.Monthly = ledger.ParseAmount(flagBudgetMonthly)
		}
		if err := l.SetBudgets(cmd.Context(), b); err != nil {
			return err
		}
	}

	st := l.State()
	sum := pipeline.ComputeSummary(st, nowFunc())
	m := moneyFor(st.Settings)

	rows := [][]string{
		{"Week " + sum.Week.Key, m.Limit(sum.Week.Budget), m.Format(sum.Week.Spent), remainingCell(m, sum.Week.Budget, sum.Week.Remaining()), cli.RenderBadge(sum.Week.Spent, sum.Week.Budget)},
		{"Month " + sum.Month.Key, m.Limit(sum.Month.Budget), m.Format(sum.Month.Spent), remainingCell(m, sum.Month.Budget, sum.Month.Remaining()), cli.RenderBadge(sum.Month.Spent, sum.Month.Budget)},
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, cli.RenderTable(cli.Table{
		Title:   "Budgets",
		Headers: []string{"Period", "Budget", "Spent", "Remaining", ""},
		Rows:    rows,
	}))
	return nil
}
