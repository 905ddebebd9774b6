package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/stakeledger/internal/cli"
)

type helpResource struct {
	Name string
	What string
	URL  string
}

var helpResources = []helpResource{
	{"BeGambleAware", "Free, confidential advice and support", "https://www.begambleaware.org"},
	{"GamCare", "Helpline, live chat and treatment", "https://www.gamcare.org.uk"},
	{"Gamblers Anonymous", "Peer support meetings", "https://www.gamblersanonymous.org"},
	{"GAMSTOP", "Self-exclusion from online gambling sites", "https://www.gamstop.co.uk"},
}

var resourcesCmd = &cobra.Command{
	Use:     "resources",
	Aliases: []string{"help-links"},
	Short:   "Where to get help with gambling",
	RunE:    runResources,
}

func init() {
	rootCmd.AddCommand(resourcesCmd)
}

func runResources(cmd *cobra.Command, _ []string) error {
	rows := make([][]string, 0, len(helpResources))
	for _, r := range helpResources {
		rows = append(rows, []string{r.Name, r.What, r.URL})
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, cli.RenderTable(cli.Table{
		Title:    "Help and support",
		Headers:  []string{"Organisation", "", "Link"},
		Rows:     rows,
		LeftCols: 3,
	}))
	return nil
}
