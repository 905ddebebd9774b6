package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/stakeledger/internal/cli"
	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/tui/theme"
)

var (
	flagSetCommitment bool
	flagSetCooldown   int
	flagSetHide       bool
	flagSetCurrency   string
	flagSetSymbol     string
	flagSetTheme      string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change ledger settings",
	Example: "  stakeledger settings --commitment --cooldown 5\n" +
		"  stakeledger settings --currency GBP --symbol £",
	RunE: runSettings,
}

func init() {
	f := settingsCmd.Flags()
	f.BoolVar(&flagSetCommitment, "commitment", false, "Require a reason and cooldown once a limit is reached")
	f.IntVar(&flagSetCooldown, "cooldown", model.DefaultCooldownMinutes, "Cooldown minutes")
	f.BoolVar(&flagSetHide, "hide", false, "Mask amounts in output")
	f.StringVar(&flagSetCurrency, "currency", "", "Currency code, e.g. EUR")
	f.StringVar(&flagSetSymbol, "symbol", "", "Currency symbol, e.g. €")
	f.StringVar(&flagSetTheme, "theme", "", "Theme name")
	rootCmd.AddCommand(settingsCmd)
}

// settingsPatch builds a patch from the flags the user actually passed.
func settingsPatch(cmd *cobra.Command) (model.SettingsPatch, error) {
	var p model.SettingsPatch
	f := cmd.Flags()
	if f.Changed("commitment") {
		p.CommitmentMode = &flagSetCommitment
	}
	if f.Changed("cooldown") {
		if flagSetCooldown <= 0 {
			return p, fmt.Errorf("--cooldown must be a positive number of minutes")
		}
		p.CooldownMinutes = &flagSetCooldown
	}
	if f.Changed("hide") {
		p.HideBalances = &flagSetHide
	}
	if f.Changed("currency") {
		code := strings.ToUpper(strings.TrimSpace(flagSetCurrency))
		p.Currency = &code
	}
	if f.Changed("symbol") {
		p.CurrencySymbol = &flagSetSymbol
	}
	if f.Changed("theme") {
		want := strings.ToLower(strings.TrimSpace(flagSetTheme))
		name := theme.ByName(want).Name
		if name != want {
			return p, fmt.Errorf("unknown theme %q", flagSetTheme)
		}
		p.Theme = &name
	}
	return p, nil
}

func runSettings(cmd *cobra.Command, _ []string) error {
	patch, err := settingsPatch(cmd)
	if err != nil {
		return err
	}

	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	if err := l.SetSettings(cmd.Context(), patch); err != nil {
		return err
	}

	s := l.State().Settings
	rows := [][]string{
		{"Commitment mode", onOff(s.CommitmentMode)},
		{"Cooldown", strconv.Itoa(s.CooldownMinutes) + " min"},
		{"Hide balances", onOff(s.HideBalances)},
		{"Currency", s.Currency + " (" + s.CurrencySymbol + ")"},
		{"Theme", s.Theme},
		{"Last section", s.LastSection},
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, cli.RenderTable(cli.Table{
		Title:    "Settings",
		Headers:  []string{"Setting", "Value"},
		Rows:     rows,
		LeftCols: 2,
	}))
	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
