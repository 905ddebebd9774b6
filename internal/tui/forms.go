package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/stakeledger/internal/ledger"
	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/tui/theme"
)

type formKind int

const (
	formNone formKind = iota
	formEntry
	formAddVenue
	formVenueLimits
	formRemoveVenue
	formBudgets
	formWipe
	formSetup
)

// formValues backs every huh form. It lives on the heap so the form's value
// pointers stay valid across App copies.
type formValues struct {
	venueID string
	name    string
	weekly  string
	monthly string
	spent   string
	won     string
	when    string
	notes   string
	confirm bool

	theme      string
	currency   string
	symbol     string
	commitment bool
	cooldown   string
}

func validateAmount(s string) error {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return nil
	}
	if _, err := decimal.NewFromString(s); err != nil {
		return errors.New("enter a number")
	}
	return nil
}

func validateWhen(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := ledger.ParseTimestamp(s); err != nil {
		return errors.New("use YYYY-MM-DD HH:MM")
	}
	return nil
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

func validateMinutes(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("enter a whole number of minutes")
	}
	return nil
}

func amountString(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func newEntryForm(venues []model.Venue, v *formValues) *huh.Form {
	opts := make([]huh.Option[string], 0, len(venues))
	for _, venue := range venues {
		opts = append(opts, huh.NewOption(venue.Name, venue.ID))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Venue").
				Options(opts...).
				Value(&v.venueID),
			huh.NewInput().
				Title("Spent").
				Placeholder("0.00").
				Validate(validateAmount).
				Value(&v.spent),
			huh.NewInput().
				Title("Won").
				Placeholder("0.00").
				Validate(validateAmount).
				Value(&v.won),
			huh.NewInput().
				Title("When").
				Description("Leave blank for now.").
				Placeholder("2006-01-02 15:04").
				Validate(validateWhen).
				Value(&v.when),
			huh.NewText().
				Title("Notes").
				CharLimit(280).
				Value(&v.notes),
		).Title("Log an entry"),
	).WithShowHelp(true)
}

func newVenueForm(v *formValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Validate(validateRequired).
				Value(&v.name),
			huh.NewInput().
				Title("Weekly limit").
				Description("Blank or 0 for no limit.").
				Validate(validateAmount).
				Value(&v.weekly),
			huh.NewInput().
				Title("Monthly limit").
				Validate(validateAmount).
				Value(&v.monthly),
		).Title("Add venue"),
	).WithShowHelp(true)
}

func newLimitsForm(venue model.Venue, v *formValues) *huh.Form {
	v.venueID = venue.ID
	v.weekly = amountString(venue.WeeklyLimit)
	v.monthly = amountString(venue.MonthlyLimit)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Weekly limit").
				Description("Blank or 0 for no limit.").
				Validate(validateAmount).
				Value(&v.weekly),
			huh.NewInput().
				Title("Monthly limit").
				Validate(validateAmount).
				Value(&v.monthly),
		).Title("Limits for " + venue.Name),
	).WithShowHelp(true)
}

func newBudgetsForm(b model.Budgets, v *formValues) *huh.Form {
	v.weekly = amountString(b.Weekly)
	v.monthly = amountString(b.Monthly)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Weekly budget").
				Description("Applies across all venues. Blank or 0 for none.").
				Validate(validateAmount).
				Value(&v.weekly),
			huh.NewInput().
				Title("Monthly budget").
				Validate(validateAmount).
				Value(&v.monthly),
		).Title("Budgets"),
	).WithShowHelp(true)
}

func newConfirmForm(title, description string, v *formValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&v.confirm),
		),
	)
}

// newSetupForm is the first-run wizard. It edits ledger settings.
func newSetupForm(s model.Settings, v *formValues) *huh.Form {
	v.theme = s.Theme
	v.currency = s.Currency
	v.symbol = s.CurrencySymbol
	v.commitment = s.CommitmentMode
	v.cooldown = strconv.Itoa(s.CooldownMinutes)

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to stakeledger").
				Description("Track what you spend and win at each venue.\nLet's set up a few things."),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Currency code").
				Validate(validateRequired).
				Value(&v.currency),
			huh.NewInput().
				Title("Currency symbol").
				Validate(validateRequired).
				Value(&v.symbol),
			huh.NewSelect[string]().
				Title("Theme").
				Options(themeOpts...).
				Value(&v.theme),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable commitment mode?").
				Description("When a limit is reached you must write a reason and wait before logging more.").
				Value(&v.commitment),
			huh.NewInput().
				Title("Cooldown minutes").
				Validate(validateMinutes).
				Value(&v.cooldown),
		),
	).WithShowHelp(true)
}

// setupPatch converts the wizard values into a settings patch.
func (v *formValues) setupPatch() model.SettingsPatch {
	minutes, _ := strconv.Atoi(strings.TrimSpace(v.cooldown))
	currency := strings.ToUpper(strings.TrimSpace(v.currency))
	symbol := strings.TrimSpace(v.symbol)
	return model.SettingsPatch{
		Theme:           &v.theme,
		Currency:        &currency,
		CurrencySymbol:  &symbol,
		CommitmentMode:  &v.commitment,
		CooldownMinutes: &minutes,
	}
}
