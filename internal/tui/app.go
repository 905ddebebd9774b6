// Package tui provides the interactive Bubble Tea dashboard for stakeledger.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/stakeledger/internal/cli"
	"github.com/theirongolddev/stakeledger/internal/gate"
	"github.com/theirongolddev/stakeledger/internal/ledger"
	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/pipeline"
	"github.com/theirongolddev/stakeledger/internal/tui/components"
	"github.com/theirongolddev/stakeledger/internal/tui/theme"
)

const (
	minTerminalWidth = 60
	maxContentWidth  = 140

	dailyNetDays = 8
	// Re-read storage every this many ticks so writes from the CLI show up.
	reloadEveryTicks = 15
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(gate.PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// App is the root Bubble Tea model.
type App struct {
	ctx    context.Context
	ledger *ledger.Ledger
	gate   *gate.Gate
	clock  func() time.Time

	// Derived from the ledger on every refresh
	now     time.Time
	st      model.State
	summary model.Summary
	daily   []model.DailyNet
	history []model.Entry

	// UI state
	width     int
	height    int
	activeTab int
	cursor    int
	showHelp  bool
	ticks     int

	flash    string
	flashErr bool

	// Modal huh form, if any
	form     *huh.Form
	formKind formKind
	vals     *formValues

	// Cooldown gate dialog and the entry waiting on it
	dialog  *gateDialog
	pending *ledger.NewEntry
}

// Option configures an App.
type Option func(*App)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.clock = now }
}

// WithSetup opens the first-run wizard on start.
func WithSetup() Option {
	return func(a *App) {
		a.vals = &formValues{}
		a.form = newSetupForm(a.st.Settings, a.vals)
		a.formKind = formSetup
	}
}

// NewApp creates a new TUI app model over an open ledger.
func NewApp(ctx context.Context, l *ledger.Ledger, g *gate.Gate, opts ...Option) App {
	a := App{
		ctx:    ctx,
		ledger: l,
		gate:   g,
		clock:  time.Now,
		vals:   &formValues{},
	}
	a.st = l.State()
	for _, opt := range opts {
		opt(&a)
	}
	a.now = a.clock()
	a.refresh()
	a.activeTab = components.TabIdxBySection(a.st.Settings.LastSection)
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if a.form != nil {
		cmds = append(cmds, a.form.Init())
	}
	return tea.Batch(cmds...)
}

func (a *App) refresh() {
	a.st = a.ledger.State()
	a.summary = pipeline.ComputeSummary(a.st, a.now)
	a.daily = pipeline.DailyNet(a.st.Entries, a.now.Location(), dailyNetDays)
	a.history = pipeline.History(a.st.Entries)
	theme.SetActive(a.st.Settings.Theme)

	if n := a.rowCount(); a.cursor >= n {
		a.cursor = max(n-1, 0)
	}
}

func (a App) money() cli.Money {
	return cli.Money{Symbol: a.st.Settings.CurrencySymbol, Hide: a.st.Settings.HideBalances}
}

func (a App) rowCount() int {
	switch components.Tabs[a.activeTab].Section {
	case "venues":
		return len(a.st.Venues)
	case "history":
		return len(a.history)
	default:
		return 0
	}
}

func (a *App) setFlash(msg string, err error) {
	if err != nil {
		a.flash = err.Error()
		a.flashErr = true
		return
	}
	a.flash = msg
	a.flashErr = false
}

// apply runs a ledger mutation and refreshes derived state.
func (a *App) apply(note string, fn func(ctx context.Context) error) {
	err := fn(a.ctx)
	a.setFlash(note, err)
	a.refresh()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(min(msg.Width, 80))
		}
		return a, nil

	case tickMsg:
		a.now = time.Time(msg)
		a.ticks++
		if a.ticks%reloadEveryTicks == 0 {
			if err := a.ledger.Reload(a.ctx); err != nil {
				a.setFlash("", fmt.Errorf("reloading ledger: %w", err))
			}
		}
		a.refresh()
		if a.dialog != nil {
			a.dialog.tick(a.now)
		}
		return a, tickCmd()

	case spinner.TickMsg:
		if a.dialog != nil {
			return a, a.dialog.updateSpinner(msg)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.dialog != nil {
			return a.updateDialog(msg)
		}
		if a.form != nil {
			return a.updateForm(msg)
		}
		return a.updateKeys(msg)
	}

	// Forward unhandled messages to the form (cursor blinks, etc.)
	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "n":
		return a.startEntry()
	case "r":
		a.apply("Reloaded", a.ledger.Reload)
		return a, nil
	case "left":
		a.switchTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
		return a, nil
	case "right", "tab":
		a.switchTab((a.activeTab + 1) % len(components.Tabs))
		return a, nil
	case "j", "down":
		if a.cursor < a.rowCount()-1 {
			a.cursor++
		}
		return a, nil
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.switchTab(idx)
			return a, nil
		}
	}

	switch components.Tabs[a.activeTab].Section {
	case "venues":
		return a.updateVenuesKeys(key)
	case "history":
		return a.updateHistoryKeys(key)
	case "settings":
		return a.updateSettingsKeys(key)
	}
	return a, nil
}

// switchTab changes the visible section and records it as last viewed.
func (a *App) switchTab(idx int) {
	if idx == a.activeTab {
		return
	}
	a.activeTab = idx
	a.cursor = 0
	section := components.Tabs[idx].Section
	if a.st.Settings.LastSection != section {
		a.apply("", func(ctx context.Context) error {
			return a.ledger.SetSettings(ctx, model.SettingsPatch{LastSection: &section})
		})
	}
}

func (a App) updateVenuesKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "a":
		return a.openForm(formAddVenue, newVenueForm(a.freshVals()))
	case "e", "enter":
		if v, ok := a.selectedVenue(); ok {
			return a.openForm(formVenueLimits, newLimitsForm(v, a.freshVals()))
		}
	case "D":
		if v, ok := a.selectedVenue(); ok {
			vals := a.freshVals()
			vals.venueID = v.ID
			return a.openForm(formRemoveVenue, newConfirmForm(
				"Remove "+v.Name+"?",
				"All of its entries are deleted too.",
				vals,
			))
		}
	}
	return a, nil
}

func (a App) updateHistoryKeys(key string) (tea.Model, tea.Cmd) {
	if key == "D" && a.cursor < len(a.history) {
		id := a.history[a.cursor].ID
		a.apply("Entry deleted", func(ctx context.Context) error {
			return a.ledger.DeleteEntry(ctx, id)
		})
	}
	return a, nil
}

func (a App) updateSettingsKeys(key string) (tea.Model, tea.Cmd) {
	s := a.st.Settings
	switch key {
	case "c":
		on := !s.CommitmentMode
		a.apply(onOff("Commitment mode", on), func(ctx context.Context) error {
			return a.ledger.SetSettings(ctx, model.SettingsPatch{CommitmentMode: &on})
		})
	case "m":
		hide := !s.HideBalances
		a.apply(onOff("Hide balances", hide), func(ctx context.Context) error {
			return a.ledger.SetSettings(ctx, model.SettingsPatch{HideBalances: &hide})
		})
	case "t":
		next := theme.Next(s.Theme).Name
		a.apply("Theme: "+next, func(ctx context.Context) error {
			return a.ledger.SetSettings(ctx, model.SettingsPatch{Theme: &next})
		})
	case "+", "=":
		minutes := s.CooldownMinutes + 1
		a.apply(fmt.Sprintf("Cooldown: %d min", minutes), func(ctx context.Context) error {
			return a.ledger.SetSettings(ctx, model.SettingsPatch{CooldownMinutes: &minutes})
		})
	case "-":
		if s.CooldownMinutes > 1 {
			minutes := s.CooldownMinutes - 1
			a.apply(fmt.Sprintf("Cooldown: %d min", minutes), func(ctx context.Context) error {
				return a.ledger.SetSettings(ctx, model.SettingsPatch{CooldownMinutes: &minutes})
			})
		}
	case "b":
		return a.openForm(formBudgets, newBudgetsForm(a.st.Budgets, a.freshVals()))
	case "s":
		return a.openForm(formSetup, newSetupForm(s, a.freshVals()))
	case "W":
		return a.openForm(formWipe, newConfirmForm(
			"Wipe all data?",
			"Every venue, entry, budget and setting is reset. This cannot be undone.",
			a.freshVals(),
		))
	}
	return a, nil
}

func onOff(label string, on bool) string {
	if on {
		return label + " on"
	}
	return label + " off"
}

func (a App) selectedVenue() (model.Venue, bool) {
	if a.cursor < 0 || a.cursor >= len(a.st.Venues) {
		return model.Venue{}, false
	}
	return a.st.Venues[a.cursor], true
}

func (a *App) freshVals() *formValues {
	a.vals = &formValues{}
	return a.vals
}

func (a App) openForm(kind formKind, f *huh.Form) (tea.Model, tea.Cmd) {
	a.formKind = kind
	a.form = f
	if a.width > 0 {
		a.form = a.form.WithWidth(min(a.width, 80))
	}
	return a, a.form.Init()
}

func (a App) startEntry() (tea.Model, tea.Cmd) {
	if len(a.st.Venues) == 0 {
		a.setFlash("", errors.New("add a venue first (v, then a)"))
		return a, nil
	}
	vals := a.freshVals()
	vals.venueID = a.st.Venues[0].ID
	return a.openForm(formEntry, newEntryForm(a.st.Venues, vals))
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.closeForm()
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		kind := a.formKind
		a.closeForm()
		return a.submitForm(kind)
	case huh.StateAborted:
		a.closeForm()
		return a, nil
	}
	return a, cmd
}

func (a *App) closeForm() {
	a.form = nil
	a.formKind = formNone
}

func (a App) submitForm(kind formKind) (tea.Model, tea.Cmd) {
	v := a.vals
	switch kind {
	case formEntry:
		return a.requestEntry(v)
	case formAddVenue:
		a.apply("Venue added", func(ctx context.Context) error {
			_, err := a.ledger.AddVenue(ctx, v.name, ledger.ParseAmount(v.weekly), ledger.ParseAmount(v.monthly))
			return err
		})
	case formVenueLimits:
		a.apply("Limits updated", func(ctx context.Context) error {
			return a.ledger.UpdateVenueLimits(ctx, v.venueID, ledger.ParseAmount(v.weekly), ledger.ParseAmount(v.monthly))
		})
	case formRemoveVenue:
		if v.confirm {
			a.apply("Venue removed", func(ctx context.Context) error {
				return a.ledger.RemoveVenue(ctx, v.venueID)
			})
		}
	case formBudgets:
		a.apply("Budgets updated", func(ctx context.Context) error {
			return a.ledger.SetBudgets(ctx, model.Budgets{
				Weekly:  ledger.ParseAmount(v.weekly),
				Monthly: ledger.ParseAmount(v.monthly),
			})
		})
	case formWipe:
		if v.confirm {
			a.apply("All data wiped", a.ledger.ClearAll)
			a.activeTab = 0
			a.cursor = 0
		}
	case formSetup:
		a.apply("Settings saved", func(ctx context.Context) error {
			return a.ledger.SetSettings(ctx, v.setupPatch())
		})
	}
	return a, nil
}

// requestEntry asks the gate for permission and either writes the entry
// right away or parks it behind the cooldown dialog.
func (a App) requestEntry(v *formValues) (tea.Model, tea.Cmd) {
	now := a.clock()
	ts := now
	if strings.TrimSpace(v.when) != "" {
		parsed, err := ledger.ParseTimestamp(v.when)
		if err != nil {
			a.setFlash("", err)
			return a, nil
		}
		ts = parsed
	}
	entry := ledger.NewEntry{
		Timestamp: ts,
		VenueID:   v.venueID,
		Spent:     ledger.ParseAmount(v.spent),
		Won:       ledger.ParseAmount(v.won),
		Notes:     v.notes,
	}

	state, err := a.gate.Advance(gate.Request(entry.VenueID, 0), now)
	if err != nil {
		a.setFlash("", err)
		return a, nil
	}
	if state == gate.Allowed {
		a.commit(entry)
		return a, nil
	}

	name := entry.VenueID
	if venue, ok := a.st.Venue(entry.VenueID); ok {
		name = venue.Name
	}
	a.pending = &entry
	a.dialog = newGateDialog(a.gate, name, now)
	return a, textinput.Blink
}

func (a *App) commit(entry ledger.NewEntry) {
	a.apply("Entry logged", func(ctx context.Context) error {
		_, err := a.ledger.AddEntry(ctx, entry)
		return err
	})
}

func (a App) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd := a.dialog.update(msg, a.clock())
	if !a.dialog.done {
		return a, cmd
	}

	outcome := a.dialog.outcome
	pending := a.pending
	a.dialog = nil
	a.pending = nil

	if outcome == gate.Allowed && pending != nil {
		a.commit(*pending)
		return a, nil
	}
	a.setFlash("Entry not logged", nil)
	return a, nil
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols). Need at least %d.", a.width, minTerminalWidth)
	}

	t := theme.Active
	cw := a.contentWidth()

	var body string
	switch {
	case a.dialog != nil:
		body = lipgloss.Place(cw, max(a.height-4, 10), lipgloss.Center, lipgloss.Center, a.dialog.view(cw))
	case a.form != nil:
		body = lipgloss.NewStyle().Padding(1, 2).Render(a.form.View())
	case a.showHelp:
		body = a.viewHelp()
	default:
		switch components.Tabs[a.activeTab].Section {
		case "venues":
			body = a.viewVenues(cw)
		case "history":
			body = a.viewHistory(cw)
		case "settings":
			body = a.viewSettings(cw)
		default:
			body = a.viewDashboard(cw)
		}
	}

	header := components.RenderTabBar(a.activeTab, cw)
	status := components.RenderStatusBar(cw, a.hints(), a.flash, a.flashErr)

	bodyHeight := a.height - lipgloss.Height(header) - lipgloss.Height(status) - 1
	body = lipgloss.NewStyle().Height(max(bodyHeight, 1)).MaxHeight(max(bodyHeight, 1)).Render(body)

	return lipgloss.NewStyle().Background(t.Background).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", body, status),
	)
}

func (a App) hints() string {
	switch {
	case a.dialog != nil:
		return "[enter]confirm  [esc]cancel"
	case a.form != nil:
		return "[esc]cancel"
	}
	base := "[n]ew entry  [?]help  [q]uit"
	switch components.Tabs[a.activeTab].Section {
	case "venues":
		return "[a]dd  [e]dit limits  [D]elete  " + base
	case "history":
		return "[D]elete  " + base
	case "settings":
		return "[c]ommitment  [m]ask  [t]heme  [+/-]cooldown  [b]udgets  [W]ipe  " + base
	}
	return base
}

func (a App) viewHelp() string {
	t := theme.Active
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Width(10)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	rows := [][2]string{
		{"n", "Log a new entry"},
		{"d v h x", "Dashboard, Venues, History, Settings"},
		{"←/→", "Previous / next tab"},
		{"j/k", "Move selection"},
		{"r", "Reload from disk"},
		{"a e D", "Add, edit limits, delete (Venues)"},
		{"D", "Delete entry (History)"},
		{"c m t", "Commitment mode, mask balances, theme (Settings)"},
		{"+/-", "Cooldown minutes (Settings)"},
		{"b s W", "Budgets, setup wizard, wipe (Settings)"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render("Keys"))
	b.WriteString("\n\n")
	for _, r := range rows {
		b.WriteString(keyStyle.Render(r[0]))
		b.WriteString(textStyle.Render(r[1]))
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
