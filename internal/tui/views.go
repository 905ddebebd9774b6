package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/stakeledger/internal/cli"
	"github.com/theirongolddev/stakeledger/internal/tui/components"
	"github.com/theirongolddev/stakeledger/internal/tui/theme"
)

func (a App) viewDashboard(cw int) string {
	m := a.money()
	week, month := a.summary.Week, a.summary.Month

	cards := components.MetricCardRow([]components.Metric{
		{Label: "Spent this week", Value: m.Format(week.Spent), Note: budgetNote(week.Budget, week.Remaining(), m), Alert: week.Reached()},
		{Label: "Net this week", Value: m.Signed(week.Net), Note: week.Key},
		{Label: "Spent this month", Value: m.Format(month.Spent), Note: budgetNote(month.Budget, month.Remaining(), m), Alert: month.Reached()},
		{Label: "Net this month", Value: m.Signed(month.Net), Note: month.Key},
	}, cw)

	halves := components.LayoutRow(cw, 2)

	barW := max(components.CardInnerWidth(halves[0])-36, 8)
	var limits []string
	limits = append(limits,
		components.LimitBar("Weekly", week.Spent, week.Budget, m, 12, barW),
		components.LimitBar("Monthly", month.Spent, month.Budget, m, 12, barW),
	)
	for _, v := range week.ByVenue {
		if v.WeeklyLimit.IsPositive() {
			limits = append(limits, components.LimitBar(truncate(v.Name, 12), v.Spent, v.WeeklyLimit, m, 12, barW))
		}
	}
	limitsCard := components.ContentCard("Limits", strings.Join(limits, "\n"), halves[0])

	dailyCard := components.ContentCard("Daily net", a.dailyChart(components.CardInnerWidth(halves[1])), halves[1])

	return lipgloss.JoinVertical(lipgloss.Left,
		cards,
		components.CardRow([]string{limitsCard, dailyCard}),
	)
}

func budgetNote(budget, remaining decimal.Decimal, m cli.Money) string {
	if !budget.IsPositive() {
		return "no budget"
	}
	return m.Format(remaining) + " left"
}

func (a App) dailyChart(width int) string {
	if len(a.daily) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Active.TextDim).Render("No entries yet")
	}
	m := a.money()
	labels := make([]string, len(a.daily))
	values := make([]string, len(a.daily))
	mags := make([]float64, len(a.daily))
	for i, d := range a.daily {
		labels[i] = d.Date.Format("Mon 02")
		values[i] = m.Signed(d.Net)
		mags[i] = d.Net.InexactFloat64()
	}
	return components.NetBars(labels, values, mags, width)
}

func (a App) viewVenues(cw int) string {
	m := a.money()
	if len(a.st.Venues) == 0 {
		return a.emptyCard("Venues", "No venues yet. Press a to add one.", cw)
	}

	headers := []string{"Venue", "Week spent", "Weekly limit", "Monthly limit", ""}
	rows := make([][]string, 0, len(a.st.Venues))
	for _, v := range a.st.Venues {
		vw, _ := a.summary.Week.Venue(v.ID)
		rows = append(rows, []string{
			v.Name,
			m.Format(vw.Spent),
			m.Limit(v.WeeklyLimit),
			m.Limit(v.MonthlyLimit),
			cli.RenderBadge(vw.Spent, v.WeeklyLimit),
		})
	}
	return components.ContentCard("Venues", a.renderRows(headers, rows, components.CardInnerWidth(cw)), cw)
}

func (a App) viewHistory(cw int) string {
	m := a.money()
	if len(a.history) == 0 {
		return a.emptyCard("History", "No entries yet. Press n to log one.", cw)
	}

	headers := []string{"When", "Venue", "Spent", "Won", "Net", "Notes"}
	rows := make([][]string, 0, len(a.history))
	for _, e := range a.history {
		name := ""
		if v, ok := a.st.Venue(e.VenueID); ok {
			name = v.Name
		}
		rows = append(rows, []string{
			cli.FormatDate(e.Timestamp.In(a.now.Location())),
			truncate(name, 18),
			m.Format(e.Spent),
			m.Format(e.Won),
			m.Signed(e.Net()),
			truncate(e.Notes, 30),
		})
	}
	return components.ContentCard("History", a.renderRows(headers, rows, components.CardInnerWidth(cw)), cw)
}

func (a App) viewSettings(cw int) string {
	t := theme.Active
	s := a.st.Settings
	m := a.money()

	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Width(22)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	rows := []struct{ key, label, value string }{
		{"c", "Commitment mode", yesNo(s.CommitmentMode)},
		{"+/-", "Cooldown", fmt.Sprintf("%d min", s.CooldownMinutes)},
		{"m", "Hide balances", yesNo(s.HideBalances)},
		{"t", "Theme", s.Theme},
		{"s", "Currency", fmt.Sprintf("%s (%s)", s.Currency, s.CurrencySymbol)},
		{"b", "Weekly budget", m.Limit(a.st.Budgets.Weekly)},
		{"b", "Monthly budget", m.Limit(a.st.Budgets.Monthly)},
		{"W", "Wipe all data", ""},
	}

	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(keyStyle.Render(fmt.Sprintf("%-4s", r.key)))
		b.WriteString(labelStyle.Render(r.label))
		b.WriteString(valueStyle.Render(r.value))
	}
	return components.ContentCard("Settings", b.String(), cw)
}

func yesNo(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (a App) emptyCard(title, text string, cw int) string {
	dim := lipgloss.NewStyle().Foreground(theme.Active.TextDim).Background(theme.Active.Surface)
	return components.ContentCard(title, dim.Render(text), cw)
}

// renderRows renders a header plus rows, highlighting the cursor row.
// The first column and the last text column are left-aligned.
func (a App) renderRows(headers []string, rows [][]string, width int) string {
	t := theme.Active

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)

	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			gap := strings.Repeat(" ", max(widths[i]-lipgloss.Width(c), 0))
			if i == 0 || i == len(cells)-1 {
				parts[i] = c + gap
			} else {
				parts[i] = gap + c
			}
		}
		return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, "  "))
	}

	var b strings.Builder
	b.WriteString(headStyle.Render(line(headers)))
	for i, r := range rows {
		b.WriteString("\n")
		style := rowStyle
		if i == a.cursor {
			style = selStyle
		}
		b.WriteString(style.Render(line(r)))
	}
	return b.String()
}

func truncate(s string, limit int) string {
	if lipgloss.Width(s) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r)) > limit-1 {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
