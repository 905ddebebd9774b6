package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals holds spend/win sums for one window.
type Totals struct {
	Spent decimal.Decimal `json:"spent"`
	Won   decimal.Decimal `json:"won"`
	Net   decimal.Decimal `json:"net"`
}

// VenueWeek holds one venue's week-to-date totals alongside its limits.
type VenueWeek struct {
	VenueID      string          `json:"venueId"`
	Name         string          `json:"name"`
	Spent        decimal.Decimal `json:"spent"`
	Won          decimal.Decimal `json:"won"`
	WeeklyLimit  decimal.Decimal `json:"weeklyLimit"`
	MonthlyLimit decimal.Decimal `json:"monthlyLimit"`
}

// Over reports whether the venue's weekly limit is strictly exceeded (display badge).
func (v VenueWeek) Over() bool {
	return over(v.Spent, v.WeeklyLimit)
}

// Reached reports whether the venue's weekly limit has been hit (gating).
func (v VenueWeek) Reached() bool {
	return reached(v.Spent, v.WeeklyLimit)
}

// WeekSummary is the current ISO week's aggregate.
type WeekSummary struct {
	Key string `json:"key"`
	Totals
	Budget  decimal.Decimal `json:"budget"`
	ByVenue []VenueWeek     `json:"byVenue"`
}

// MonthSummary is the current calendar month's aggregate.
type MonthSummary struct {
	Key string `json:"key"`
	Totals
	Budget decimal.Decimal `json:"budget"`
}

// Summary is the result of aggregating a ledger snapshot at one instant.
type Summary struct {
	At    time.Time    `json:"at"`
	Week  WeekSummary  `json:"week"`
	Month MonthSummary `json:"month"`
}

// Over reports whether the weekly budget is strictly exceeded.
func (w WeekSummary) Over() bool { return over(w.Spent, w.Budget) }

// Reached reports whether the weekly budget has been hit.
func (w WeekSummary) Reached() bool { return reached(w.Spent, w.Budget) }

// Remaining returns max(0, budget - spent).
func (w WeekSummary) Remaining() decimal.Decimal { return remaining(w.Spent, w.Budget) }

// Venue returns the breakdown row for a venue id.
func (w WeekSummary) Venue(id string) (VenueWeek, bool) {
	for _, v := range w.ByVenue {
		if v.VenueID == id {
			return v, true
		}
	}
	return VenueWeek{}, false
}

// Over reports whether the monthly budget is strictly exceeded.
func (m MonthSummary) Over() bool { return over(m.Spent, m.Budget) }

// Reached reports whether the monthly budget has been hit.
func (m MonthSummary) Reached() bool { return reached(m.Spent, m.Budget) }

// Remaining returns max(0, budget - spent).
func (m MonthSummary) Remaining() decimal.Decimal { return remaining(m.Spent, m.Budget) }

// The display badge uses a strict comparison while gating triggers at the limit.
func over(spent, limit decimal.Decimal) bool {
	return limit.IsPositive() && spent.GreaterThan(limit)
}

func reached(spent, limit decimal.Decimal) bool {
	return limit.IsPositive() && spent.GreaterThanOrEqual(limit)
}

func remaining(spent, limit decimal.Decimal) decimal.Decimal {
	r := limit.Sub(spent)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// DailyNet is the net result of all entries on one calendar day.
type DailyNet struct {
	Date time.Time
	Net  decimal.Decimal
}

// ExportRow is one ledger entry joined with its venue name, ready for tabular export.
type ExportRow struct {
	Date     string
	Venue    string
	Spent    decimal.Decimal
	Won      decimal.Decimal
	Net      decimal.Decimal
	Currency string
	Notes    string
}
