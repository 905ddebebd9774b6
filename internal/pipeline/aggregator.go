// Package pipeline aggregates ledger snapshots into weekly, monthly and
// per-venue summaries.
package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/timekey"

	"github.com/shopspring/decimal"
)

// Snapshotter hands out a consistent copy of the ledger. *ledger.Ledger
// satisfies it.
type Snapshotter interface {
	State() model.State
}

// Summarize re-reads the ledger and aggregates it at now. Nothing is cached,
// so the result always reflects the last committed write.
func Summarize(src Snapshotter, now time.Time) model.Summary {
	return ComputeSummary(src.State(), now)
}

// ComputeSummary aggregates st at now. Entry timestamps are bucketed in now's
// location. Every known venue appears in the weekly breakdown, idle ones with
// zero totals.
func ComputeSummary(st model.State, now time.Time) model.Summary {
	byWeek := FilterByWeek(st.Entries, now)
	byMonth := FilterByMonth(st.Entries, now)

	week := model.WeekSummary{
		Key:     timekey.Week(now),
		Totals:  Sum(byWeek),
		Budget:  st.Budgets.Weekly,
		ByVenue: make([]model.VenueWeek, 0, len(st.Venues)),
	}

	perVenue := make(map[string]*model.VenueWeek, len(st.Venues))
	for _, v := range st.Venues {
		week.ByVenue = append(week.ByVenue, model.VenueWeek{
			VenueID:      v.ID,
			Name:         v.Name,
			Spent:        decimal.Zero,
			Won:          decimal.Zero,
			WeeklyLimit:  v.WeeklyLimit,
			MonthlyLimit: v.MonthlyLimit,
		})
	}
	for i := range week.ByVenue {
		perVenue[week.ByVenue[i].VenueID] = &week.ByVenue[i]
	}
	for _, e := range byWeek {
		if vw, ok := perVenue[e.VenueID]; ok {
			vw.Spent = vw.Spent.Add(e.Spent)
			vw.Won = vw.Won.Add(e.Won)
		}
	}

	return model.Summary{
		At:   now,
		Week: week,
		Month: model.MonthSummary{
			Key:    timekey.Month(now),
			Totals: Sum(byMonth),
			Budget: st.Budgets.Monthly,
		},
	}
}

// Sum totals spent and won over entries.
func Sum(entries []model.Entry) model.Totals {
	t := model.Totals{Spent: decimal.Zero, Won: decimal.Zero}
	for _, e := range entries {
		t.Spent = t.Spent.Add(e.Spent)
		t.Won = t.Won.Add(e.Won)
	}
	t.Net = t.Won.Sub(t.Spent)
	return t
}

// FilterByWeek returns entries in the same ISO week as now.
func FilterByWeek(entries []model.Entry, now time.Time) []model.Entry {
	key := timekey.Week(now)
	var result []model.Entry
	for _, e := range entries {
		if timekey.Week(e.Timestamp.In(now.Location())) == key {
			result = append(result, e)
		}
	}
	return result
}

// FilterByMonth returns entries in the same calendar month as now.
func FilterByMonth(entries []model.Entry, now time.Time) []model.Entry {
	key := timekey.Month(now)
	var result []model.Entry
	for _, e := range entries {
		if timekey.Month(e.Timestamp.In(now.Location())) == key {
			result = append(result, e)
		}
	}
	return result
}

// DailyNet computes net results per calendar day (in loc) and returns the last
// n days that have entries, oldest first.
func DailyNet(entries []model.Entry, loc *time.Location, n int) []model.DailyNet {
	dayMap := make(map[string]*model.DailyNet)
	for _, e := range entries {
		local := e.Timestamp.In(loc)
		key := local.Format("2006-01-02")
		dn, ok := dayMap[key]
		if !ok {
			day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
			dn = &model.DailyNet{Date: day, Net: decimal.Zero}
			dayMap[key] = dn
		}
		dn.Net = dn.Net.Add(e.Net())
	}

	days := make([]model.DailyNet, 0, len(dayMap))
	for _, dn := range dayMap {
		days = append(days, *dn)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	if n > 0 && len(days) > n {
		days = days[len(days)-n:]
	}
	return days
}

// History returns a copy of entries sorted newest first.
func History(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
