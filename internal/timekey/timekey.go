// Package timekey maps instants to the week and month buckets used for budgets.
//
// Keys are computed on the instant's own wall clock, so callers that want the
// local calendar pass times in time.Local (time.Now() already is).
package timekey

import (
	"fmt"
	"time"
)

// Week returns the ISO-8601 week key, e.g. "2023-W01". Weeks start on Monday
// and week 1 is the week containing the year's first Thursday, so the year in
// the key may differ from the calendar year near January 1.
func Week(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Month returns the calendar month key, e.g. "2024-02".
func Month(t time.Time) string {
	return fmt.Sprintf("%d-%02d", t.Year(), int(t.Month()))
}

// SameWeek reports whether a and b fall in the same ISO week of a's location.
func SameWeek(a, b time.Time) bool {
	return Week(a) == Week(b.In(a.Location()))
}

// SameMonth reports whether a and b fall in the same month of a's location.
func SameMonth(a, b time.Time) bool {
	return Month(a) == Month(b.In(a.Location()))
}

// WeekStart returns local midnight of the Monday that starts t's ISO week.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}
