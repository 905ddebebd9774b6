// Package model defines domain types for the stakeledger ledger and summaries.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Venue is an operator against which spend/win activity and limits are tracked.
// A zero limit means "no limit".
type Venue struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	WeeklyLimit  decimal.Decimal `json:"weeklyLimit"`
	MonthlyLimit decimal.Decimal `json:"monthlyLimit"`
}

// Entry is one logged activity record. Entries are immutable once created.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	VenueID   string          `json:"venueId"`
	Spent     decimal.Decimal `json:"spent"`
	Won       decimal.Decimal `json:"won"`
	Notes     string          `json:"notes"`
}

// Net returns won minus spent. It is always derived, never stored.
func (e Entry) Net() decimal.Decimal {
	return e.Won.Sub(e.Spent)
}

// Budgets holds the global spend ceilings. Zero means unset.
type Budgets struct {
	Weekly  decimal.Decimal `json:"weekly"`
	Monthly decimal.Decimal `json:"monthly"`
}

// State is a full snapshot of the four ledger collections.
type State struct {
	Venues   []Venue  `json:"venues"`
	Entries  []Entry  `json:"entries"`
	Budgets  Budgets  `json:"budgets"`
	Settings Settings `json:"settings"`
}

// DefaultState returns the state of a freshly created (or wiped) ledger.
func DefaultState() State {
	return State{
		Venues:   []Venue{},
		Entries:  []Entry{},
		Budgets:  Budgets{Weekly: decimal.Zero, Monthly: decimal.Zero},
		Settings: DefaultSettings(),
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		Venues:   make([]Venue, len(s.Venues)),
		Entries:  make([]Entry, len(s.Entries)),
		Budgets:  s.Budgets,
		Settings: s.Settings,
	}
	copy(out.Venues, s.Venues)
	copy(out.Entries, s.Entries)
	return out
}

// Venue returns the venue with the given id.
func (s State) Venue(id string) (Venue, bool) {
	for _, v := range s.Venues {
		if v.ID == id {
			return v, true
		}
	}
	return Venue{}, false
}
