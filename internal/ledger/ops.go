package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/stakeledger/internal/model"

	"github.com/shopspring/decimal"
)

// AddVenue creates a venue and returns its id. Negative limits become zero.
func (l *Ledger) AddVenue(ctx context.Context, name string, weeklyLimit, monthlyLimit decimal.Decimal) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("venue name", "must not be empty")
	}

	id := l.newID()
	err := l.mutate(ctx, []string{KeyVenues}, func(st *model.State) (bool, error) {
		st.Venues = append(st.Venues, model.Venue{
			ID:           id,
			Name:         name,
			WeeklyLimit:  NonNegative(weeklyLimit),
			MonthlyLimit: NonNegative(monthlyLimit),
		})
		return true, nil
	})
	if err != nil {
		return "", err
	}
	l.log.Debug("venue added", "id", id, "name", name)
	return id, nil
}

// UpdateVenueLimits replaces both limits of a venue. Unknown ids are a no-op.
func (l *Ledger) UpdateVenueLimits(ctx context.Context, id string, weeklyLimit, monthlyLimit decimal.Decimal) error {
	return l.mutate(ctx, []string{KeyVenues}, func(st *model.State) (bool, error) {
		for i := range st.Venues {
			if st.Venues[i].ID == id {
				st.Venues[i].WeeklyLimit = NonNegative(weeklyLimit)
				st.Venues[i].MonthlyLimit = NonNegative(monthlyLimit)
				return true, nil
			}
		}
		return false, nil
	})
}

// RemoveVenue deletes a venue together with all of its entries. Both
// collections are written in the same batch. Unknown ids are a no-op.
func (l *Ledger) RemoveVenue(ctx context.Context, id string) error {
	cascaded := -1
	err := l.mutate(ctx, []string{KeyVenues, KeyEntries}, func(st *model.State) (bool, error) {
		venues := make([]model.Venue, 0, len(st.Venues))
		for _, v := range st.Venues {
			if v.ID != id {
				venues = append(venues, v)
			}
		}
		if len(venues) == len(st.Venues) {
			return false, nil
		}
		entries := make([]model.Entry, 0, len(st.Entries))
		for _, e := range st.Entries {
			if e.VenueID != id {
				entries = append(entries, e)
			}
		}
		cascaded = len(st.Entries) - len(entries)
		st.Venues = venues
		st.Entries = entries
		return true, nil
	})
	if err == nil && cascaded >= 0 { // -1 means the venue was unknown
		l.log.Debug("venue removed", "id", id, "entries_removed", cascaded)
	}
	return err
}

// AddEntry records an entry and returns its id. The venue must exist and the
// timestamp must be set; amounts are clamped to be non-negative.
func (l *Ledger) AddEntry(ctx context.Context, in NewEntry) (string, error) {
	if in.Timestamp.IsZero() {
		return "", invalid("timestamp", "missing or unparseable")
	}

	id := l.newID()
	err := l.mutate(ctx, []string{KeyEntries}, func(st *model.State) (bool, error) {
		if _, ok := st.Venue(in.VenueID); !ok {
			return false, invalid("venue", "unknown venue id %q", in.VenueID)
		}
		st.Entries = append(st.Entries, model.Entry{
			ID:        id,
			Timestamp: in.Timestamp,
			VenueID:   in.VenueID,
			Spent:     NonNegative(in.Spent),
			Won:       NonNegative(in.Won),
			Notes:     strings.TrimSpace(in.Notes),
		})
		return true, nil
	})
	if err != nil {
		return "", err
	}
	l.log.Debug("entry added", "id", id, "venue", in.VenueID)
	return id, nil
}

// DeleteEntry removes an entry. Unknown ids are a no-op.
func (l *Ledger) DeleteEntry(ctx context.Context, id string) error {
	return l.mutate(ctx, []string{KeyEntries}, func(st *model.State) (bool, error) {
		for i, e := range st.Entries {
			if e.ID == id {
				st.Entries = append(st.Entries[:i], st.Entries[i+1:]...)
				return true, nil
			}
		}
		return false, nil
	})
}

// SetBudgets replaces both budgets. Negative values become zero.
func (l *Ledger) SetBudgets(ctx context.Context, b model.Budgets) error {
	return l.mutate(ctx, []string{KeyBudgets}, func(st *model.State) (bool, error) {
		st.Budgets = model.Budgets{
			Weekly:  NonNegative(b.Weekly),
			Monthly: NonNegative(b.Monthly),
		}
		return true, nil
	})
}

// SetSettings merges the non-nil fields of p into the current settings.
func (l *Ledger) SetSettings(ctx context.Context, p model.SettingsPatch) error {
	if p.IsEmpty() {
		return nil
	}
	return l.mutate(ctx, []string{KeySettings}, func(st *model.State) (bool, error) {
		st.Settings = p.Apply(st.Settings)
		return true, nil
	})
}

// ClearAll resets every collection to its default in one batch. It is
// irreversible; callers must obtain explicit confirmation first.
func (l *Ledger) ClearAll(ctx context.Context) error {
	err := l.mutate(ctx, allKeys, func(st *model.State) (bool, error) {
		*st = model.DefaultState()
		return true, nil
	})
	if err == nil {
		l.log.Info("ledger wiped")
	}
	return err
}

// ResolveVenue finds a venue by id, or by case-insensitive name. An id match
// wins. A name shared by several venues is rejected with ErrAmbiguousVenue
// and the matching ids, so callers never act on an arbitrary one.
func (l *Ledger) ResolveVenue(ref string) (model.Venue, error) {
	st := l.State()
	if v, ok := st.Venue(ref); ok {
		return v, nil
	}
	ref = strings.TrimSpace(ref)
	var matches []model.Venue
	for _, v := range st.Venues {
		if strings.EqualFold(v.Name, ref) {
			matches = append(matches, v)
		}
	}
	switch len(matches) {
	case 0:
		return model.Venue{}, fmt.Errorf("%w: %q", ErrVenueNotFound, ref)
	case 1:
		return matches[0], nil
	}
	ids := make([]string, len(matches))
	for i, v := range matches {
		ids[i] = v.ID
	}
	return model.Venue{}, fmt.Errorf("%w: %q matches %s", ErrAmbiguousVenue, ref, strings.Join(ids, ", "))
}
