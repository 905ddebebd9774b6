package pipeline

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/theirongolddev/stakeledger/internal/ledger"
	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/store"
	"github.com/theirongolddev/stakeledger/internal/timekey"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Wednesday 2024-03-06 12:00 UTC: week 2024-W10, month 2024-03.
var now = time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)

func entry(id, venue string, ts time.Time, spent, won string) model.Entry {
	return model.Entry{ID: id, VenueID: venue, Timestamp: ts, Spent: d(spent), Won: d(won)}
}

func fixture() model.State {
	st := model.DefaultState()
	st.Venues = []model.Venue{
		{ID: "a", Name: "A", WeeklyLimit: d("50"), MonthlyLimit: decimal.Zero},
		{ID: "b", Name: "B", WeeklyLimit: decimal.Zero, MonthlyLimit: decimal.Zero},
		{ID: "idle", Name: "Idle", WeeklyLimit: d("10"), MonthlyLimit: decimal.Zero},
	}
	st.Entries = []model.Entry{
		entry("1", "a", now.Add(-time.Hour), "20", "5"),
		entry("2", "b", now.AddDate(0, 0, -2), "10", "30"), // Monday, same week
		entry("3", "a", now.AddDate(0, 0, -3), "7", "0"),   // Sunday before: month only
		entry("4", "b", now.AddDate(0, -1, 0), "100", "0"), // February: neither
		entry("5", "a", now.AddDate(0, 0, 4), "1.5", "0"),  // Sunday after: same week
	}
	st.Budgets = model.Budgets{Weekly: d("30"), Monthly: d("200")}
	return st
}

func TestComputeSummary_Partitions(t *testing.T) {
	s := ComputeSummary(fixture(), now)

	if s.Week.Key != "2024-W10" || s.Month.Key != "2024-03" {
		t.Fatalf("keys = %s / %s, want 2024-W10 / 2024-03", s.Week.Key, s.Month.Key)
	}
	if !s.Week.Spent.Equal(d("31.5")) {
		t.Errorf("week spent = %s, want 31.5", s.Week.Spent)
	}
	if !s.Week.Won.Equal(d("35")) {
		t.Errorf("week won = %s, want 35", s.Week.Won)
	}
	if !s.Week.Net.Equal(d("3.5")) {
		t.Errorf("week net = %s, want 3.5", s.Week.Net)
	}
	if !s.Month.Spent.Equal(d("38.5")) {
		t.Errorf("month spent = %s, want 38.5", s.Month.Spent)
	}
	if !s.Week.Budget.Equal(d("30")) || !s.Month.Budget.Equal(d("200")) {
		t.Errorf("budgets = %s / %s, want 30 / 200", s.Week.Budget, s.Month.Budget)
	}
	if !s.Week.Over() {
		t.Error("week Over() = false, want true (31.5 > 30)")
	}
	if s.Month.Over() {
		t.Error("month Over() = true, want false")
	}
}

func TestComputeSummary_EveryVenueRepresented(t *testing.T) {
	s := ComputeSummary(fixture(), now)
	if len(s.Week.ByVenue) != 3 {
		t.Fatalf("ByVenue len = %d, want 3", len(s.Week.ByVenue))
	}

	idle, ok := s.Week.Venue("idle")
	if !ok {
		t.Fatal("idle venue missing from breakdown")
	}
	if !idle.Spent.IsZero() || !idle.Won.IsZero() {
		t.Errorf("idle totals = %s/%s, want zero", idle.Spent, idle.Won)
	}
	if !idle.WeeklyLimit.Equal(d("10")) {
		t.Errorf("idle weekly limit = %s, want 10", idle.WeeklyLimit)
	}

	a, _ := s.Week.Venue("a")
	if !a.Spent.Equal(d("21.5")) || !a.Won.Equal(d("5")) {
		t.Errorf("venue a = %s/%s, want 21.5/5", a.Spent, a.Won)
	}
}

func TestComputeSummary_OrderIndependent(t *testing.T) {
	st := fixture()
	want := ComputeSummary(st, now)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := st.Clone()
		rng.Shuffle(len(shuffled.Entries), func(i, j int) {
			shuffled.Entries[i], shuffled.Entries[j] = shuffled.Entries[j], shuffled.Entries[i]
		})
		got := ComputeSummary(shuffled, now)
		if !got.Week.Spent.Equal(want.Week.Spent) || !got.Month.Spent.Equal(want.Month.Spent) {
			t.Fatalf("shuffle %d: spent = %s/%s, want %s/%s",
				i, got.Week.Spent, got.Month.Spent, want.Week.Spent, want.Month.Spent)
		}
	}
}

func TestComputeSummary_WeekSpentIsSumOfMatchingKeys(t *testing.T) {
	st := fixture()
	want := decimal.Zero
	for _, e := range st.Entries {
		if timekey.Week(e.Timestamp) == timekey.Week(now) {
			want = want.Add(e.Spent)
		}
	}
	if got := ComputeSummary(st, now).Week.Spent; !got.Equal(want) {
		t.Errorf("week spent = %s, want %s", got, want)
	}
}

func TestComputeSummary_EmptyLedger(t *testing.T) {
	s := ComputeSummary(model.DefaultState(), now)
	if !s.Week.Spent.IsZero() || !s.Month.Net.IsZero() {
		t.Errorf("empty ledger totals not zero: %+v", s)
	}
	if s.Week.ByVenue == nil || len(s.Week.ByVenue) != 0 {
		t.Errorf("ByVenue = %v, want empty non-nil", s.Week.ByVenue)
	}
	if s.Week.Reached() || s.Month.Reached() {
		t.Error("unset budgets must never be reached")
	}
}

func TestSummarize_EndToEndVenueLimit(t *testing.T) {
	ctx := context.Background()
	l, err := ledger.Open(ctx, store.NewMemory())
	if err != nil {
		t.Fatal(err)
	}
	vid, err := l.AddVenue(ctx, "A", d("50"), decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}

	ts := time.Now()
	if _, err := l.AddEntry(ctx, ledger.NewEntry{Timestamp: ts, VenueID: vid, Spent: d("50")}); err != nil {
		t.Fatal(err)
	}
	atLimit, _ := Summarize(l, ts).Week.Venue(vid)
	if !atLimit.Reached() || atLimit.Over() {
		t.Fatalf("at 50/50: Reached=%v Over=%v, want true/false", atLimit.Reached(), atLimit.Over())
	}

	if _, err := l.AddEntry(ctx, ledger.NewEntry{Timestamp: ts, VenueID: vid, Spent: d("10")}); err != nil {
		t.Fatal(err)
	}
	v, _ := Summarize(l, ts).Week.Venue(vid)
	if v.Name != "A" || !v.Spent.Equal(d("60")) || !v.WeeklyLimit.Equal(d("50")) {
		t.Fatalf("venue = %+v, want A 60/50", v)
	}
	if !v.Over() {
		t.Error("Over() = false at 60 > 50")
	}
}

func TestDailyNet_LastNDaysOldestFirst(t *testing.T) {
	var entries []model.Entry
	base := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		entries = append(entries, entry("x", "a", base.AddDate(0, 0, i), "10", "4"))
	}
	entries = append(entries, entry("y", "a", base.AddDate(0, 0, 9).Add(time.Hour), "0", "20"))

	days := DailyNet(entries, time.UTC, 8)
	if len(days) != 8 {
		t.Fatalf("len = %d, want 8", len(days))
	}
	if got := days[0].Date.Format("2006-01-02"); got != "2024-03-03" {
		t.Errorf("first day = %s, want 2024-03-03", got)
	}
	last := days[len(days)-1]
	if !last.Net.Equal(d("14")) {
		t.Errorf("last day net = %s, want 14", last.Net)
	}
}

func TestHistory_NewestFirst(t *testing.T) {
	h := History(fixture().Entries)
	for i := 1; i < len(h); i++ {
		if h[i].Timestamp.After(h[i-1].Timestamp) {
			t.Fatalf("entry %d newer than entry %d", i, i-1)
		}
	}
}
