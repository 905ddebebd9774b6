package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/stakeledger/internal/ledger"
	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/store"
)

var pollTime = time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Entries:    10,
		WeekSpent:  d("50"),
		WeekWon:    d("20"),
		MonthSpent: d("300"),
		MonthWon:   d("100.5"),
	}
	curr := Snapshot{
		Entries:    12,
		WeekSpent:  d("62.5"),
		WeekWon:    d("20"),
		MonthSpent: d("312.5"),
		MonthWon:   d("100.5"),
	}

	delta := diffSnapshots(prev, curr)
	if delta.Entries != 2 {
		t.Fatalf("Entries delta = %d, want 2", delta.Entries)
	}
	if !delta.WeekSpent.Equal(d("12.5")) {
		t.Fatalf("WeekSpent delta = %s, want 12.5", delta.WeekSpent)
	}
	if !delta.WeekWon.IsZero() {
		t.Fatalf("WeekWon delta = %s, want 0", delta.WeekWon)
	}
	if !delta.MonthSpent.Equal(d("12.5")) {
		t.Fatalf("MonthSpent delta = %s, want 12.5", delta.MonthSpent)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
}

func TestClassify(t *testing.T) {
	base := Snapshot{WeekKey: "2024-W10", MonthKey: "2024-03", Entries: 1, WeekSpent: d("10")}

	tests := []struct {
		name     string
		prev     Snapshot
		exists   bool
		mutate   func(*Snapshot)
		wantType string
		wantOK   bool
	}{
		{"first poll", Snapshot{}, false, func(*Snapshot) {}, EventSnapshot, true},
		{"unchanged", base, true, func(*Snapshot) {}, "", false},
		{"new entry", base, true, func(s *Snapshot) { s.Entries = 2; s.WeekSpent = d("20") }, EventUsageDelta, true},
		{"week budget reached", base, true, func(s *Snapshot) { s.Entries = 2; s.WeekReached = true }, EventLimitReached, true},
		{"venue newly reached", base, true, func(s *Snapshot) { s.Entries = 2; s.VenuesReached = []string{"a"} }, EventLimitReached, true},
		{"week rolled over", base, true, func(s *Snapshot) { s.WeekKey = "2024-W11" }, EventPeriodRollover, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curr := base
			tt.mutate(&curr)
			typ, _, ok := classify(tt.prev, curr, tt.exists)
			if ok != tt.wantOK || typ != tt.wantType {
				t.Errorf("classify() = (%q, %v), want (%q, %v)", typ, ok, tt.wantType, tt.wantOK)
			}
		})
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(&fakeSource{}, Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

// Two ledgers over one store stand in for the CLI and the daemon processes.
func TestPollOnce_SeesWritesFromAnotherLedger(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemory()

	writer, err := ledger.Open(ctx, docs)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	reader, err := ledger.Open(ctx, docs)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}

	venueID, err := writer.AddVenue(ctx, "A", d("100"), decimal.Zero)
	if err != nil {
		t.Fatalf("AddVenue: %v", err)
	}

	s := New(reader, Config{}, WithClock(func() time.Time { return pollTime }))
	s.pollOnce(ctx)

	if _, err := writer.AddEntry(ctx, ledger.NewEntry{Timestamp: pollTime.Add(-time.Hour), VenueID: venueID, Spent: d("40")}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	s.pollOnce(ctx)

	if _, err := writer.AddEntry(ctx, ledger.NewEntry{Timestamp: pollTime.Add(-time.Minute), VenueID: venueID, Spent: d("60")}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	s.pollOnce(ctx)
	s.pollOnce(ctx) // no change, no event

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	wantTypes := []string{EventSnapshot, EventUsageDelta, EventLimitReached}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantTypes), events)
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("events[%d].Type = %q, want %q", i, events[i].Type, want)
		}
		if events[i].ID != int64(i+1) {
			t.Errorf("events[%d].ID = %d, want %d", i, events[i].ID, i+1)
		}
	}
	if !events[1].Delta.WeekSpent.Equal(d("40")) {
		t.Errorf("usage delta week spent = %s, want 40", events[1].Delta.WeekSpent)
	}
	last := events[2].Snapshot
	if len(last.VenuesReached) != 1 || last.VenuesReached[0] != venueID {
		t.Errorf("venues reached = %v, want [%s]", last.VenuesReached, venueID)
	}

	st := s.snapshotStatus()
	if st.PollCount != 4 {
		t.Errorf("PollCount = %d, want 4", st.PollCount)
	}
	if !st.Summary.WeekSpent.Equal(d("100")) {
		t.Errorf("status week spent = %s, want 100", st.Summary.WeekSpent)
	}
}

func TestPollOnce_ReloadErrorKeepsLastSnapshot(t *testing.T) {
	src := &fakeSource{st: model.DefaultState()}
	s := New(src, Config{}, WithClock(func() time.Time { return pollTime }))
	s.pollOnce(context.Background())

	src.err = errors.New("database is locked")
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.LastError != "database is locked" {
		t.Errorf("LastError = %q", st.LastError)
	}
	if st.Summary.WeekKey != "2024-W10" {
		t.Errorf("Summary.WeekKey = %q, want last good snapshot", st.Summary.WeekKey)
	}
	if st.PollCount != 2 {
		t.Errorf("PollCount = %d, want 2", st.PollCount)
	}
}

func TestHandler_Endpoints(t *testing.T) {
	st := model.DefaultState()
	st.Venues = []model.Venue{{ID: "a", Name: "Alpha", WeeklyLimit: d("100")}}
	st.Entries = []model.Entry{{ID: "e", Timestamp: pollTime, VenueID: "a", Spent: d("25"), Won: d("5")}}

	s := New(&fakeSource{st: st}, Config{DBPath: "/tmp/ledger.db"}, WithClock(func() time.Time { return pollTime }))
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	if body := get(t, srv.URL+"/healthz"); body != "ok\n" {
		t.Errorf("/healthz = %q", body)
	}

	var status Status
	if err := json.Unmarshal([]byte(get(t, srv.URL+"/v1/status")), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.DBPath != "/tmp/ledger.db" || !status.Summary.WeekNet.Equal(d("-20")) {
		t.Errorf("status = %+v", status)
	}

	var events []Event
	if err := json.Unmarshal([]byte(get(t, srv.URL+"/v1/events")), &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 || events[0].Type != EventSnapshot {
		t.Errorf("events = %+v", events)
	}

	metrics := get(t, srv.URL+"/metrics")
	for _, want := range []string{
		`stakeledger_venue_week_spent{venue="Alpha"} 25`,
		`stakeledger_period_amount{kind="net",period="week"} -20`,
		`stakeledger_polls_total 1`,
	} {
		if !strings.Contains(metrics, want) {
			t.Errorf("/metrics missing %q", want)
		}
	}
}

func TestHandleStream_SendsCurrentSnapshot(t *testing.T) {
	s := New(&fakeSource{st: model.DefaultState()}, Config{}, WithClock(func() time.Time { return pollTime }))
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /v1/stream: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	buf := make([]byte, 512)
	n, err := resp.Body.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("read stream: %v", err)
	}
	if !strings.HasPrefix(string(buf[:n]), "event: snapshot\n") {
		t.Errorf("stream began with %q", buf[:n])
	}
}

type fakeSource struct {
	st  model.State
	err error
}

func (f *fakeSource) State() model.State { return f.st }

func (f *fakeSource) Reload(context.Context) error { return f.err }

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec,noctx // test server URL
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", url, err)
	}
	return string(b)
}
