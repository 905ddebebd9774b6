package gate

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/stakeledger/internal/model"
)

type staticSource struct{ st model.State }

func (s *staticSource) State() model.State { return s.st }

var now = time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// atLimit returns a state where venue "a" has spent exactly its 100 weekly limit.
func atLimit(commitment bool) model.State {
	st := model.DefaultState()
	st.Settings.CommitmentMode = commitment
	st.Venues = []model.Venue{{ID: "a", Name: "A", WeeklyLimit: d("100")}, {ID: "b", Name: "B"}}
	st.Entries = []model.Entry{{ID: "e1", Timestamp: now.Add(-time.Hour), VenueID: "a", Spent: d("100"), Won: decimal.Zero}}
	return st
}

func TestRequest_CommitmentOffPassesThrough(t *testing.T) {
	g := New(&staticSource{st: atLimit(false)})
	got, err := g.Advance(Request("a", 0), now)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got != Allowed {
		t.Fatalf("state = %v, want %v", got, Allowed)
	}
	want := []State{Checking, Passthrough, Allowed}
	trail := g.Trail()
	if len(trail) != len(want) {
		t.Fatalf("trail = %v, want %v", trail, want)
	}
	for i := range want {
		if trail[i] != want[i] {
			t.Errorf("trail[%d] = %v, want %v", i, trail[i], want[i])
		}
	}
}

func TestRequest_NoLimitReachedAllows(t *testing.T) {
	g := New(&staticSource{st: atLimit(true)})
	got, err := g.Advance(Request("b", 0), now)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got != Allowed {
		t.Errorf("state = %v, want %v", got, Allowed)
	}
}

func TestRequest_LimitReachedAwaitsReason(t *testing.T) {
	g := New(&staticSource{st: atLimit(true)})
	got, err := g.Advance(Request("a", 0), now)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got != AwaitingReason {
		t.Fatalf("state = %v, want %v", got, AwaitingReason)
	}
	s := g.Status(now)
	if !s.Trigger.Venue || s.Trigger.Weekly || s.Trigger.Monthly {
		t.Errorf("trigger = %+v, want venue only", s.Trigger)
	}
	if s.Minutes != model.DefaultCooldownMinutes {
		t.Errorf("minutes = %d, want %d", s.Minutes, model.DefaultCooldownMinutes)
	}
}

func TestRequest_GlobalBudgetsGateAnyVenue(t *testing.T) {
	tests := []struct {
		name    string
		budgets model.Budgets
		want    State
	}{
		{"weekly reached", model.Budgets{Weekly: d("100")}, AwaitingReason},
		{"monthly reached", model.Budgets{Monthly: d("50")}, AwaitingReason},
		{"under both", model.Budgets{Weekly: d("101"), Monthly: d("500")}, Allowed},
		{"zero means unlimited", model.Budgets{}, Allowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := atLimit(true)
			st.Venues[0].WeeklyLimit = decimal.Zero
			st.Budgets = tt.budgets
			g := New(&staticSource{st: st})
			got, err := g.Advance(Request("b", 0), now)
			if err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if got != tt.want {
				t.Errorf("state = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequest_CooldownMinutesPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		settings int
		override int
		want     int
	}{
		{"override wins", 10, 1, 1},
		{"settings used", 10, 0, 10},
		{"fallback", 0, 0, model.DefaultCooldownMinutes},
		{"negative settings fallback", -4, 0, model.DefaultCooldownMinutes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := atLimit(true)
			st.Settings.CooldownMinutes = tt.settings
			g := New(&staticSource{st: st})
			if _, err := g.Advance(Request("a", tt.override), now); err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if got := g.Status(now).Minutes; got != tt.want {
				t.Errorf("minutes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStart_BlankReasonStaysAwaiting(t *testing.T) {
	g := New(&staticSource{st: atLimit(true)})
	if _, err := g.Advance(Request("a", 0), now); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	got, err := g.Advance(Start("   "), now)
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("err = %v, want ErrReasonRequired", err)
	}
	if got != AwaitingReason {
		t.Errorf("state = %v, want %v", got, AwaitingReason)
	}
	if msg := g.Status(now).Message; msg != msgReasonRequired {
		t.Errorf("message = %q, want %q", msg, msgReasonRequired)
	}
}

func TestCooldown_ReadyDerivedFromDeadline(t *testing.T) {
	g := New(&staticSource{st: atLimit(true)})
	if _, err := g.Advance(Request("a", 1), now); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, err := g.Advance(Start("checking the bonus terms"), now); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s := g.Status(now.Add(20 * time.Second))
	if s.State != Cooling {
		t.Fatalf("state = %v, want %v", s.State, Cooling)
	}
	if s.RemainingSeconds() != 40 {
		t.Errorf("remaining = %ds, want 40s", s.RemainingSeconds())
	}
	if s.Message != "Cooling down… 40s" {
		t.Errorf("message = %q", s.Message)
	}
	if s.Reason != "checking the bonus terms" {
		t.Errorf("reason = %q", s.Reason)
	}

	// No intermediate polls: a suspended process resumes past the deadline.
	s = g.Status(now.Add(5 * time.Minute))
	if s.State != Ready {
		t.Fatalf("state = %v, want %v", s.State, Ready)
	}
	if s.Message != msgReady {
		t.Errorf("message = %q, want %q", s.Message, msgReady)
	}
}

func TestCooldown_SubSecondRemainderRoundsUp(t *testing.T) {
	g := New(&staticSource{st: atLimit(true)})
	_, _ = g.Advance(Request("a", 1), now)
	_, _ = g.Advance(Start("reason"), now)

	s := g.Status(now.Add(59*time.Second + 500*time.Millisecond))
	if s.State != Cooling || s.RemainingSeconds() != 1 {
		t.Errorf("status = %v %ds, want COOLING 1s", s.State, s.RemainingSeconds())
	}
}

func TestClose(t *testing.T) {
	tests := []struct {
		name    string
		start   bool
		closeAt time.Duration
		want    State
	}{
		{"before reason", false, 0, Cancelled},
		{"while cooling", true, 30 * time.Second, Cancelled},
		{"exactly at deadline", true, time.Minute, Allowed},
		{"after deadline", true, 2 * time.Minute, Allowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(&staticSource{st: atLimit(true)})
			if _, err := g.Advance(Request("a", 1), now); err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if tt.start {
				if _, err := g.Advance(Start("reason"), now); err != nil {
					t.Fatalf("Start: %v", err)
				}
			}
			got, err := g.Advance(Close(), now.Add(tt.closeAt))
			if err != nil {
				t.Fatalf("Close: %v", err)
			}
			if got != tt.want {
				t.Errorf("state = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequest_BusyWhileInFlight(t *testing.T) {
	g := New(&staticSource{st: atLimit(true)})
	if _, err := g.Advance(Request("a", 0), now); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	got, err := g.Advance(Request("b", 0), now)
	if !errors.Is(err, ErrGateBusy) {
		t.Fatalf("err = %v, want ErrGateBusy", err)
	}
	if got != AwaitingReason {
		t.Errorf("state = %v, want %v", got, AwaitingReason)
	}
	if v := g.Status(now).VenueID; v != "a" {
		t.Errorf("venue = %q, want a", v)
	}
}

func TestRequest_RestartsAfterTerminal(t *testing.T) {
	g := New(&staticSource{st: atLimit(true)})
	_, _ = g.Advance(Request("a", 0), now)
	_, _ = g.Advance(Close(), now)

	got, err := g.Advance(Request("b", 0), now)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got != Allowed {
		t.Errorf("state = %v, want %v", got, Allowed)
	}
	if trail := g.Trail(); trail[0] != Checking {
		t.Errorf("trail = %v, want fresh trail starting at CHECKING", trail)
	}
}

func TestEventsWithoutGate(t *testing.T) {
	g := New(&staticSource{st: atLimit(true)})
	if _, err := g.Advance(Close(), now); !errors.Is(err, ErrNoGate) {
		t.Errorf("close: err = %v, want ErrNoGate", err)
	}
	if _, err := g.Advance(Start("x"), now); !errors.Is(err, ErrNoGate) {
		t.Errorf("start: err = %v, want ErrNoGate", err)
	}
	if _, err := g.Advance(Request("", 0), now); !errors.Is(err, ErrVenueRequired) {
		t.Errorf("request: err = %v, want ErrVenueRequired", err)
	}
}

func TestStart_WhileCoolingRejected(t *testing.T) {
	g := New(&staticSource{st: atLimit(true)})
	_, _ = g.Advance(Request("a", 0), now)
	_, _ = g.Advance(Start("first"), now)
	got, err := g.Advance(Start("second"), now)
	if !errors.Is(err, ErrUnexpectedEvent) {
		t.Fatalf("err = %v, want ErrUnexpectedEvent", err)
	}
	if got != Cooling {
		t.Errorf("state = %v, want %v", got, Cooling)
	}
}

func TestStateString(t *testing.T) {
	if got := AwaitingReason.String(); got != "AWAITING_REASON" {
		t.Errorf("String() = %q", got)
	}
	if got := State(42).String(); got != "UNKNOWN" {
		t.Errorf("String() = %q", got)
	}
}
