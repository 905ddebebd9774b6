// Package gate implements the commitment-mode cooldown gate that stands
// between a user and a new ledger entry once a spending limit is reached.
//
// The gate is a state machine driven by Advance; UIs poll Status once per
// PollInterval to redraw. Remaining time is always derived from the captured
// deadline, so a suspended process picks up the correct countdown on resume.
// The gate only grants permission; writing the entry is the caller's job.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/pipeline"
)

var (
	// ErrGateBusy is returned when a request arrives while another gate is open.
	ErrGateBusy = errors.New("a cooldown gate is already in progress")
	// ErrNoGate is returned for events that need an open gate.
	ErrNoGate = errors.New("no cooldown gate in progress")
	// ErrReasonRequired is returned when the cooldown is started without a reason.
	ErrReasonRequired = errors.New("a reason is required to start the cooldown")
	// ErrVenueRequired is returned for a request without a venue id.
	ErrVenueRequired = errors.New("a venue id is required")
	// ErrUnexpectedEvent is returned for events invalid in the current state.
	ErrUnexpectedEvent = errors.New("event not valid in current gate state")
)

const (
	msgReasonRequired = "Please write a short reason to proceed."
	msgCooling        = "Cooling down… %ds"
	msgReady          = "You can proceed now."
)

// Reloader is implemented by sources that cache ledger state and can refresh
// it from durable storage. A gate over a Reloader refreshes before every
// decision so writes from other processes count toward the limits.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Gate is the single cooldown gate for a session. It is safe for concurrent
// use, but only one gate may be in flight at a time.
type Gate struct {
	src pipeline.Snapshotter
	log *slog.Logger

	mu       sync.Mutex
	state    State
	venueID  string
	minutes  int
	reason   string
	deadline time.Time
	message  string
	trigger  Trigger
	trail    []State
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger used for transition events.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.log = l }
}

// New returns an idle gate reading limits from src.
func New(src pipeline.Snapshotter, opts ...Option) *Gate {
	g := &Gate{src: src, log: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Advance applies ev at now and returns the resulting state.
func (g *Gate) Advance(ev Event, now time.Time) (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.expire(now)

	switch ev.Kind {
	case EventRequest:
		return g.request(ev, now)
	case EventStart:
		return g.start(ev, now)
	case EventClose:
		return g.close(now)
	default:
		return g.state, fmt.Errorf("%w: kind %d", ErrUnexpectedEvent, ev.Kind)
	}
}

func (g *Gate) request(ev Event, now time.Time) (State, error) {
	if g.state.InFlight() {
		return g.state, ErrGateBusy
	}
	if strings.TrimSpace(ev.VenueID) == "" {
		return g.state, ErrVenueRequired
	}

	if r, ok := g.src.(Reloader); ok {
		if err := r.Reload(context.Background()); err != nil {
			g.log.Warn("gate could not refresh ledger", "venue", ev.VenueID, "err", err)
			return g.state, fmt.Errorf("refreshing ledger: %w", err)
		}
	}

	g.reset()
	g.venueID = ev.VenueID
	g.to(Checking)

	st := g.src.State()
	if !st.Settings.CommitmentMode {
		g.to(Passthrough)
		g.to(Allowed)
		return g.state, nil
	}

	trig := Evaluate(st, ev.VenueID, now)
	if !trig.Any() {
		g.to(Passthrough)
		g.to(Allowed)
		return g.state, nil
	}

	g.trigger = trig
	g.minutes = cooldownMinutes(ev.Minutes, st.Settings)
	g.to(AwaitingReason)
	return g.state, nil
}

func (g *Gate) start(ev Event, now time.Time) (State, error) {
	switch {
	case g.state == AwaitingReason:
	case g.state == Idle || g.state.Terminal():
		return g.state, ErrNoGate
	default:
		return g.state, fmt.Errorf("%w: start in %s", ErrUnexpectedEvent, g.state)
	}

	reason := strings.TrimSpace(ev.Reason)
	if reason == "" {
		g.message = msgReasonRequired
		return g.state, ErrReasonRequired
	}

	g.reason = reason
	g.message = ""
	g.deadline = now.Add(time.Duration(g.minutes) * time.Minute)
	g.to(Cooling)
	return g.state, nil
}

func (g *Gate) close(now time.Time) (State, error) {
	if !g.state.InFlight() {
		return g.state, ErrNoGate
	}
	if !g.deadline.IsZero() && !now.Before(g.deadline) {
		g.to(Allowed)
	} else {
		g.to(Cancelled)
	}
	return g.state, nil
}

// expire moves COOLING to READY once the deadline has passed.
func (g *Gate) expire(now time.Time) {
	if g.state == Cooling && !now.Before(g.deadline) {
		g.to(Ready)
	}
}

// Status returns the gate's view at now, advancing COOLING to READY if due.
func (g *Gate) Status(now time.Time) Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.expire(now)

	s := Status{
		State:    g.state,
		VenueID:  g.venueID,
		Reason:   g.reason,
		Minutes:  g.minutes,
		Deadline: g.deadline,
		Message:  g.message,
		Trigger:  g.trigger,
	}
	switch g.state {
	case Cooling:
		s.Remaining = g.deadline.Sub(now)
		s.Message = fmt.Sprintf(msgCooling, s.RemainingSeconds())
	case Ready:
		s.Message = msgReady
	}
	return s
}

// Trail returns the states visited since the last request, oldest first.
func (g *Gate) Trail() []State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]State(nil), g.trail...)
}

func (g *Gate) reset() {
	g.state = Idle
	g.venueID = ""
	g.minutes = 0
	g.reason = ""
	g.deadline = time.Time{}
	g.message = ""
	g.trigger = Trigger{}
	g.trail = g.trail[:0]
}

func (g *Gate) to(s State) {
	g.log.Debug("gate transition", "from", g.state, "to", s, "venue", g.venueID)
	g.state = s
	g.trail = append(g.trail, s)
}

// Evaluate reports which limits are reached (at or above) for venueID at now.
func Evaluate(st model.State, venueID string, now time.Time) Trigger {
	sum := pipeline.ComputeSummary(st, now)
	var t Trigger
	if v, ok := sum.Week.Venue(venueID); ok {
		t.Venue = v.Reached()
	}
	t.Weekly = sum.Week.Reached()
	t.Monthly = sum.Month.Reached()
	return t
}

func cooldownMinutes(override int, s model.Settings) int {
	if override > 0 {
		return override
	}
	if s.CooldownMinutes > 0 {
		return s.CooldownMinutes
	}
	return model.DefaultCooldownMinutes
}
