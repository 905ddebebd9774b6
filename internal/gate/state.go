package gate

import "time"

// PollInterval is how often a UI should redraw Status while a gate is open.
const PollInterval = time.Second

// State is a cooldown gate state.
type State int

const (
	Idle State = iota
	Checking
	Passthrough
	AwaitingReason
	Cooling
	Ready
	Allowed
	Cancelled
)

var stateNames = [...]string{
	Idle:           "IDLE",
	Checking:       "CHECKING",
	Passthrough:    "PASSTHROUGH",
	AwaitingReason: "AWAITING_REASON",
	Cooling:        "COOLING",
	Ready:          "READY",
	Allowed:        "ALLOWED",
	Cancelled:      "CANCELLED",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// Terminal reports whether s resolves the gate.
func (s State) Terminal() bool {
	return s == Allowed || s == Cancelled
}

// InFlight reports whether a gate in state s is waiting on the user.
func (s State) InFlight() bool {
	return s == AwaitingReason || s == Cooling || s == Ready
}

// EventKind identifies what happened to the gate.
type EventKind int

const (
	// EventRequest asks for permission to log an entry against a venue.
	EventRequest EventKind = iota
	// EventStart submits the justification and starts the timer.
	EventStart
	// EventClose closes the dialog, resolving the gate.
	EventClose
)

// Event drives Advance.
type Event struct {
	Kind    EventKind
	VenueID string
	// Minutes overrides the configured cooldown for this request when positive.
	Minutes int
	Reason  string
}

// Request builds an EventRequest.
func Request(venueID string, minutes int) Event {
	return Event{Kind: EventRequest, VenueID: venueID, Minutes: minutes}
}

// Start builds an EventStart.
func Start(reason string) Event {
	return Event{Kind: EventStart, Reason: reason}
}

// Close builds an EventClose.
func Close() Event {
	return Event{Kind: EventClose}
}

// Trigger records which limits caused a gate to block.
type Trigger struct {
	Venue   bool
	Weekly  bool
	Monthly bool
}

// Any reports whether any limit was reached.
func (t Trigger) Any() bool {
	return t.Venue || t.Weekly || t.Monthly
}

// Status is a point-in-time view of the gate for rendering.
type Status struct {
	State     State
	VenueID   string
	Reason    string
	Minutes   int
	Deadline  time.Time
	Remaining time.Duration
	Message   string
	Trigger   Trigger
}

// RemainingSeconds rounds the remaining cooldown up to whole seconds.
func (s Status) RemainingSeconds() int {
	if s.Remaining <= 0 {
		return 0
	}
	return int((s.Remaining + time.Second - 1) / time.Second)
}
