// Package daemon provides the long-running local ledger status service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/pipeline"
)

// Source is the ledger the daemon watches. Reload re-reads durable storage so
// writes from other processes become visible.
type Source interface {
	pipeline.Snapshotter
	Reload(ctx context.Context) error
}

// Config controls the daemon runtime behavior.
type Config struct {
	DBPath       string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Snapshot is a compact ledger state for status/event payloads.
type Snapshot struct {
	At            time.Time       `json:"at"`
	WeekKey       string          `json:"week_key"`
	MonthKey      string          `json:"month_key"`
	Venues        int             `json:"venues"`
	Entries       int             `json:"entries"`
	WeekSpent     decimal.Decimal `json:"week_spent"`
	WeekWon       decimal.Decimal `json:"week_won"`
	WeekNet       decimal.Decimal `json:"week_net"`
	WeekBudget    decimal.Decimal `json:"week_budget"`
	MonthSpent    decimal.Decimal `json:"month_spent"`
	MonthWon      decimal.Decimal `json:"month_won"`
	MonthNet      decimal.Decimal `json:"month_net"`
	MonthBudget   decimal.Decimal `json:"month_budget"`
	Currency      string          `json:"currency"`
	WeekReached   bool            `json:"week_reached"`
	MonthReached  bool            `json:"month_reached"`
	VenuesReached []string        `json:"venues_reached,omitempty"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Entries    int             `json:"entries"`
	WeekSpent  decimal.Decimal `json:"week_spent"`
	WeekWon    decimal.Decimal `json:"week_won"`
	MonthSpent decimal.Decimal `json:"month_spent"`
	MonthWon   decimal.Decimal `json:"month_won"`
}

func (d Delta) isZero() bool {
	return d.Entries == 0 &&
		d.WeekSpent.IsZero() &&
		d.WeekWon.IsZero() &&
		d.MonthSpent.IsZero() &&
		d.MonthWon.IsZero()
}

// Event types.
const (
	EventSnapshot     = "snapshot"
	EventUsageDelta   = "usage_delta"
	EventLimitReached = "limit_reached"
	// A new week or month started between polls.
	EventPeriodRollover = "period_rollover"
)

// Event is emitted whenever the ledger snapshot updates.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DBPath          string    `json:"db_path"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	src     Source
	log     *slog.Logger
	now     func() time.Time
	metrics *metrics

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides time.Now for polls.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a new daemon service watching src.
func New(src Source, cfg Config, opts ...Option) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	s := &Service{
		cfg:     cfg,
		src:     src,
		log:     slog.Default(),
		now:     time.Now,
		metrics: newMetrics(),
		subs:    make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	return s
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.Handle("/metrics", s.metrics.handler())
	return mux
}

// Run serves the HTTP API and polls the ledger until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		// Seed initial snapshot so status is useful immediately.
		s.pollOnce(gctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.pollOnce(gctx)
			}
		}
	})

	return g.Wait()
}

func (s *Service) pollOnce(ctx context.Context) {
	now := s.now()
	s.metrics.polls.Inc()

	if err := s.src.Reload(ctx); err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.metrics.pollErrors.Inc()
		s.log.Warn("daemon poll failed", "err", err)
		return
	}

	st := s.src.State()
	sum := pipeline.ComputeSummary(st, now)
	snap := snapshotFromSummary(st, sum)
	s.metrics.observe(sum)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if typ, delta, ok := classify(prev, snap, prevExists); ok {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      typ,
			Timestamp: now,
			Snapshot:  snap,
			Delta:     delta,
		}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.log.Debug("daemon event", "type", ev.Type, "id", ev.ID)
		s.publishEvent(ev)
	}
}

// classify decides which event, if any, a new snapshot produces.
func classify(prev, curr Snapshot, prevExists bool) (string, Delta, bool) {
	if !prevExists {
		return EventSnapshot, Delta{}, true
	}
	if prev.WeekKey != curr.WeekKey || prev.MonthKey != curr.MonthKey {
		return EventPeriodRollover, Delta{}, true
	}
	delta := diffSnapshots(prev, curr)
	if delta.isZero() {
		return "", Delta{}, false
	}
	if newlyReached(prev, curr) {
		return EventLimitReached, delta, true
	}
	return EventUsageDelta, delta, true
}

func newlyReached(prev, curr Snapshot) bool {
	if (curr.WeekReached && !prev.WeekReached) || (curr.MonthReached && !prev.MonthReached) {
		return true
	}
	seen := make(map[string]bool, len(prev.VenuesReached))
	for _, id := range prev.VenuesReached {
		seen[id] = true
	}
	for _, id := range curr.VenuesReached {
		if !seen[id] {
			return true
		}
	}
	return false
}

func snapshotFromSummary(st model.State, sum model.Summary) Snapshot {
	snap := Snapshot{
		At:           sum.At,
		WeekKey:      sum.Week.Key,
		MonthKey:     sum.Month.Key,
		Venues:       len(st.Venues),
		Entries:      len(st.Entries),
		WeekSpent:    sum.Week.Spent,
		WeekWon:      sum.Week.Won,
		WeekNet:      sum.Week.Net,
		WeekBudget:   sum.Week.Budget,
		MonthSpent:   sum.Month.Spent,
		MonthWon:     sum.Month.Won,
		MonthNet:     sum.Month.Net,
		MonthBudget:  sum.Month.Budget,
		Currency:     st.Settings.Currency,
		WeekReached:  sum.Week.Reached(),
		MonthReached: sum.Month.Reached(),
	}
	for _, v := range sum.Week.ByVenue {
		if v.Reached() {
			snap.VenuesReached = append(snap.VenuesReached, v.VenueID)
		}
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Entries:    curr.Entries - prev.Entries,
		WeekSpent:  curr.WeekSpent.Sub(prev.WeekSpent),
		WeekWon:    curr.WeekWon.Sub(prev.WeekWon),
		MonthSpent: curr.MonthSpent.Sub(prev.MonthSpent),
		MonthWon:   curr.MonthWon.Sub(prev.MonthWon),
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DBPath:          s.cfg.DBPath,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	current := Event{
		Type:      EventSnapshot,
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
