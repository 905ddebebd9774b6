// Package ledger owns the venues, entries, budgets and settings collections
// and persists them through a DocumentStore.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/theirongolddev/stakeledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Document keys. Every key defaults to its empty schema when absent.
const (
	KeyVenues   = "venues"
	KeyEntries  = "entries"
	KeyBudgets  = "budgets"
	KeySettings = "settings"
)

var allKeys = []string{KeyVenues, KeyEntries, KeyBudgets, KeySettings}

// DocumentStore is the durable key-value collaborator. GetMany reads from one
// consistent snapshot. Update reads keys and writes whatever fn returns inside
// a single exclusive transaction, so a read-modify-write cannot interleave with
// another writer, including one in a different process.
type DocumentStore interface {
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	Update(ctx context.Context, keys []string, fn func(current map[string][]byte) (map[string][]byte, error)) error
}

// NewEntry holds the caller-supplied fields of an entry.
type NewEntry struct {
	Timestamp time.Time
	VenueID   string
	Spent     decimal.Decimal
	Won       decimal.Decimal
	Notes     string
}

// Ledger is the single source of truth for ledger data. Mutations are
// serialized and each one is persisted as a single batch before it becomes
// visible to readers.
type Ledger struct {
	docs  DocumentStore
	log   *slog.Logger
	newID func() string

	mu    sync.RWMutex
	state model.State
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for mutation events.
func WithLogger(l *slog.Logger) Option {
	return func(lg *Ledger) { lg.log = l }
}

// WithIDFunc overrides id generation (tests use deterministic ids).
func WithIDFunc(fn func() string) Option {
	return func(lg *Ledger) { lg.newID = fn }
}

// Open loads the ledger from docs, filling defaults for anything absent.
func Open(ctx context.Context, docs DocumentStore, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		docs:  docs,
		log:   slog.Default(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.Reload(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads every collection from the document store.
func (l *Ledger) Reload(ctx context.Context) error {
	raw, err := l.docs.GetMany(ctx, allKeys)
	if err != nil {
		return fmt.Errorf("loading ledger: %w", err)
	}
	st, err := l.decode(raw)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.state = st
	l.mu.Unlock()
	return nil
}

// decode builds a normalized State from raw documents. Absent keys keep their
// defaults.
func (l *Ledger) decode(raw map[string][]byte) (model.State, error) {
	st := model.DefaultState()
	targets := map[string]any{
		KeyVenues:   &st.Venues,
		KeyEntries:  &st.Entries,
		KeyBudgets:  &st.Budgets,
		KeySettings: &st.Settings,
	}
	for _, key := range allKeys {
		doc := raw[key]
		if len(doc) == 0 {
			continue
		}
		if err := json.Unmarshal(doc, targets[key]); err != nil {
			return model.State{}, fmt.Errorf("decoding %s: %w", key, err)
		}
	}

	if st.Venues == nil {
		st.Venues = []model.Venue{}
	}
	if st.Entries == nil {
		st.Entries = []model.Entry{}
	}
	st.Budgets.Weekly = NonNegative(st.Budgets.Weekly)
	st.Budgets.Monthly = NonNegative(st.Budgets.Monthly)
	st.Settings = st.Settings.Normalized()

	if dropped := dropOrphans(&st); dropped > 0 {
		l.log.Warn("dropped entries referencing missing venues", "count", dropped)
	}
	return st, nil
}

func dropOrphans(st *model.State) int {
	live := make(map[string]struct{}, len(st.Venues))
	for _, v := range st.Venues {
		live[v.ID] = struct{}{}
	}
	kept := st.Entries[:0]
	for _, e := range st.Entries {
		if _, ok := live[e.VenueID]; ok {
			kept = append(kept, e)
		}
	}
	dropped := len(st.Entries) - len(kept)
	st.Entries = kept
	return dropped
}

// State returns a deep copy of the current ledger contents.
func (l *Ledger) State() model.State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Clone()
}

// mutate re-reads the stored state inside a store transaction, applies fn to
// it, writes the listed keys, and only then publishes the result. fn never
// sees the cached copy, so writes from other Ledgers on the same store are
// neither lost nor overwritten. fn returning false writes nothing but still
// refreshes the cache.
func (l *Ledger) mutate(ctx context.Context, keys []string, fn func(*model.State) (bool, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		next  model.State
		fnErr error
	)
	err := l.docs.Update(ctx, allKeys, func(current map[string][]byte) (map[string][]byte, error) {
		st, err := l.decode(current)
		if err != nil {
			return nil, err
		}
		next = st
		changed, err := fn(&next)
		if err != nil {
			fnErr = err
			return nil, err
		}
		if !changed {
			return nil, nil
		}
		docs := make(map[string][]byte, len(keys))
		for _, key := range keys {
			raw, err := encode(next, key)
			if err != nil {
				return nil, err
			}
			docs[key] = raw
		}
		return docs, nil
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("persisting %s: %w", strings.Join(keys, ", "), err)
	}

	l.state = next
	return nil
}

func encode(st model.State, key string) ([]byte, error) {
	var v any
	switch key {
	case KeyVenues:
		v = st.Venues
	case KeyEntries:
		v = st.Entries
	case KeyBudgets:
		v = st.Budgets
	case KeySettings:
		v = st.Settings
	default:
		return nil, fmt.Errorf("unknown document key %q", key)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", key, err)
	}
	return raw, nil
}
