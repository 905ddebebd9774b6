package ledger

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/stakeledger/internal/model"
	"github.com/theirongolddev/stakeledger/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// sharedFile opens one ledger file through independent connections, the way
// the CLI, TUI and daemon do from separate processes.
type sharedFile struct {
	t    *testing.T
	path string
}

func newSharedFile(t *testing.T) sharedFile {
	return sharedFile{t: t, path: filepath.Join(t.TempDir(), "ledger.db")}
}

func (f sharedFile) open() (*Ledger, *store.SQLite) {
	f.t.Helper()
	db, err := store.Open(f.path)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = db.Close() })
	l, err := Open(context.Background(), db)
	require.NoError(f.t, err)
	return l, db
}

func TestSharedStore_StaleWritersKeepEachOthersEntries(t *testing.T) {
	ctx := context.Background()
	f := newSharedFile(t)
	a, _ := f.open()
	b, _ := f.open()

	vid, err := a.AddVenue(ctx, "A", decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	// b has never seen the venue; its write must still validate against disk.
	ts := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	_, err = b.AddEntry(ctx, NewEntry{Timestamp: ts, VenueID: vid, Spent: dec("5")})
	require.NoError(t, err)
	_, err = a.AddEntry(ctx, NewEntry{Timestamp: ts, VenueID: vid, Spent: dec("7")})
	require.NoError(t, err)

	assert.Len(t, a.State().Entries, 2, "a writer publishes what it read inside its transaction")

	fresh, _ := f.open()
	st := fresh.State()
	require.Len(t, st.Entries, 2)
	total := decimal.Zero
	for _, e := range st.Entries {
		total = total.Add(e.Spent)
	}
	assert.True(t, total.Equal(dec("12")), "total spent = %s", total)
}

func TestSharedStore_RemovedVenueRejectsStaleEntry(t *testing.T) {
	ctx := context.Background()
	f := newSharedFile(t)
	a, _ := f.open()
	vid, err := a.AddVenue(ctx, "A", decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	b, db := f.open()
	_, ok := b.State().Venue(vid)
	require.True(t, ok)

	require.NoError(t, a.RemoveVenue(ctx, vid))

	_, err = b.AddEntry(ctx, NewEntry{Timestamp: time.Now(), VenueID: vid, Spent: dec("5")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrValidation)

	raw, err := db.Get(ctx, KeyEntries)
	require.NoError(t, err)
	var stored []model.Entry
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Empty(t, stored, "no orphan entry may reach disk")

	assert.Empty(t, b.State().Venues)
	fresh, _ := f.open()
	assert.Empty(t, fresh.State().Venues)
	assert.Empty(t, fresh.State().Entries)
}

func TestSharedStore_SettingsPatchKeepsOtherWritersFields(t *testing.T) {
	ctx := context.Background()
	f := newSharedFile(t)
	a, _ := f.open()
	b, _ := f.open()

	on := true
	require.NoError(t, a.SetSettings(ctx, model.SettingsPatch{CommitmentMode: &on}))

	section := "entries"
	require.NoError(t, b.SetSettings(ctx, model.SettingsPatch{LastSection: &section}))

	fresh, _ := f.open()
	st := fresh.State()
	assert.True(t, st.Settings.CommitmentMode, "a stale settings write must not turn commitment mode off")
	assert.Equal(t, "entries", st.Settings.LastSection)
	assert.True(t, b.State().Settings.CommitmentMode)
}

func TestSharedStore_ConcurrentWritersLoseNothing(t *testing.T) {
	ctx := context.Background()
	f := newSharedFile(t)
	a, _ := f.open()
	b, _ := f.open()
	vid, err := a.AddVenue(ctx, "A", decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	const perWriter = 10
	ts := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	var g errgroup.Group
	for _, l := range []*Ledger{a, b} {
		l := l
		g.Go(func() error {
			for i := 0; i < perWriter; i++ {
				if _, err := l.AddEntry(ctx, NewEntry{Timestamp: ts, VenueID: vid, Spent: dec("1")}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	fresh, _ := f.open()
	st := fresh.State()
	assert.Len(t, st.Entries, 2*perWriter)
	ids := make(map[string]struct{}, len(st.Entries))
	for _, e := range st.Entries {
		ids[e.ID] = struct{}{}
	}
	assert.Len(t, ids, 2*perWriter)
}
