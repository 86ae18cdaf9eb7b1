package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/models"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/repositories/sheets"
	"github.com/dmitrijs2005/shiftkeeper/internal/common"
	"github.com/dmitrijs2005/shiftkeeper/internal/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

func ptr[T any](v T) *T { return &v }

func newRepo(t *testing.T) (*SheetRepository, *sheets.MemoryStore) {
	t.Helper()
	store := sheets.NewMemoryStore()
	r, err := Open(context.Background(), store, "Ledger", logging.Nop())
	require.NoError(t, err)
	return r, store
}

func TestAppend_RowLayout(t *testing.T) {
	ctx := context.Background()
	r, store := newRepo(t)

	require.NoError(t, r.Append(ctx, &models.LedgerEntry{
		Date:   "2026-10-14",
		UID:    "7",
		Type:   models.EntryFuel,
		Time:   time.Date(2026, 10, 14, 9, 30, 0, 0, msk),
		Photo:  "file-1",
		Liters: ptr(40.2),
		Cost:   ptr(2500.5),
	}))

	rows, err := store.GetAllRows(ctx, "Ledger")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"2026-10-14", "7", "Fuel", "2026-10-14T09:30:00+03:00", "", "file-1", "40.2", "2500.5", "", ""}, rows[1])
}

func TestAppend_RoundTripThroughEntries(t *testing.T) {
	ctx := context.Background()
	r, _ := newRepo(t)

	want := &models.LedgerEntry{
		Date:       "2026-10-14",
		UID:        "7",
		Type:       models.EntryStart,
		Time:       time.Date(2026, 10, 14, 8, 0, 0, 0, msk),
		Odometer:   ptr(int64(15000)),
		Photo:      "file-2",
		PersonalKm: ptr(200.0),
	}
	require.NoError(t, r.Append(ctx, want))

	got, err := r.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Time.Equal(want.Time))
	got[0].Time = want.Time
	assert.Empty(t, cmp.Diff(want, got[0]))
}

func TestMostRecent(t *testing.T) {
	ctx := context.Background()
	r, _ := newRepo(t)

	appendEntry := func(uid string, typ models.EntryType, odo int64) {
		require.NoError(t, r.Append(ctx, &models.LedgerEntry{Date: "2026-10-14", UID: uid, Type: typ, Odometer: ptr(odo)}))
	}
	appendEntry("1", models.EntryStart, 100)
	appendEntry("2", models.EntryStart, 500)
	appendEntry("1", models.EntryEnd, 180)
	appendEntry("1", models.EntryStart, 190)

	e, err := r.MostRecent(ctx, "1", models.EntryEnd)
	require.NoError(t, err)
	require.NotNil(t, e)
	reading, _ := e.Reading()
	assert.Equal(t, int64(180), reading)

	e, err = r.MostRecent(ctx, "1", models.EntryStart)
	require.NoError(t, err)
	reading, _ = e.Reading()
	assert.Equal(t, int64(190), reading, "later duplicate Start wins")

	e, err = r.MostRecent(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, models.EntryStart, e.Type)

	e, err = r.MostRecent(ctx, "2", models.EntryEnd, models.EntryFuel)
	require.NoError(t, err)
	assert.Nil(t, e, "no history is not an error")

	e, err = r.MostRecent(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestEntries_SkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	r, store := newRepo(t)

	require.NoError(t, store.AppendRow(ctx, "Ledger", []string{"2026-10-14", "1", "Lunch"}))
	require.NoError(t, store.AppendRow(ctx, "Ledger", []string{"2026-10-14", "1", "Start", "", "not-a-number"}))
	require.NoError(t, store.AppendRow(ctx, "Ledger", []string{"2026-10-14", "1", "Fuel", "", "", "p", "40,5", "1 000"}))
	require.NoError(t, store.AppendRow(ctx, "Ledger", []string{"2026-10-14", "1", "Fuel", "", "", "p", "40,5", "1000,25"}))

	entries, err := r.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 40.5, *entries[0].Liters)
	assert.Equal(t, 1000.25, entries[0].CostValue())
}

func TestStoreFailuresSurface(t *testing.T) {
	ctx := context.Background()
	r, store := newRepo(t)
	store.SetFailure(errors.New("503"))

	err := r.Append(ctx, &models.LedgerEntry{UID: "1", Type: models.EntryStart})
	assert.True(t, errors.Is(err, common.ErrStoreUnavailable))

	_, err = r.MostRecent(ctx, "1")
	assert.True(t, errors.Is(err, common.ErrStoreUnavailable))
}
