package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/models"
	"github.com/dmitrijs2005/shiftkeeper/internal/common"
	"github.com/dmitrijs2005/shiftkeeper/internal/logging"
)

type fakeDirectory map[string]models.Driver

func (f fakeDirectory) Lookup(uid string) (*models.Driver, error) {
	d, ok := f[uid]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &d, nil
}

type fakeLedger struct {
	entries []*models.LedgerEntry
	err     error
}

func (f fakeLedger) Entries(context.Context) ([]*models.LedgerEntry, error) {
	return f.entries, f.err
}

type fakeNotifier struct {
	uids []string
}

func (f *fakeNotifier) Remind(_ context.Context, uid string) {
	f.uids = append(f.uids, uid)
}

func entry(uid string, t models.EntryType) *models.LedgerEntry {
	return &models.LedgerEntry{UID: uid, Type: t}
}

func TestRun(t *testing.T) {
	dir := fakeDirectory{
		"1": {UID: "1", Status: models.StatusApproved},
		"2": {UID: "2", Status: models.StatusApproved},
		"3": {UID: "3", Status: models.StatusRejected},
	}
	led := fakeLedger{entries: []*models.LedgerEntry{
		entry("1", models.EntryStart),
		entry("2", models.EntryStart),
		entry("2", models.EntryFuel),
		entry("2", models.EntryEnd),
		entry("3", models.EntryStart),
		entry("4", models.EntryStart),
		entry("1", models.EntryFuel),
	}}
	n := &fakeNotifier{}

	r, err := New(DefaultSpec, time.UTC, dir, led, n, logging.Nop())
	require.NoError(t, err)

	sent, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"1"}, n.uids)
}

func TestRun_LedgerError(t *testing.T) {
	n := &fakeNotifier{}
	r, err := New(DefaultSpec, time.UTC, fakeDirectory{}, fakeLedger{err: errors.New("down")}, n, logging.Nop())
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	assert.ErrorContains(t, err, "scan ledger")
	assert.Empty(t, n.uids)
}

func TestNew_BadSpec(t *testing.T) {
	_, err := New("every evening", time.UTC, fakeDirectory{}, fakeLedger{}, &fakeNotifier{}, logging.Nop())
	assert.Error(t, err)
}

func TestNext_UsesLocation(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	r, err := New(DefaultSpec, msk, fakeDirectory{}, fakeLedger{}, &fakeNotifier{}, logging.Nop())
	require.NoError(t, err)

	// 06:00 UTC is 09:00 in Moscow; the next 20:00 there is 17:00 UTC.
	next := r.Next(time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC))
	assert.True(t, next.Equal(time.Date(2024, 3, 10, 17, 0, 0, 0, time.UTC)), next.String())

	next = r.Next(time.Date(2024, 3, 10, 17, 30, 0, 0, time.UTC))
	assert.True(t, next.Equal(time.Date(2024, 3, 11, 17, 0, 0, 0, time.UTC)), next.String())
}

func TestStart_StopsOnCancel(t *testing.T) {
	r, err := New("* * * * *", time.UTC, fakeDirectory{}, fakeLedger{}, &fakeNotifier{}, logging.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reminder did not stop")
	}
}
