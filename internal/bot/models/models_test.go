package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleDriver, r)

	r, err = ParseRole("Admin")
	require.NoError(t, err)
	assert.True(t, r.CanApprove())
	assert.False(t, RoleDriver.CanApprove())

	_, err = ParseRole("Boss")
	assert.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, s)

	s, err = ParseStatus("Pending")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, s)

	_, err = ParseStatus("Maybe")
	assert.Error(t, err)
}

func TestDriver_Approved(t *testing.T) {
	var nilDriver *Driver
	assert.False(t, nilDriver.Approved())
	assert.False(t, (&Driver{Status: StatusPending}).Approved())
	assert.True(t, (&Driver{Status: StatusApproved}).Approved())
}

func TestLedgerEntry_Accessors(t *testing.T) {
	var nilEntry *LedgerEntry
	_, ok := nilEntry.Reading()
	assert.False(t, ok)
	assert.Zero(t, nilEntry.CostValue())

	_, ok = (&LedgerEntry{}).Reading()
	assert.False(t, ok)

	odo := int64(15000)
	cost := 12.5
	e := &LedgerEntry{Odometer: &odo, Cost: &cost}
	got, ok := e.Reading()
	assert.True(t, ok)
	assert.Equal(t, int64(15000), got)
	assert.Equal(t, 12.5, e.CostValue())
}

func TestParseEntryType(t *testing.T) {
	for _, s := range []string{"Start", "Fuel", "End"} {
		got, err := ParseEntryType(s)
		require.NoError(t, err)
		assert.Equal(t, EntryType(s), got)
	}
	_, err := ParseEntryType("Lunch")
	assert.Error(t, err)
}
