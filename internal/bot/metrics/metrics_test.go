package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/models"
	"github.com/dmitrijs2005/shiftkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func odo(v int64) *models.LedgerEntry {
	return &models.LedgerEntry{Odometer: &v}
}

func fuel(uid, date string, cost float64) *models.LedgerEntry {
	return &models.LedgerEntry{UID: uid, Date: date, Type: models.EntryFuel, Cost: &cost}
}

func TestPersonalKm(t *testing.T) {
	assert.Equal(t, 0.0, PersonalKm(15000, nil))
	assert.Equal(t, 200.0, PersonalKm(15000, odo(14800)))
	assert.Equal(t, -50.0, PersonalKm(14750, odo(14800)), "decreasing readings are kept")
	assert.Equal(t, 0.0, PersonalKm(15000, &models.LedgerEntry{}))
}

func TestDeltaKm(t *testing.T) {
	assert.Equal(t, 15350.0, DeltaKm(15350, nil))
	assert.Equal(t, 350.0, DeltaKm(15350, odo(15000)))
	assert.Equal(t, -10.0, DeltaKm(14990, odo(15000)))
}

func TestDailyFuelTotal(t *testing.T) {
	entries := []*models.LedgerEntry{
		fuel("7", "2026-10-14", 1000),
		fuel("7", "2026-10-14", 2500.5),
		fuel("7", "2026-10-13", 99),
		fuel("8", "2026-10-14", 77),
		{UID: "7", Date: "2026-10-14", Type: models.EntryStart},
	}
	assert.InDelta(t, 3500.5, DailyFuelTotal(entries, "7", "2026-10-14"), 1e-9)
	assert.Equal(t, 0.0, DailyFuelTotal(entries, "9", "2026-10-14"))
}

func TestOpenShifts(t *testing.T) {
	entries := []*models.LedgerEntry{
		{UID: "1", Type: models.EntryStart},
		{UID: "2", Type: models.EntryStart},
		{UID: "2", Type: models.EntryFuel},
		{UID: "2", Type: models.EntryEnd},
		{UID: "3", Type: models.EntryEnd},
		{UID: "3", Type: models.EntryStart},
		{UID: "3", Type: models.EntryFuel},
	}
	assert.Equal(t, []string{"1", "3"}, OpenShifts(entries))
	assert.Empty(t, OpenShifts(nil))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr error
	}{
		{in: "12.5", want: 12.5},
		{in: "12,5", want: 12.5},
		{in: " 2500.50 ", want: 2500.5},
		{in: "40", want: 40},
		{in: "abc", wantErr: ErrNotANumber},
		{in: "", wantErr: ErrNotANumber},
		{in: "1,2,3", wantErr: ErrNotANumber},
		{in: "-3", wantErr: ErrNegative},
		{in: "NaN", wantErr: ErrNotANumber},
		{in: "inf", wantErr: ErrNotANumber},
		{in: "0x1p4", wantErr: ErrNotANumber},
		{in: "1e3", wantErr: ErrNotANumber},
		{in: "1_000", wantErr: ErrNotANumber},
		{in: "+5", wantErr: ErrNotANumber},
		{in: "12 5", wantErr: ErrNotANumber},
		{in: "-", wantErr: ErrNotANumber},
		{in: ".", wantErr: ErrNotANumber},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNumber(tt.in)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.True(t, math.Abs(got-tt.want) < 1e-9)
		})
	}
}

func TestParseOdometer(t *testing.T) {
	v, err := ParseOdometer(" 15000 ")
	require.NoError(t, err)
	assert.Equal(t, int64(15000), v)

	_, err = ParseOdometer("15000.5")
	assert.ErrorIs(t, err, ErrNotANumber)
	_, err = ParseOdometer("ten")
	assert.ErrorIs(t, err, ErrNotANumber)
	_, err = ParseOdometer("-1")
	assert.ErrorIs(t, err, ErrNegative)
	assert.ErrorIs(t, err, common.ErrValidation)
}
