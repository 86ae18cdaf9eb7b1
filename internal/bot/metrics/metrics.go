// Package metrics holds the pure mileage and cost computations over ledger
// entries, plus parsing of the numbers drivers type in.
//
// Odometer readings are not checked for monotonicity: a reading lower than
// the previous one yields a negative distance and is kept as reported.
package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/models"
	"github.com/dmitrijs2005/shiftkeeper/internal/common"
)

// PersonalKm is the off-shift distance driven since the last shift ended.
// Without a previous End it is 0.
func PersonalKm(startOdo int64, lastEnd *models.LedgerEntry) float64 {
	prev, ok := lastEnd.Reading()
	if !ok {
		return 0
	}
	return float64(startOdo - prev)
}

// DeltaKm is the distance driven during the shift. Without a previous
// Start the whole reading counts.
func DeltaKm(endOdo int64, lastStart *models.LedgerEntry) float64 {
	prev, ok := lastStart.Reading()
	if !ok {
		return float64(endOdo)
	}
	return float64(endOdo - prev)
}

// DailyFuelTotal sums the cost of uid's Fuel entries dated date.
func DailyFuelTotal(entries []*models.LedgerEntry, uid, date string) float64 {
	var total float64
	for _, e := range entries {
		if e.Type == models.EntryFuel && e.UID == uid && e.Date == date {
			total += e.CostValue()
		}
	}
	return total
}

// OpenShifts returns, sorted, the users whose latest Start or End entry is
// a Start.
func OpenShifts(entries []*models.LedgerEntry) []string {
	last := make(map[string]models.EntryType)
	for _, e := range entries {
		if e.Type == models.EntryStart || e.Type == models.EntryEnd {
			last[e.UID] = e.Type
		}
	}

	var open []string
	for uid, typ := range last {
		if typ == models.EntryStart {
			open = append(open, uid)
		}
	}
	sort.Strings(open)
	return open
}

// Both errors match common.ErrValidation.
var (
	ErrNotANumber = fmt.Errorf("%w: not a number", common.ErrValidation)
	ErrNegative   = fmt.Errorf("%w: negative value", common.ErrValidation)
)

// ParseNumber reads a decimal typed by a user; "12.5" and "12,5" are the
// same value.
func ParseNumber(text string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if !plainDecimal(s) {
		return 0, ErrNotANumber
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrNotANumber
	}
	if v < 0 {
		return 0, ErrNegative
	}
	return v, nil
}

// plainDecimal reports whether s is an optional minus sign followed by
// digits and dots only, which keeps ParseFloat's exponent, hex and
// special-value syntaxes out.
func plainDecimal(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

// ParseOdometer reads a whole-kilometre odometer reading.
func ParseOdometer(text string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, ErrNotANumber
	}
	if v < 0 {
		return 0, ErrNegative
	}
	return v, nil
}
