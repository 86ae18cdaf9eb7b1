package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used in ledger and analytics rows.
const DateLayout = "2006-01-02"

type EntryType string

const (
	EntryStart EntryType = "Start"
	EntryFuel  EntryType = "Fuel"
	EntryEnd   EntryType = "End"
)

func ParseEntryType(s string) (EntryType, error) {
	switch EntryType(s) {
	case EntryStart, EntryFuel, EntryEnd:
		return EntryType(s), nil
	}
	return "", fmt.Errorf("unknown entry type %q", s)
}

// LedgerEntry is one immutable ledger row. Optional fields are nil when
// the entry type does not carry them.
type LedgerEntry struct {
	Date       string
	UID        string
	Type       EntryType
	Time       time.Time
	Odometer   *int64
	Photo      string
	Liters     *float64
	Cost       *float64
	DeltaKm    *float64
	PersonalKm *float64
}

// Reading returns the odometer reading and whether the entry has one.
// A nil entry has none.
func (e *LedgerEntry) Reading() (int64, bool) {
	if e == nil || e.Odometer == nil {
		return 0, false
	}
	return *e.Odometer, true
}

// CostValue returns the cost or 0 when absent.
func (e *LedgerEntry) CostValue() float64 {
	if e == nil || e.Cost == nil {
		return 0
	}
	return *e.Cost
}

// DailyCost is one row of the Analytics worksheet.
type DailyCost struct {
	Date  string
	UID   string
	Total float64
}
