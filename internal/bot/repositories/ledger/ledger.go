// Package ledger reads and appends shift and fuel entries on the Ledger
// worksheet. The header-to-field mapping is private to this package.
package ledger

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/models"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/repositories/sheets"
	"github.com/dmitrijs2005/shiftkeeper/internal/logging"
)

const (
	colDate       = "Date"
	colUID        = "UID"
	colType       = "Type"
	colTime       = "Time"
	colOdometer   = "Odometer"
	colPhoto      = "Photo"
	colLiters     = "Liters"
	colCost       = "Cost"
	colDeltaKm    = "Delta_km"
	colPersonalKm = "Personal_km"
)

// Header is the Ledger worksheet layout.
var Header = []string{colDate, colUID, colType, colTime, colOdometer, colPhoto, colLiters, colCost, colDeltaKm, colPersonalKm}

// Repository is the ledger accessor used by the workflow and reminder.
type Repository interface {
	Append(ctx context.Context, e *models.LedgerEntry) error
	MostRecent(ctx context.Context, uid string, types ...models.EntryType) (*models.LedgerEntry, error)
	Entries(ctx context.Context) ([]*models.LedgerEntry, error)
}

// SheetRepository implements Repository over a sheets.Table. Every lookup
// is a full scan of the worksheet.
type SheetRepository struct {
	table  *sheets.Table
	logger logging.Logger
}

func Open(ctx context.Context, store sheets.Store, sheet string, logger logging.Logger) (*SheetRepository, error) {
	table, err := sheets.OpenTable(ctx, store, sheet, Header)
	if err != nil {
		return nil, err
	}
	return &SheetRepository{table: table, logger: logger.With("module", "ledger")}, nil
}

// Append writes e as a single row. Failures are returned as is and never
// retried: the store has no idempotency key, so a blind retry could
// duplicate the row.
func (r *SheetRepository) Append(ctx context.Context, e *models.LedgerEntry) error {
	if err := r.table.Append(ctx, encode(e)); err != nil {
		return fmt.Errorf("append %s entry for %s: %w", e.Type, e.UID, err)
	}
	r.logger.Debug(ctx, "entry appended", "uid", e.UID, "type", e.Type)
	return nil
}

// MostRecent returns the last appended entry for uid whose type is one of
// types (any type when none are given). It returns nil, nil when there is
// no such entry.
func (r *SheetRepository) MostRecent(ctx context.Context, uid string, types ...models.EntryType) (*models.LedgerEntry, error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.UID != uid {
			continue
		}
		if len(types) == 0 || slices.Contains(types, e.Type) {
			return e, nil
		}
	}
	return nil, nil
}

// Entries returns every parseable entry in append order. Malformed rows are
// logged and skipped.
func (r *SheetRepository) Entries(ctx context.Context) ([]*models.LedgerEntry, error) {
	rows, err := r.table.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	entries := make([]*models.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		e, err := decode(row)
		if err != nil {
			r.logger.Warn(ctx, "skipping ledger row", "row", row.Number, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func encode(e *models.LedgerEntry) map[string]string {
	rec := map[string]string{
		colDate:  e.Date,
		colUID:   e.UID,
		colType:  string(e.Type),
		colPhoto: e.Photo,
	}
	if !e.Time.IsZero() {
		rec[colTime] = e.Time.Format(time.RFC3339)
	}
	if e.Odometer != nil {
		rec[colOdometer] = strconv.FormatInt(*e.Odometer, 10)
	}
	putFloat(rec, colLiters, e.Liters)
	putFloat(rec, colCost, e.Cost)
	putFloat(rec, colDeltaKm, e.DeltaKm)
	putFloat(rec, colPersonalKm, e.PersonalKm)
	return rec
}

func putFloat(rec map[string]string, col string, v *float64) {
	if v != nil {
		rec[col] = strconv.FormatFloat(*v, 'f', -1, 64)
	}
}

func decode(row sheets.Row) (*models.LedgerEntry, error) {
	uid := row.Get(colUID)
	if uid == "" {
		return nil, fmt.Errorf("empty uid")
	}
	typ, err := models.ParseEntryType(row.Get(colType))
	if err != nil {
		return nil, err
	}

	e := &models.LedgerEntry{
		Date:  row.Get(colDate),
		UID:   uid,
		Type:  typ,
		Photo: row.Get(colPhoto),
	}

	if s := row.Get(colTime); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("time: %w", err)
		}
		e.Time = t
	}
	if s := strings.TrimSpace(row.Get(colOdometer)); s != "" {
		odo, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("odometer: %w", err)
		}
		e.Odometer = &odo
	}
	for col, dst := range map[string]**float64{
		colLiters:     &e.Liters,
		colCost:       &e.Cost,
		colDeltaKm:    &e.DeltaKm,
		colPersonalKm: &e.PersonalKm,
	} {
		v, err := parseFloatCell(row.Get(col))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col, err)
		}
		*dst = v
	}
	return e, nil
}

// parseFloatCell accepts a comma decimal separator, as spreadsheets in
// some locales write it.
func parseFloatCell(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
