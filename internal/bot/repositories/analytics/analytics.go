// Package analytics maintains the Analytics worksheet: one row per
// (date, user) holding that day's total fuel spend.
package analytics

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/models"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/repositories/sheets"
)

const (
	colDate  = "Date"
	colUID   = "UID"
	colTotal = "Total"
)

var Header = []string{colDate, colUID, colTotal}

type Repository interface {
	Upsert(ctx context.Context, c models.DailyCost) error
}

type SheetRepository struct {
	table *sheets.Table
}

func Open(ctx context.Context, store sheets.Store, sheet string) (*SheetRepository, error) {
	table, err := sheets.OpenTable(ctx, store, sheet, Header)
	if err != nil {
		return nil, err
	}
	return &SheetRepository{table: table}, nil
}

// Upsert overwrites the Total of the first row matching (Date, UID), or
// appends a new row when there is none.
func (r *SheetRepository) Upsert(ctx context.Context, c models.DailyCost) error {
	total := strconv.FormatFloat(c.Total, 'f', 2, 64)

	rows, err := r.table.Rows(ctx)
	if err != nil {
		return fmt.Errorf("read analytics: %w", err)
	}
	for _, row := range rows {
		if row.Get(colDate) == c.Date && row.Get(colUID) == c.UID {
			if err := r.table.Update(ctx, row.Number, colTotal, total); err != nil {
				return fmt.Errorf("update analytics row %d: %w", row.Number, err)
			}
			return nil
		}
	}

	if err := r.table.Append(ctx, map[string]string{colDate: c.Date, colUID: c.UID, colTotal: total}); err != nil {
		return fmt.Errorf("append analytics row: %w", err)
	}
	return nil
}
