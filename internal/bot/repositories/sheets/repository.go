// Package sheets is the boundary to the persistent row store: a set of
// named worksheets, each a header row followed by append-only data rows.
//
// Rows and columns are 1-based and row 1 is the header, matching the
// spreadsheet layout the bot was first deployed on. Callers address
// columns by header name through Table, never by index literal.
package sheets

import (
	"context"
	"slices"
)

// Store is the row store contract shared by the memory, PostgreSQL and
// SQLite backends. Backends wrap every failure so that
// errors.Is(err, common.ErrStoreUnavailable) holds.
type Store interface {
	// EnsureWorksheet creates the worksheet if it does not exist and returns
	// its effective header. Required columns missing from an existing header
	// are appended to it; existing columns are never removed or reordered.
	EnsureWorksheet(ctx context.Context, name string, header []string) ([]string, error)
	AppendRow(ctx context.Context, sheet string, values []string) error
	// GetAllRows returns every row including the header at index 0.
	GetAllRows(ctx context.Context, sheet string) ([][]string, error)
	UpdateCell(ctx context.Context, sheet string, row, col int, value string) error
}

// mergeHeader returns existing extended with the required columns it lacks,
// and whether anything was added.
func mergeHeader(existing, required []string) ([]string, bool) {
	merged := slices.Clone(existing)
	changed := false
	for _, col := range required {
		if !slices.Contains(merged, col) {
			merged = append(merged, col)
			changed = true
		}
	}
	return merged, changed
}

// setCell returns row with position col (1-based) set to value, padding
// with empty cells as needed.
func setCell(row []string, col int, value string) []string {
	for len(row) < col {
		row = append(row, "")
	}
	row[col-1] = value
	return row
}
