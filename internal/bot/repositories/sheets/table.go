package sheets

import (
	"context"
	"fmt"
)

// Table is a worksheet handle that resolves columns by header name.
type Table struct {
	store  Store
	name   string
	header []string
	cols   map[string]int
}

// OpenTable ensures the worksheet exists with at least header and returns
// a handle bound to its effective header.
func OpenTable(ctx context.Context, store Store, name string, header []string) (*Table, error) {
	effective, err := store.EnsureWorksheet(ctx, name, header)
	if err != nil {
		return nil, fmt.Errorf("ensure worksheet %s: %w", name, err)
	}
	return &Table{store: store, name: name, header: effective, cols: indexHeader(effective)}, nil
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func (t *Table) Name() string { return t.name }

// Row is one data row. Number is its 1-based sheet row (the first data
// row is 2).
type Row struct {
	Number int
	values []string
	cols   map[string]int
}

// Get returns the cell under column col, or "" when the column or cell is
// missing.
func (r Row) Get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// Append writes record as one row. Keys must be header columns.
func (t *Table) Append(ctx context.Context, record map[string]string) error {
	values := make([]string, len(t.header))
	for col, v := range record {
		i, ok := t.cols[col]
		if !ok {
			return fmt.Errorf("worksheet %s has no column %q", t.name, col)
		}
		values[i] = v
	}
	return t.store.AppendRow(ctx, t.name, values)
}

// Rows reads every data row in append order. Columns are resolved against
// the header as currently stored.
func (t *Table) Rows(ctx context.Context) ([]Row, error) {
	all, err := t.store.GetAllRows(ctx, t.name)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}

	cols := indexHeader(all[0])
	rows := make([]Row, 0, len(all)-1)
	for i, values := range all[1:] {
		rows = append(rows, Row{Number: i + 2, values: values, cols: cols})
	}
	return rows, nil
}

// Update sets the cell at (row, col) where row is a Row.Number.
func (t *Table) Update(ctx context.Context, row int, col string, value string) error {
	i, ok := t.cols[col]
	if !ok {
		return fmt.Errorf("worksheet %s has no column %q", t.name, col)
	}
	return t.store.UpdateCell(ctx, t.name, row, i+1, value)
}
