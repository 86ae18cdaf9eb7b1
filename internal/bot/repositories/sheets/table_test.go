package sheets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AppendAndRowsByName(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// An older layout with a different column order.
	_, err := store.EnsureWorksheet(ctx, "Directory", []string{"Name", "UID"})
	require.NoError(t, err)
	require.NoError(t, store.AppendRow(ctx, "Directory", []string{"Ivan", "1"}))

	tbl, err := OpenTable(ctx, store, "Directory", []string{"UID", "Name", "Vehicle"})
	require.NoError(t, err)

	require.NoError(t, tbl.Append(ctx, map[string]string{"UID": "2", "Name": "Olga", "Vehicle": "A123BC"}))

	rows, err := tbl.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, "1", rows[0].Get("UID"))
	assert.Equal(t, "Ivan", rows[0].Get("Name"))
	assert.Equal(t, "", rows[0].Get("Vehicle"), "short rows read missing cells as empty")

	assert.Equal(t, 3, rows[1].Number)
	assert.Equal(t, "2", rows[1].Get("UID"))
	assert.Equal(t, "A123BC", rows[1].Get("Vehicle"))
	assert.Equal(t, "", rows[1].Get("Nope"))
}

func TestTable_Update(t *testing.T) {
	ctx := context.Background()
	tbl, err := OpenTable(ctx, NewMemoryStore(), "Directory", []string{"UID", "Status"})
	require.NoError(t, err)
	require.NoError(t, tbl.Append(ctx, map[string]string{"UID": "1", "Status": "Pending"}))

	require.NoError(t, tbl.Update(ctx, 2, "Status", "Approved"))

	rows, err := tbl.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Approved", rows[0].Get("Status"))

	assert.Error(t, tbl.Update(ctx, 2, "Color", "red"))
}

func TestTable_AppendUnknownColumn(t *testing.T) {
	ctx := context.Background()
	tbl, err := OpenTable(ctx, NewMemoryStore(), "Ledger", []string{"UID"})
	require.NoError(t, err)
	assert.Error(t, tbl.Append(ctx, map[string]string{"Color": "red"}))
	assert.Equal(t, "Ledger", tbl.Name())
}

func TestMergeHeader(t *testing.T) {
	merged, changed := mergeHeader([]string{"A", "B"}, []string{"B", "C"})
	assert.True(t, changed)
	assert.Equal(t, []string{"A", "B", "C"}, merged)

	merged, changed = mergeHeader([]string{"A", "B"}, []string{"B"})
	assert.False(t, changed)
	assert.Equal(t, []string{"A", "B"}, merged)
}
