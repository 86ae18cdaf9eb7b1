package sheets

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/shiftkeeper/internal/common"
)

// MemoryStore keeps worksheets in process memory. It backs local runs and
// tests; SetFailure makes every call fail to exercise error paths.
type MemoryStore struct {
	mu     sync.Mutex
	sheets map[string][][]string
	fail   error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sheets: make(map[string][][]string)}
}

// SetFailure makes every subsequent call return err wrapped as
// ErrStoreUnavailable. A nil err restores normal operation.
func (m *MemoryStore) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *MemoryStore) failure() error {
	if m.fail == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, m.fail)
}

func (m *MemoryStore) EnsureWorksheet(ctx context.Context, name string, header []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return nil, err
	}

	rows, ok := m.sheets[name]
	if !ok {
		m.sheets[name] = [][]string{slices.Clone(header)}
		return slices.Clone(header), nil
	}

	merged, changed := mergeHeader(rows[0], header)
	if changed {
		rows[0] = merged
	}
	return slices.Clone(merged), nil
}

func (m *MemoryStore) AppendRow(ctx context.Context, sheet string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return err
	}

	rows, ok := m.sheets[sheet]
	if !ok {
		return fmt.Errorf("worksheet %s: %w", sheet, common.ErrorNotFound)
	}
	m.sheets[sheet] = append(rows, slices.Clone(values))
	return nil
}

func (m *MemoryStore) GetAllRows(ctx context.Context, sheet string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return nil, err
	}

	rows, ok := m.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("worksheet %s: %w", sheet, common.ErrorNotFound)
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out, nil
}

func (m *MemoryStore) UpdateCell(ctx context.Context, sheet string, row, col int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(); err != nil {
		return err
	}

	rows, ok := m.sheets[sheet]
	if !ok {
		return fmt.Errorf("worksheet %s: %w", sheet, common.ErrorNotFound)
	}
	if row < 1 || row > len(rows) || col < 1 {
		return fmt.Errorf("cell %d:%d of %s: %w", row, col, sheet, common.ErrorNotFound)
	}
	rows[row-1] = setCell(rows[row-1], col, value)
	return nil
}
