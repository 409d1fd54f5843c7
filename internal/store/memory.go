package store

import (
	"context"
	"sync"
)

// MemoryTable is an in-process sheet, used by tests and the memory driver.
type MemoryTable struct {
	mu   sync.RWMutex
	rows [][]string
}

// NewMemoryTable returns a sheet whose first row is headers (empty when nil).
func NewMemoryTable(headers ...string) *MemoryTable {
	t := &MemoryTable{}
	if len(headers) > 0 {
		t.rows = append(t.rows, cloneCells(headers))
	}
	return t
}

func (t *MemoryTable) LastColumn(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.rows) == 0 {
		return 0, nil
	}
	return len(t.rows[0]), nil
}

func (t *MemoryTable) LastRow(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows), nil
}

func (t *MemoryTable) ReadRow(ctx context.Context, row int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if row < 1 {
		return nil, ErrRowOutOfRange
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	width := 0
	if len(t.rows) > 0 {
		width = len(t.rows[0])
	}
	if row > len(t.rows) {
		return make([]string, width), nil
	}
	return fitWidth(t.rows[row-1], width), nil
}

func (t *MemoryTable) ReadColumn(ctx context.Context, col, fromRow int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if col < 1 || fromRow < 1 {
		return nil, ErrRowOutOfRange
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := []string{}
	for i := fromRow - 1; i < len(t.rows); i++ {
		value := ""
		if col <= len(t.rows[i]) {
			value = t.rows[i][col-1]
		}
		out = append(out, value)
	}
	return out, nil
}

func (t *MemoryTable) AppendRow(ctx context.Context, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, cloneCells(values))
	return nil
}

func (t *MemoryTable) WriteRow(ctx context.Context, row int, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if row < 1 {
		return ErrRowOutOfRange
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.rows) < row {
		t.rows = append(t.rows, []string{})
	}
	t.rows[row-1] = cloneCells(values)
	return nil
}

func (t *MemoryTable) EnsureHeader(ctx context.Context, headers []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.rows) > 0 {
		return nil
	}
	t.rows = append(t.rows, cloneCells(headers))
	return nil
}

// Rows returns a copy of every row, header included.
func (t *MemoryTable) Rows() [][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([][]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = cloneCells(row)
	}
	return out
}

func (t *MemoryTable) Close() error {
	return nil
}

func cloneCells(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
