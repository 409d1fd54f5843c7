package store

import (
	"context"
	"errors"
)

// ErrRowOutOfRange is returned for row or column positions below 1.
var ErrRowOutOfRange = errors.New("row out of range")

// Table is a row-oriented sheet whose first row holds the column headers.
// Rows and columns are 1-based. Reads past the last row yield blank cells.
type Table interface {
	// LastColumn returns the current column count (the header width).
	LastColumn(ctx context.Context) (int, error)
	// LastRow returns the index of the last populated row, 0 when empty.
	LastRow(ctx context.Context) (int, error)
	// ReadRow returns one row sized to LastColumn.
	ReadRow(ctx context.Context, row int) ([]string, error)
	// ReadColumn returns column col for rows fromRow..LastRow; index i maps to row fromRow+i.
	ReadColumn(ctx context.Context, col, fromRow int) ([]string, error)
	// AppendRow writes values as a new row after the last one.
	AppendRow(ctx context.Context, values []string) error
	// WriteRow replaces every cell of an existing row in one write.
	WriteRow(ctx context.Context, row int, values []string) error
	// EnsureHeader writes headers as row 1 when the sheet is empty.
	EnsureHeader(ctx context.Context, headers []string) error
	Close() error
}

// ColumnSearcher is implemented by tables that can locate a cell value
// without returning the whole column to the caller.
type ColumnSearcher interface {
	// FindInColumn returns the first row >= fromRow whose cell in col equals value.
	FindInColumn(ctx context.Context, col, fromRow int, value string) (int, bool, error)
}

var (
	_ Table          = (*SQLTable)(nil)
	_ ColumnSearcher = (*SQLTable)(nil)
	_ Table          = (*MemoryTable)(nil)
)
