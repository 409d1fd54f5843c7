package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// LastColumn returns the width of the header row.
func (t *SQLTable) LastColumn(ctx context.Context) (int, error) {
	header, _, err := t.readCells(ctx, 1)
	if err != nil {
		return 0, err
	}
	return len(header), nil
}

// LastRow returns the highest populated row number.
func (t *SQLTable) LastRow(ctx context.Context) (int, error) {
	var last int
	err := t.db.QueryRowContext(ctx, t.q("SELECT COALESCE(MAX(row_num), 0) FROM sheet_rows WHERE sheet = ?"), t.sheet).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("last row: %w", err)
	}
	return last, nil
}

// ReadRow returns one row padded or cut to the current column count.
func (t *SQLTable) ReadRow(ctx context.Context, row int) ([]string, error) {
	if row < 1 {
		return nil, ErrRowOutOfRange
	}
	width, err := t.LastColumn(ctx)
	if err != nil {
		return nil, err
	}
	cells, _, err := t.readCells(ctx, row)
	if err != nil {
		return nil, err
	}
	return fitWidth(cells, width), nil
}

// ReadColumn returns one column for rows fromRow..LastRow.
func (t *SQLTable) ReadColumn(ctx context.Context, col, fromRow int) ([]string, error) {
	if col < 1 || fromRow < 1 {
		return nil, ErrRowOutOfRange
	}
	last, err := t.LastRow(ctx)
	if err != nil {
		return nil, err
	}
	if last < fromRow {
		return []string{}, nil
	}

	query := t.q("SELECT row_num, " + t.dialect.cellExpr + " FROM sheet_rows WHERE sheet = ? AND row_num >= ? ORDER BY row_num")
	rows, err := t.db.QueryContext(ctx, query, t.dialect.cellArg(col-1), t.sheet, fromRow)
	if err != nil {
		return nil, fmt.Errorf("read column %d: %w", col, err)
	}
	defer rows.Close()

	out := make([]string, last-fromRow+1)
	for rows.Next() {
		var (
			rowNum int
			value  sql.NullString
		)
		if err := rows.Scan(&rowNum, &value); err != nil {
			return nil, err
		}
		idx := rowNum - fromRow
		if idx < 0 || idx >= len(out) {
			continue
		}
		out[idx] = value.String
	}
	return out, rows.Err()
}

// FindInColumn locates the first row at or after fromRow whose cell equals value.
func (t *SQLTable) FindInColumn(ctx context.Context, col, fromRow int, value string) (int, bool, error) {
	if col < 1 || fromRow < 1 {
		return 0, false, ErrRowOutOfRange
	}
	query := t.q("SELECT row_num FROM sheet_rows WHERE sheet = ? AND row_num >= ? AND " + t.dialect.cellExpr + " = ? ORDER BY row_num LIMIT 1")
	var row int
	err := t.db.QueryRowContext(ctx, query, t.sheet, fromRow, t.dialect.cellArg(col-1), value).Scan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find in column %d: %w", col, err)
	}
	return row, true, nil
}

// AppendRow inserts values after the last row in a single transaction.
// Concurrent appends to the same sheet each get their own row.
func (t *SQLTable) AppendRow(ctx context.Context, values []string) error {
	encoded, err := encodeCells(values)
	if err != nil {
		return err
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if t.dialect.appendLock != "" {
		if _, err := tx.ExecContext(ctx, t.q(t.dialect.appendLock), t.sheet); err != nil {
			return fmt.Errorf("append row: lock sheet: %w", err)
		}
	}

	var last int
	if err := tx.QueryRowContext(ctx, t.q("SELECT COALESCE(MAX(row_num), 0) FROM sheet_rows WHERE sheet = ?"), t.sheet).Scan(&last); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		t.q("INSERT INTO sheet_rows (sheet, row_num, cells, updated_at) VALUES (?, ?, ?, ?)"),
		t.sheet, last+1, encoded, nowText(),
	); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return tx.Commit()
}

// WriteRow replaces the cells of row with values.
func (t *SQLTable) WriteRow(ctx context.Context, row int, values []string) error {
	if row < 1 {
		return ErrRowOutOfRange
	}
	encoded, err := encodeCells(values)
	if err != nil {
		return err
	}

	res, err := t.db.ExecContext(ctx,
		t.q("UPDATE sheet_rows SET cells = ?, updated_at = ? WHERE sheet = ? AND row_num = ?"),
		encoded, nowText(), t.sheet, row,
	)
	if err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	if _, err := t.db.ExecContext(ctx,
		t.q("INSERT INTO sheet_rows (sheet, row_num, cells, updated_at) VALUES (?, ?, ?, ?)"),
		t.sheet, row, encoded, nowText(),
	); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

// EnsureHeader seeds row 1 with headers when the sheet has no header row.
func (t *SQLTable) EnsureHeader(ctx context.Context, headers []string) error {
	_, exists, err := t.readCells(ctx, 1)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return t.WriteRow(ctx, 1, headers)
}

func (t *SQLTable) readCells(ctx context.Context, row int) ([]string, bool, error) {
	var raw string
	err := t.db.QueryRowContext(ctx, t.q("SELECT cells FROM sheet_rows WHERE sheet = ? AND row_num = ?"), t.sheet, row).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read row %d: %w", row, err)
	}
	cells, err := decodeCells(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decode row %d: %w", row, err)
	}
	return cells, true, nil
}

func (t *SQLTable) q(query string) string {
	return t.dialect.rebind(query)
}

func encodeCells(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeCells(raw string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, err
	}
	return cells, nil
}

func fitWidth(cells []string, width int) []string {
	out := make([]string, width)
	copy(out, cells)
	return out
}

func nowText() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
