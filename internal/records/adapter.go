package records

import (
	"context"
	"errors"
	"fmt"

	"intake/internal/models"
	"intake/internal/store"
)

// ErrInvalidToken is returned when a token does not address any record.
var ErrInvalidToken = errors.New("invalid token")

const firstDataRow = 2

// ColumnMap maps header names to 1-based column indices. It reflects the
// header row at the moment it was read and must not be reused across requests.
type ColumnMap struct {
	index map[string]int
	width int
}

// Index returns the column of a header name.
func (cm ColumnMap) Index(name string) (int, bool) {
	col, ok := cm.index[name]
	return col, ok
}

// Width is the number of columns in the header row.
func (cm ColumnMap) Width() int {
	return cm.width
}

// Get returns the cell of row under header name, or "" when the column is
// missing or the row is short.
func (cm ColumnMap) Get(row []string, name string) string {
	col, ok := cm.index[name]
	if !ok || col > len(row) {
		return ""
	}
	return row[col-1]
}

// Set writes value into row under header name. Unknown names are skipped.
func (cm ColumnMap) Set(row []string, name, value string) {
	col, ok := cm.index[name]
	if !ok || col > len(row) {
		return
	}
	row[col-1] = value
}

// NewRow returns a blank row spanning every column.
func (cm ColumnMap) NewRow() []string {
	return make([]string, cm.width)
}

// Adapter maps records onto a store.Table by header name.
type Adapter struct {
	table store.Table
}

// NewAdapter wraps a table.
func NewAdapter(table store.Table) *Adapter {
	return &Adapter{table: table}
}

// ColumnMap reads the header row. Duplicate header names resolve to the
// rightmost column; blank header cells are ignored.
func (a *Adapter) ColumnMap(ctx context.Context) (ColumnMap, error) {
	width, err := a.table.LastColumn(ctx)
	if err != nil {
		return ColumnMap{}, fmt.Errorf("read header width: %w", err)
	}
	cm := ColumnMap{index: make(map[string]int, width), width: width}
	if width == 0 {
		return cm, nil
	}
	header, err := a.table.ReadRow(ctx, 1)
	if err != nil {
		return ColumnMap{}, fmt.Errorf("read header: %w", err)
	}
	for i, name := range header {
		if name == "" {
			continue
		}
		cm.index[name] = i + 1
	}
	return cm, nil
}

// FindByToken returns the absolute row holding token. The first match wins.
func (a *Adapter) FindByToken(ctx context.Context, cm ColumnMap, token string) (int, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	col, ok := cm.Index(models.FieldToken)
	if !ok {
		return 0, ErrInvalidToken
	}

	if searcher, ok := a.table.(store.ColumnSearcher); ok {
		row, found, err := searcher.FindInColumn(ctx, col, firstDataRow, token)
		if err != nil {
			return 0, fmt.Errorf("find token: %w", err)
		}
		if !found {
			return 0, ErrInvalidToken
		}
		return row, nil
	}

	values, err := a.table.ReadColumn(ctx, col, firstDataRow)
	if err != nil {
		return 0, fmt.Errorf("read token column: %w", err)
	}
	for i, value := range values {
		if value == token {
			return firstDataRow + i, nil
		}
	}
	return 0, ErrInvalidToken
}

// ReadRow returns one full-width row.
func (a *Adapter) ReadRow(ctx context.Context, row int) ([]string, error) {
	values, err := a.table.ReadRow(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("read row %d: %w", row, err)
	}
	return values, nil
}

// AppendRow adds values after the last row.
func (a *Adapter) AppendRow(ctx context.Context, values []string) error {
	if err := a.table.AppendRow(ctx, values); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// WriteRow replaces the row at index in a single write.
func (a *Adapter) WriteRow(ctx context.Context, row int, values []string) error {
	if err := a.table.WriteRow(ctx, row, values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

// recordFromRow decodes a row by header name.
func recordFromRow(cm ColumnMap, row []string) models.Record {
	return models.Record{
		Timestamp: cm.Get(row, models.FieldTimestamp),
		Token:     cm.Get(row, models.FieldToken),
		Name:      cm.Get(row, models.FieldPatientName),
		Age:       cm.Get(row, models.FieldAge),
		Gender:    cm.Get(row, models.FieldGender),
		Notes:     cm.Get(row, models.FieldNotes),
		Photos:    models.SplitLinks(cm.Get(row, models.FieldPhotoLinks)),
		Videos:    models.SplitLinks(cm.Get(row, models.FieldVideoLinks)),
		Documents: models.SplitLinks(cm.Get(row, models.FieldDocumentLinks)),
	}
}

// fillRow writes every record field into row, leaving unknown columns untouched.
func fillRow(cm ColumnMap, row []string, rec models.Record) {
	cm.Set(row, models.FieldTimestamp, rec.Timestamp)
	cm.Set(row, models.FieldToken, rec.Token)
	cm.Set(row, models.FieldPatientName, rec.Name)
	cm.Set(row, models.FieldAge, rec.Age)
	cm.Set(row, models.FieldGender, rec.Gender)
	cm.Set(row, models.FieldNotes, rec.Notes)
	for _, category := range models.Categories {
		cm.Set(row, models.LinkField(category), models.JoinLinks(rec.Links(category)))
	}
}
