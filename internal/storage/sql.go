package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// SQLTable stores a sheet in a SQL table, one record per row with the cells
// encoded as a JSON array. The header lives at row_index 0. The statements
// are plain enough to run on both SQLite and MySQL.
type SQLTable struct {
	db   *sql.DB
	name string
}

// NewSQLTable creates the table if needed and seeds its header row
func NewSQLTable(ctx context.Context, db *sql.DB, sheetName string, header []string) (*SQLTable, error) {
	t := &SQLTable{db: db, name: tableName(sheetName)}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (row_index INTEGER NOT NULL PRIMARY KEY, cells TEXT NOT NULL)", t.name,
	)); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", t.name, err)
	}

	var n int
	if err := db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE row_index = 0", t.name,
	)).Scan(&n); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if n == 0 {
		data, err := json.Marshal(header)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal header: %w", err)
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf(
			"INSERT INTO %s (row_index, cells) VALUES (0, ?)", t.name,
		), string(data)); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	return t, nil
}

// Rows returns all data rows ordered by index
func (t *SQLTable) Rows(ctx context.Context) ([]Row, error) {
	rs, err := t.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT row_index, cells FROM %s WHERE row_index > 0 ORDER BY row_index", t.name,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rs.Close()

	var rows []Row
	for rs.Next() {
		var (
			r   Row
			raw string
		)
		if err := rs.Scan(&r.Index, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &r.Cells); err != nil {
			return nil, fmt.Errorf("failed to decode row %d: %w", r.Index, err)
		}
		rows = append(rows, r)
	}
	return rows, rs.Err()
}

// SetCells rewrites the row at index inside a transaction
func (t *SQLTable) SetCells(ctx context.Context, index int, cells map[int]string) error {
	if index < 1 {
		return fmt.Errorf("row %d: %w", index, ErrRowNotFound)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var raw string
	err = tx.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT cells FROM %s WHERE row_index = ?", t.name,
	), index).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("row %d: %w", index, ErrRowNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read row %d: %w", index, err)
	}

	var row []string
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return fmt.Errorf("failed to decode row %d: %w", index, err)
	}
	data, err := json.Marshal(setCells(row, cells))
	if err != nil {
		return fmt.Errorf("failed to encode row %d: %w", index, err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		"UPDATE %s SET cells = ? WHERE row_index = ?", t.name,
	), string(data), index); err != nil {
		return fmt.Errorf("failed to update row %d: %w", index, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	committed = true
	return nil
}

// AppendRow inserts a row after the current last one
func (t *SQLTable) AppendRow(ctx context.Context, cells []string) error {
	data, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var last int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT COALESCE(MAX(row_index), 0) FROM %s", t.name,
	)).Scan(&last); err != nil {
		return fmt.Errorf("failed to find last row: %w", err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (row_index, cells) VALUES (?, ?)", t.name,
	), last+1, string(data)); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	committed = true
	return nil
}

// Close closes the underlying database
func (t *SQLTable) Close() error {
	return t.db.Close()
}

// tableName turns a sheet name into a safe SQL identifier: "Sheet1" -> "sheet1"
func tableName(sheet string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(sheet)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "sheet"
	}
	name := b.String()
	if name[0] >= '0' && name[0] <= '9' {
		name = "sheet_" + name
	}
	return name
}
