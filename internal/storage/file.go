package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type sheetFile struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// FileTable keeps the sheet in a JSON file and rewrites it on every change
type FileTable struct {
	mu    sync.RWMutex
	sheet sheetFile
	file  string
}

// NewFileTable creates a new file table, loading the file when it exists
func NewFileTable(filePath string, header []string) (*FileTable, error) {
	t := &FileTable{
		sheet: sheetFile{Header: header, Rows: make([][]string, 0)},
		file:  filePath,
	}

	// Load existing data if file exists
	if _, err := os.Stat(filePath); err == nil {
		if err := t.Load(); err != nil {
			return nil, fmt.Errorf("failed to load storage: %w", err)
		}
	}

	return t, nil
}

// Rows returns a copy of all data rows
func (t *FileTable) Rows(_ context.Context) ([]Row, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows := make([]Row, len(t.sheet.Rows))
	for i, cells := range t.sheet.Rows {
		cp := make([]string, len(cells))
		copy(cp, cells)
		rows[i] = Row{Index: i + 1, Cells: cp}
	}
	return rows, nil
}

// SetCells updates cells of the row at index
func (t *FileTable) SetCells(_ context.Context, index int, cells map[int]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 1 || index > len(t.sheet.Rows) {
		return fmt.Errorf("row %d: %w", index, ErrRowNotFound)
	}
	prev := t.sheet.Rows[index-1]
	row := make([]string, len(prev))
	copy(row, prev)

	rows := make([][]string, len(t.sheet.Rows))
	copy(rows, t.sheet.Rows)
	rows[index-1] = setCells(row, cells)
	return t.commit(rows)
}

// AppendRow adds a new row at the end of the sheet
func (t *FileTable) AppendRow(_ context.Context, cells []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	row := make([]string, len(cells))
	copy(row, cells)

	rows := make([][]string, len(t.sheet.Rows), len(t.sheet.Rows)+1)
	copy(rows, t.sheet.Rows)
	return t.commit(append(rows, row))
}

// Close is a no-op, every change is already on disk
func (t *FileTable) Close() error { return nil }

// commit writes rows to disk and only then makes them visible
func (t *FileTable) commit(rows [][]string) error {
	next := sheetFile{Header: t.sheet.Header, Rows: rows}
	if err := t.save(next); err != nil {
		return err
	}
	t.sheet = next
	return nil
}

// save writes sheet to file
func (t *FileTable) save(sheet sheetFile) error {
	data, err := json.MarshalIndent(sheet, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(t.file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(t.file, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Load loads the sheet from file
func (t *FileTable) Load() error {
	data, err := os.ReadFile(t.file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var sheet sheetFile
	if err := json.Unmarshal(data, &sheet); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	if len(sheet.Header) > 0 {
		t.sheet.Header = sheet.Header
	}
	if sheet.Rows != nil {
		t.sheet.Rows = sheet.Rows
	}

	return nil
}
