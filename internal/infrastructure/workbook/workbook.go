// Package workbook reads and writes the reconciliation workbook: the
// Invoices table, the statement's transaction table, the vendor lookup list
// and the Unmatched Invoices sheet.
package workbook

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrSheetNotFound = errors.New("worksheet not found")

// Workbook is an open spreadsheet file.
type Workbook struct {
	file   *excelize.File
	path   string
	layout Layout
	logger *slog.Logger
}

// Open opens the workbook at path.
func Open(path string, layout Layout, logger *slog.Logger) (*Workbook, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if layout.HeaderRow < 1 {
		layout.HeaderRow = DefaultLayout().HeaderRow
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}

	logger.Debug("opened workbook", slog.String("path", path), slog.Any("sheets", f.GetSheetList()))
	return &Workbook{file: f, path: path, layout: layout, logger: logger}, nil
}

// Path returns the file the workbook was opened from.
func (w *Workbook) Path() string {
	return w.path
}

// Layout returns the sheet layout in use.
func (w *Workbook) Layout() Layout {
	return w.layout
}

// Save writes the workbook back to its original path.
func (w *Workbook) Save() error {
	if err := w.file.Save(); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	w.logger.Info("saved workbook", slog.String("path", w.path))
	return nil
}

// SaveAs writes the workbook to a new path.
func (w *Workbook) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook as %s: %w", path, err)
	}
	w.logger.Info("saved workbook", slog.String("path", path))
	return nil
}

// Close releases the file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

func (w *Workbook) requireSheet(sheet string) error {
	idx, err := w.file.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrSheetNotFound, sheet, err)
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	return nil
}

// table is a sheet region: the header row and the contiguous data rows
// below it, up to the first blank row.
type table struct {
	headers []string
	rows    [][]string
}

func (w *Workbook) readTable(sheet string) (*table, error) {
	if err := w.requireSheet(sheet); err != nil {
		return nil, err
	}

	all, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", sheet, err)
	}

	t := &table{}
	headerIdx := w.layout.HeaderRow - 1
	if headerIdx >= len(all) {
		return t, nil
	}
	for _, h := range all[headerIdx] {
		t.headers = append(t.headers, strings.TrimSpace(h))
	}
	for _, row := range all[headerIdx+1:] {
		if blankRow(row) {
			break
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// ensureHeaders returns the 1-based sheet column of each name, appending a
// header cell after the last one for any that is missing.
func (w *Workbook) ensureHeaders(sheet string, headers []string, names []string) (map[string]int, []string, error) {
	cols := make(map[string]int, len(names))
	for _, name := range names {
		idx := headerIndex(headers, name)
		if idx < 0 {
			headers = append(headers, name)
			idx = len(headers) - 1
			if err := w.file.SetCellStr(sheet, cellName(idx+1, w.layout.HeaderRow), name); err != nil {
				return nil, nil, fmt.Errorf("failed to add %q header: %w", name, err)
			}
			w.logger.Debug("added column", slog.String("sheet", sheet), slog.String("header", name))
		}
		cols[name] = idx + 1
	}
	return cols, headers, nil
}

func (w *Workbook) clearRows(sheet string, width, first, count int) error {
	for r := first; r < first+count; r++ {
		for c := 1; c <= width; c++ {
			if err := w.file.SetCellValue(sheet, cellName(c, r), nil); err != nil {
				return err
			}
		}
	}
	return nil
}
