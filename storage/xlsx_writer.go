package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXWriter writes one table to a single-sheet workbook, saved on Close.
type XLSXWriter struct {
	path  string
	sheet string
	file  *excelize.File
}

// NewXLSXWriter prepares a workbook at path whose only sheet is named sheet.
func NewXLSXWriter(path, sheet string) (*XLSXWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("xlsx: create output dir: %w", err)
	}
	f := excelize.NewFile()
	if sheet != "" && sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
		}
	} else {
		sheet = defaultSheet
	}
	return &XLSXWriter{path: path, sheet: sheet, file: f}, nil
}

// WriteTable writes the header to row 1 with a bold style and rows below it.
func (x *XLSXWriter) WriteTable(header []string, rows [][]string) error {
	style, err := x.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}

	if err := x.writeRow(1, header); err != nil {
		return err
	}
	if len(header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		if err := x.file.SetCellStyle(x.sheet, "A1", last, style); err != nil {
			return fmt.Errorf("xlsx: header style: %w", err)
		}
	}
	for i, row := range rows {
		if err := x.writeRow(i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (x *XLSXWriter) writeRow(n int, row []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return fmt.Errorf("xlsx: cell name: %w", err)
	}
	vals := make([]any, len(row))
	for i, v := range row {
		vals[i] = v
	}
	if err := x.file.SetSheetRow(x.sheet, cell, &vals); err != nil {
		return fmt.Errorf("xlsx: write row %d: %w", n, err)
	}
	return nil
}

// Close saves the workbook.
func (x *XLSXWriter) Close() error {
	defer func() { _ = x.file.Close() }()
	if err := x.file.SaveAs(x.path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", x.path, err)
	}
	return nil
}
