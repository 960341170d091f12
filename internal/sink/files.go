package sink

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/user/listing-scraper/internal/domain"
)

// WriteFile writes records to path in the format given by its extension.
// table is used only by the SQLite format.
func WriteFile(path, table string, records []domain.Record) (domain.Format, error) {
	format, err := domain.DetectFormat(path)
	if err != nil {
		return "", err
	}

	switch format {
	case domain.FormatCSV:
		err = writeAtomic(path, func(w io.Writer) error { return WriteCSV(w, records) })
	case domain.FormatJSON:
		err = writeAtomic(path, func(w io.Writer) error { return WriteJSON(w, records) })
	case domain.FormatXLSX:
		err = writeAtomic(path, func(w io.Writer) error { return WriteXLSX(w, records) })
	case domain.FormatSQLite:
		err = WriteSQLite(path, table, records)
	}
	if err != nil {
		return format, fmt.Errorf("write %s: %w", path, err)
	}
	return format, nil
}

// writeAtomic writes to a temporary file next to path and renames it into
// place, so a failed write never leaves a truncated output behind.
func writeAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// WriteCSV writes a header row taken from the first record, then one row per record.
func WriteCSV(w io.Writer, records []domain.Record) error {
	columns, err := domain.Columns(records)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes records as one array with a 4-space indent. Non-ASCII and
// HTML characters are written literally.
func WriteJSON(w io.Writer, records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(records)
}

// WriteXLSX writes records to the default sheet of a new workbook, header first.
func WriteXLSX(w io.Writer, records []domain.Record) error {
	columns, err := domain.Columns(records)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	if err := setRow(f, sheet, 1, columns); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(f, sheet, i+2, r.Values()); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
