package core

// export.go writes result sets back out as files for download. It is a thin
// I/O layer; nothing here affects extraction.

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultOutputSuffix is appended to the base name of a normalized export.
const DefaultOutputSuffix = "_normalized"

// NormalizedSheetName is the sheet name of workbook exports.
const NormalizedSheetName = "Employees"

// OutputFilename derives the download name for a result: the original base
// name without its extension, the suffix, and ext.
// OutputFilename("payroll jan.xlsx", "_normalized", ".csv") == "payroll jan_normalized.csv".
func OutputFilename(name, suffix, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "employees"
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return base + suffix + ext
}

// normalizedTable lays rows out under the output columns of fields.
func normalizedTable(fields *FieldSet, rows []NormalizedRow) ([]string, [][]string) {
	cols := fields.OutputColumns()
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = string(c)
	}
	body := make([][]string, len(rows))
	for i, r := range rows {
		rec := make([]string, len(cols))
		for j, c := range cols {
			rec[j] = r.Get(c)
		}
		body[i] = rec
	}
	return header, body
}

// WriteCSV writes rows as CSV with one column per output field.
func WriteCSV(w io.Writer, fields *FieldSet, rows []NormalizedRow) error {
	header, body := normalizedTable(fields, rows)
	return writeCSV(w, header, body)
}

// WriteFailedCSV writes failed rows with their line, stage, reason and the
// original non-blank cells as "label: value" pairs.
func WriteFailedCSV(w io.Writer, failed []FailedRow) error {
	header := []string{"Line", "Stage", "Reason", "Data"}
	body := make([][]string, len(failed))
	for i, f := range failed {
		var parts []string
		for _, c := range f.Row.Cells {
			if isBlank(c.Value) {
				continue
			}
			if IsPlaceholder(c.Label) {
				parts = append(parts, c.Value)
			} else {
				parts = append(parts, c.Label+": "+c.Value)
			}
		}
		body[i] = []string{fmt.Sprint(f.Line), string(f.Stage), f.Reason, strings.Join(parts, "; ")}
	}
	return writeCSV(w, header, body)
}

func writeCSV(w io.Writer, header []string, body [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(body); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// WriteWorkbook writes rows to a single-sheet workbook.
func WriteWorkbook(w io.Writer, fields *FieldSet, rows []NormalizedRow) error {
	header, body := normalizedTable(fields, rows)

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, NormalizedSheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	sheet = NormalizedSheetName

	for r, rec := range append([][]string{header}, body...) {
		for c, v := range rec {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
