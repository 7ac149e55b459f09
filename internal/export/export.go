// Package export writes the aligned daily table to CSV, JSON, XLSX, or SQLite.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/adcorr-cli/internal/align"
)

// Format names an output encoding.
type Format string

const (
	CSV    Format = "csv"
	TSV    Format = "tsv"
	JSON   Format = "json"
	XLSX   Format = "xlsx"
	SQLite Format = "sqlite"
)

// Formats lists supported formats.
var Formats = []Format{CSV, TSV, JSON, XLSX, SQLite}

// FormatFor picks a format from an explicit name or, when name is empty, the
// file extension of path.
func FormatFor(name, path string) (Format, error) {
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		switch name {
		case "db", "sqlite3":
			name = string(SQLite)
		case "txt", "":
			name = string(CSV)
		}
	}
	f := Format(strings.ToLower(name))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q", name)
}

// Grid flattens t into a header and string records. Keys absent on a day are
// left blank rather than written as 0.
func Grid(t *align.Table) ([]string, [][]string) {
	keys := t.Keys()
	header := append([]string{"Day", "Orders"}, keys...)
	records := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, row.Day, strconv.Itoa(row.Orders))
		for _, k := range keys {
			if v, ok := row.Values[k]; ok {
				rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				rec = append(rec, "")
			}
		}
		records = append(records, rec)
	}
	return header, records
}

// WriteCSV writes t as CSV. bom prefixes a UTF-8 byte order mark so Excel
// detects the encoding.
func WriteCSV(w io.Writer, t *align.Table, bom bool) error {
	return writeDelimited(w, t, bom, ',')
}

// WriteTSV is WriteCSV with tab-separated fields.
func WriteTSV(w io.Writer, t *align.Table, bom bool) error {
	return writeDelimited(w, t, bom, '\t')
}

func writeDelimited(w io.Writer, t *align.Table, bom bool, comma rune) error {
	if bom {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}
	header, records := Grid(t)
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}

// WriteJSON writes the aligned table as indented JSON.
func WriteJSON(w io.Writer, t *align.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// WriteXLSX writes t to a single-sheet workbook. Numbers are stored as numbers.
func WriteXLSX(w io.Writer, t *align.Table) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, "Aligned"); err != nil {
		return err
	}
	sheet = "Aligned"

	keys := t.Keys()
	header := append([]string{"Day", "Orders"}, keys...)
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for i, row := range t.Rows {
		r := i + 2
		set := func(col int, value any) error {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			return f.SetCellValue(sheet, cell, value)
		}
		if err := set(1, row.Day); err != nil {
			return err
		}
		if err := set(2, row.Orders); err != nil {
			return err
		}
		for j, k := range keys {
			v, ok := row.Values[k]
			if !ok {
				continue
			}
			if err := set(j+3, v); err != nil {
				return err
			}
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ToFile writes t to path in format f, creating parent directories.
func ToFile(ctx context.Context, path string, f Format, t *align.Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if f == SQLite {
		return WriteSQLite(ctx, path, t)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	switch f {
	case CSV:
		err = WriteCSV(out, t, true)
	case TSV:
		err = WriteTSV(out, t, true)
	case JSON:
		err = WriteJSON(out, t)
	case XLSX:
		err = WriteXLSX(out, t)
	default:
		err = fmt.Errorf("unsupported export format %q", f)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
