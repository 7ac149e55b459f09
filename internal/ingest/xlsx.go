package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

type xlsxFormat struct{}

func (xlsxFormat) Name() string { return "xlsx" }

func (xlsxFormat) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// Read returns raw cell values so numbers keep full precision. Cells carrying
// a date number format are rewritten as YYYY-MM-DD.
func (xlsxFormat) Read(r io.Reader, opt Options) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	dates := make(map[int]bool)
	for ri, rec := range rows {
		for ci, v := range rec {
			if day, ok := dateCell(f, sheet, ci+1, ri+1, v, dates); ok {
				rec[ci] = day
			}
		}
	}
	return rows, nil
}

// dateCell converts v to a day when the cell is a number styled as a date.
// isDate caches the verdict per style index.
func dateCell(f *excelize.File, sheet string, col, row int, v string, isDate map[int]bool) (string, bool) {
	if v == "" {
		return "", false
	}
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}
	idx, err := f.GetCellStyle(sheet, cell)
	if err != nil || idx == 0 {
		return "", false
	}
	date, seen := isDate[idx]
	if !seen {
		st, err := f.GetStyle(idx)
		date = err == nil && dateFormat(st)
		isDate[idx] = date
	}
	if !date {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	return t.UTC().Format(models.DayLayout), true
}

// dateFormat reports whether a number format displays a calendar date.
func dateFormat(st *excelize.Style) bool {
	if st == nil {
		return false
	}
	if st.CustomNumFmt != nil {
		code := strings.ToLower(*st.CustomNumFmt)
		return strings.ContainsAny(code, "yd")
	}
	switch id := st.NumFmt; {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}
