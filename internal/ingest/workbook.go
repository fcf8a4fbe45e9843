package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"github.com/AngelCh415/jobkpi/internal/models"
)

// ReadWorkbook decodes the first sheet of an .xlsx or .xls payload into
// header-keyed rows.
//
// The first non-empty row is the header. Blank header cells are not columns.
// When two header cells carry the same text the later column wins for every
// row; reports in the wild rely on this, so it is kept. A sheet holding only
// a header yields no rows and no error.
func ReadWorkbook(r io.Reader) ([]models.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &FileReadError{Err: err}
	}
	grid, err := decodeGrid(data)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return rowsFromGrid(grid), nil
}

func decodeGrid(data []byte) ([][]string, error) {
	if len(data) == 0 {
		return nil, errors.New("empty payload")
	}
	reader := bytes.NewReader(data)

	// xlsx
	f, err := excelize.OpenReader(reader)
	if err == nil {
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		return f.GetRows(sheets[0])
	}

	grid, xerr := decodeXLS(data)
	if xerr != nil {
		return nil, fmt.Errorf("unsupported workbook format: %w", errors.Join(err, xerr))
	}
	return grid, nil
}

func decodeXLS(data []byte) (grid [][]string, err error) {
	// malformed legacy files must surface as parse errors, not crash the caller
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("xls: %v", r)
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(workbook.GetSheets()) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("read first sheet: %w", err)
	}
	for _, row := range sheet.GetRows() {
		var cells []string
		for _, cell := range row.GetCols() {
			raw := cell.GetString()
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				cells = append(cells, raw)
				continue
			}
			cells = append(cells, formattedCell(raw, func() string {
				xf := workbook.GetXFbyIndex(cell.GetXFIndex())
				idx := xf.GetFormatIndex()
				if text, ok := builtinNumberText(v, int(idx)); ok {
					return text
				}
				if idx >= 164 {
					format := workbook.GetFormatByIndex(idx)
					return format.GetFormatString(cell)
				}
				return raw
			}))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// formattedCell returns format(), or raw when the lookup fails or yields nothing.
func formattedCell(raw string, format func() string) (text string) {
	defer func() {
		if recover() != nil {
			text = raw
		}
	}()
	if text = format(); text == "" {
		text = raw
	}
	return text
}

// builtinNumberText renders a numeric .xls cell carrying one of the built-in
// date or time number formats the way the .xlsx path shows it.
func builtinNumberText(v float64, formatIndex int) (string, bool) {
	var layout string
	switch {
	case formatIndex >= 14 && formatIndex <= 17:
		layout = "2006-01-02"
	case formatIndex == 22:
		layout = "2006-01-02 15:04"
	case formatIndex >= 18 && formatIndex <= 21, formatIndex >= 45 && formatIndex <= 47:
		layout = "15:04:05"
	default:
		return "", false
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return "", false
	}
	return t.Format(layout), true
}

func rowsFromGrid(grid [][]string) []models.RawRow {
	h := -1
	for i, row := range grid {
		if !blankRow(row) {
			h = i
			break
		}
	}
	if h < 0 {
		return []models.RawRow{}
	}
	header := grid[h]

	out := make([]models.RawRow, 0, len(grid)-h-1)
	for _, row := range grid[h+1:] {
		rr := make(models.RawRow, len(header))
		for i, name := range header {
			key := strings.TrimSpace(name)
			if key == "" {
				continue
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			rr[key] = val
		}
		out = append(out, rr)
	}
	return out
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
