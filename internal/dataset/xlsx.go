package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct{}

func (xlsxReader) Kind() SourceKind { return SourceXLSX }

func (xlsxReader) CanRead(filename string) bool { return hasExt(filename, ".xlsx") }

// Read loads the first sheet; its first row is the header. Cells are read raw so
// deadline columns stored as spreadsheet serial dates can be converted exactly.
func (xlsxReader) Read(path string, opt Options) (*Table, error) {
	opt = opt.withDefaults()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformed)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no columns to parse", ErrMalformed, sheets[0])
	}
	g := grid{header: rows[0], timeFallback: serialDate}
	for _, r := range rows[1:] {
		if blankRow(r) {
			continue
		}
		g.rows = append(g.rows, r)
	}
	return normalize(g, opt)
}

func blankRow(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func serialDate(raw string) (time.Time, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
