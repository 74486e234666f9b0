package dataset

import (
	"fmt"
	"strings"
	"time"
)

// grid is a header plus raw string rows, as read from delimited text or a sheet.
type grid struct {
	header []string
	rows   [][]string
	// timeFallback parses deadline cells none of the layouts matched, e.g.
	// spreadsheet serial dates.
	timeFallback func(raw string) (time.Time, bool)
}

// normalize types and cleans a grid:
//   - headers are trimmed, NFC-normalized and de-duplicated ("x", "x.1", ...)
//   - Duración becomes a number column, Fecha Límite a time column; cells that do
//     not parse are missing
//   - other columns are numbers when every present cell parses, text otherwise
//   - missing text becomes opt.MissingLabel and present text is trimmed
//   - rows are sorted by Fecha Límite, missing deadlines last
func normalize(g grid, opt Options) (*Table, error) {
	names := uniqueNames(g.header)
	t := NewTable(len(g.rows))
	for j, name := range names {
		raw := make([]string, len(g.rows))
		for i, rec := range g.rows {
			if j < len(rec) {
				raw[i] = rec[j]
			}
		}
		var col *Column
		switch name {
		case ColDuration:
			col = numberColumn(name, raw, opt.DecimalSeparator)
		case ColDeadline:
			col = timeColumn(name, raw, opt.DateLayouts, g.timeFallback)
		default:
			if allNumeric(raw, opt.DecimalSeparator) {
				col = numberColumn(name, raw, opt.DecimalSeparator)
			} else {
				col = textColumn(name, raw, opt.MissingLabel)
			}
		}
		if err := t.AddColumn(col); err != nil {
			return nil, err
		}
	}
	if t.Has(ColDeadline) {
		if err := t.SortByTime(ColDeadline); err != nil {
			return nil, fmt.Errorf("sort by deadline: %w", err)
		}
	}
	return t, nil
}

// uniqueNames suffixes repeated headers with .1, .2, ... skipping any suffix that
// another header already spells out, so "x;x;x.1" becomes x, x.2, x.1.
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	reserved := make(map[string]bool, len(header))
	for _, h := range header {
		reserved[NormalizeName(h)] = true
	}
	used := make(map[string]bool, len(header))
	next := make(map[string]int, len(header))
	for i, h := range header {
		base := NormalizeName(h)
		name := base
		for used[name] || (name != base && reserved[name]) {
			next[base]++
			name = fmt.Sprintf("%s.%d", base, next[base])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func allNumeric(raw []string, decimal rune) bool {
	for _, v := range raw {
		if IsNA(v) {
			continue
		}
		if _, ok := ParseNumber(v, decimal); !ok {
			return false
		}
	}
	return true
}

func numberColumn(name string, raw []string, decimal rune) *Column {
	c := &Column{Name: name, Kind: KindNumber, Cells: make([]Cell, len(raw))}
	for i, v := range raw {
		if IsNA(v) {
			continue
		}
		if f, ok := ParseNumber(v, decimal); ok {
			c.Cells[i] = NumberCell(f)
		}
	}
	return c
}

func timeColumn(name string, raw []string, layouts []string, fallback func(string) (time.Time, bool)) *Column {
	c := &Column{Name: name, Kind: KindTime, Cells: make([]Cell, len(raw))}
	for i, v := range raw {
		if IsNA(v) {
			continue
		}
		if ts, ok := ParseTime(v, layouts); ok {
			c.Cells[i] = TimeCell(ts)
			continue
		}
		if fallback != nil {
			if ts, ok := fallback(strings.TrimSpace(v)); ok {
				c.Cells[i] = TimeCell(ts)
			}
		}
	}
	return c
}

func textColumn(name string, raw []string, missing string) *Column {
	c := &Column{Name: name, Kind: KindText, Cells: make([]Cell, len(raw))}
	for i, v := range raw {
		if IsNA(v) {
			c.Cells[i] = TextCell(missing)
			continue
		}
		c.Cells[i] = TextCell(strings.TrimSpace(v))
	}
	return c
}
