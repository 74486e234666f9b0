package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Well-known case columns. Each is optional.
const (
	ColDuration = "Duración"
	ColDeadline = "Fecha Límite"
	ColAction   = "Actuación"
)

// DefaultMissingLabel replaces missing text cells after normalization.
const DefaultMissingLabel = "No especificado"

// Kind is the inferred type of a column.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindTime   Kind = "time"
)

// Cell holds one value. Only the field matching the column kind is meaningful.
type Cell struct {
	Str   string
	Num   float64
	Time  time.Time
	Valid bool
}

// TextCell, NumberCell and TimeCell build valid cells; Missing builds an invalid one.
func TextCell(s string) Cell { return Cell{Str: s, Valid: true} }
func NumberCell(f float64) Cell { return Cell{Num: f, Valid: true} }
func TimeCell(t time.Time) Cell { return Cell{Time: t, Valid: true} }
func Missing() Cell { return Cell{} }

// Column is a named, typed sequence of cells.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// Label renders cell i for grouping and display. ok is false for missing cells.
func (c *Column) Label(i int) (string, bool) {
	cell := c.Cells[i]
	if !cell.Valid {
		return "", false
	}
	switch c.Kind {
	case KindNumber:
		return strconv.FormatFloat(cell.Num, 'f', -1, 64), true
	case KindTime:
		return cell.Time.Format(time.RFC3339), true
	default:
		return cell.Str, true
	}
}

// Labels returns every non-missing label in row order. If fill is non-empty,
// missing cells are reported as fill instead of being skipped.
func (c *Column) Labels(fill string) []string {
	out := make([]string, 0, len(c.Cells))
	for i := range c.Cells {
		if l, ok := c.Label(i); ok {
			out = append(out, l)
		} else if fill != "" {
			out = append(out, fill)
		}
	}
	return out
}

// Numbers returns the valid numeric values of a number column.
func (c *Column) Numbers() []float64 {
	if c.Kind != KindNumber {
		return nil
	}
	out := make([]float64, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if cell.Valid {
			out = append(out, cell.Num)
		}
	}
	return out
}

// Table is an ordered set of equally long columns.
type Table struct {
	Columns []*Column
	rows    int
}

// NewTable returns an empty table with the given row count. Columns added with
// AddColumn must have exactly rows cells.
func NewTable(rows int) *Table {
	return &Table{rows: rows}
}

// Empty returns a table with no columns and no rows.
func Empty() *Table { return &Table{} }

// AddColumn appends a column.
func (t *Table) AddColumn(c *Column) error {
	if len(c.Cells) != t.rows {
		return fmt.Errorf("column %q has %d cells, table has %d rows", c.Name, len(c.Cells), t.rows)
	}
	t.Columns = append(t.Columns, c)
	return nil
}

// Len is the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// Names returns column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column finds a column by name. Names compare after trimming and NFC normalization.
func (t *Table) Column(name string) (*Column, bool) {
	if t == nil {
		return nil, false
	}
	want := NormalizeName(name)
	for _, c := range t.Columns {
		if NormalizeName(c.Name) == want {
			return c, true
		}
	}
	return nil, false
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// TextColumns returns the categorical columns in column order.
func (t *Table) TextColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.Kind == KindText {
			out = append(out, c)
		}
	}
	return out
}

// SortByTime stably reorders all rows ascending by the named time column.
// Missing times sort last.
func (t *Table) SortByTime(name string) error {
	key, ok := t.Column(name)
	if !ok {
		return fmt.Errorf("sort: no column %q", name)
	}
	if key.Kind != KindTime {
		return fmt.Errorf("sort: column %q is %s, not time", name, key.Kind)
	}
	idx := make([]int, t.rows)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ca, cb := key.Cells[idx[a]], key.Cells[idx[b]]
		if !ca.Valid || !cb.Valid {
			return ca.Valid && !cb.Valid
		}
		return ca.Time.Before(cb.Time)
	})
	for _, c := range t.Columns {
		reordered := make([]Cell, t.rows)
		for to, from := range idx {
			reordered[to] = c.Cells[from]
		}
		c.Cells = reordered
	}
	return nil
}

// Row returns row i as ordered name/value pairs. Missing cells are nil.
func (t *Table) Row(i int) []Field {
	out := make([]Field, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = Field{Name: c.Name, Value: cellValue(c.Kind, c.Cells[i])}
	}
	return out
}

// Field is one named value of a row.
type Field struct {
	Name  string
	Value any
}

func cellValue(k Kind, c Cell) any {
	if !c.Valid {
		return nil
	}
	switch k {
	case KindNumber:
		return c.Num
	case KindTime:
		return c.Time
	default:
		return c.Str
	}
}

// MarshalJSON encodes the table as an array of row objects keeping column order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('[')
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('{')
		for j, f := range t.Row(i) {
			if j > 0 {
				b.WriteByte(',')
			}
			k, err := json.Marshal(f.Name)
			if err != nil {
				return nil, err
			}
			v, err := json.Marshal(f.Value)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, f.Name, err)
			}
			b.Write(k)
			b.WriteByte(':')
			b.Write(v)
		}
		b.WriteByte('}')
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}

// NormalizeName trims and NFC-normalizes a column header.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// CoerceTime converts a text column to a time column in place. Cells that do not
// parse become missing. It reports whether the column is a time column afterwards.
func (t *Table) CoerceTime(name string, layouts []string) bool {
	c, ok := t.Column(name)
	if !ok {
		return false
	}
	switch c.Kind {
	case KindTime:
		return true
	case KindText:
		for i, cell := range c.Cells {
			if ts, ok := ParseTime(cell.Str, layouts); cell.Valid && ok {
				c.Cells[i] = TimeCell(ts)
			} else {
				c.Cells[i] = Missing()
			}
		}
		c.Kind = KindTime
		return true
	default:
		return false
	}
}
