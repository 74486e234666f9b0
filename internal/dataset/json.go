package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

type jsonReader struct{}

func (jsonReader) Kind() SourceKind { return SourceJSON }

func (jsonReader) CanRead(filename string) bool { return hasExt(filename, ".json") }

func (jsonReader) Read(path string, _ Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open json: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadJSON parses either an array of record objects or an object of columns
// ({"col": {"0": v}} or {"col": [v, ...]}). Column order follows first
// appearance of each key. Values are taken as-is: numbers, strings and nulls map
// to number, text and missing cells; no trimming or sentinel filling happens.
func ReadJSON(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty json document", ErrMalformed)
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}
	var frame *jsonFrame
	switch tok {
	case json.Delim('['):
		frame, err = decodeRecords(dec)
	case json.Delim('{'):
		frame, err = decodeColumns(dec)
	default:
		return nil, fmt.Errorf("%w: expected array or object, got %v", ErrMalformed, tok)
	}
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after json document", ErrMalformed)
	}
	return frame.table()
}

// jsonFrame collects values by column and row key while keeping first-seen order.
type jsonFrame struct {
	cols    []string
	rows    []string
	rowIdx  map[string]int
	colVals map[string]map[int]any
}

func newJSONFrame() *jsonFrame {
	return &jsonFrame{rowIdx: map[string]int{}, colVals: map[string]map[int]any{}}
}

func (f *jsonFrame) row(key string) int {
	if i, ok := f.rowIdx[key]; ok {
		return i
	}
	f.rowIdx[key] = len(f.rows)
	f.rows = append(f.rows, key)
	return len(f.rows) - 1
}

func (f *jsonFrame) set(col string, row int, v any) {
	vals, ok := f.colVals[col]
	if !ok {
		vals = map[int]any{}
		f.colVals[col] = vals
		f.cols = append(f.cols, col)
	}
	vals[row] = v
}

func decodeRecords(dec *json.Decoder) (*jsonFrame, error) {
	f := newJSONFrame()
	for dec.More() {
		row := f.row(fmt.Sprint(len(f.rows)))
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", row, err)
		}
		if tok != json.Delim('{') {
			return nil, fmt.Errorf("%w: record %d is not an object", ErrMalformed, row)
		}
		for dec.More() {
			key, err := objectKey(dec)
			if err != nil {
				return nil, fmt.Errorf("decode record %d: %w", row, err)
			}
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("decode record %d field %q: %w", row, key, err)
			}
			f.set(key, row, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", row, err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return f, nil
}

func decodeColumns(dec *json.Decoder) (*jsonFrame, error) {
	f := newJSONFrame()
	for dec.More() {
		col, err := objectKey(dec)
		if err != nil {
			return nil, fmt.Errorf("decode column: %w", err)
		}
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode column %q: %w", col, err)
		}
		switch tok {
		case json.Delim('['):
			for i := 0; dec.More(); i++ {
				var v any
				if err := dec.Decode(&v); err != nil {
					return nil, fmt.Errorf("decode column %q: %w", col, err)
				}
				f.set(col, f.row(fmt.Sprint(i)), v)
			}
		case json.Delim('{'):
			for dec.More() {
				key, err := objectKey(dec)
				if err != nil {
					return nil, fmt.Errorf("decode column %q: %w", col, err)
				}
				var v any
				if err := dec.Decode(&v); err != nil {
					return nil, fmt.Errorf("decode column %q row %q: %w", col, key, err)
				}
				f.set(col, f.row(key), v)
			}
		default:
			return nil, fmt.Errorf("%w: column %q is neither array nor object", ErrMalformed, col)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("decode column %q: %w", col, err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return f, nil
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected object key, got %v", ErrMalformed, tok)
	}
	return key, nil
}

func (f *jsonFrame) table() (*Table, error) {
	t := NewTable(len(f.rows))
	for _, name := range f.cols {
		vals := f.colVals[name]
		kind := KindNumber
		for _, v := range vals {
			if v == nil {
				continue
			}
			if _, ok := v.(json.Number); !ok {
				kind = KindText
				break
			}
		}
		col := &Column{Name: name, Kind: kind, Cells: make([]Cell, len(f.rows))}
		for i, v := range vals {
			col.Cells[i] = jsonCell(kind, v)
		}
		if err := t.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func jsonCell(kind Kind, v any) Cell {
	switch x := v.(type) {
	case nil:
		return Missing()
	case json.Number:
		if kind == KindNumber {
			if n, err := x.Float64(); err == nil {
				return NumberCell(n)
			}
			return Missing()
		}
		return TextCell(x.String())
	case string:
		return TextCell(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return Missing()
		}
		return TextCell(string(b))
	}
}
