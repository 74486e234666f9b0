package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type csvReader struct{}

func (csvReader) Kind() SourceKind { return SourceCSV }

func (csvReader) CanRead(filename string) bool { return hasExt(filename, ".csv") }

func (csvReader) Read(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, opt)
}

// ReadCSV parses delimited UTF-8 text and normalizes it into a Table.
func ReadCSV(r io.Reader, opt Options) (*Table, error) {
	opt = opt.withDefaults()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, ErrEncoding
	}
	// Spreadsheet exports often carry a UTF-8 BOM; it must not end up in the first header.
	body := transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(transform.Nop))

	cr := csv.NewReader(body)
	cr.Comma = opt.Delimiter
	cr.FieldsPerRecord = -1
	// Action texts quote court wording inline: Auto "admite" demanda.
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no columns to parse", ErrMalformed)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: expected %d fields, saw %d", ErrMalformed, line, len(header), len(rec))
		}
		rows = append(rows, rec)
	}
	return normalize(grid{header: header, rows: rows}, opt)
}
