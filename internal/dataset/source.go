package dataset

import (
	"path/filepath"
	"strings"
)

// SourceKind names where a table came from.
type SourceKind string

const (
	SourceCSV    SourceKind = "csv"
	SourceJSON   SourceKind = "json"
	SourceXLSX   SourceKind = "xlsx"
	SourceSample SourceKind = "sample"
	SourceNone   SourceKind = "none"
)

// Source describes the origin of a loaded table.
type Source struct {
	Kind SourceKind `json:"kind"`
	Path string     `json:"path,omitempty"`
}

// Reader turns one kind of data file into a Table.
type Reader interface {
	Kind() SourceKind
	CanRead(filename string) bool
	Read(path string, opt Options) (*Table, error)
}

var registry []Reader

// Register adds a reader. Registration order is discovery priority.
func Register(r Reader) {
	registry = append(registry, r)
}

// Readers returns the registered readers in priority order.
func Readers() []Reader {
	out := make([]Reader, len(registry))
	copy(out, registry)
	return out
}

func hasExt(filename string, exts ...string) bool {
	ext := filepath.Ext(filename)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func init() {
	Register(csvReader{})
	Register(jsonReader{})
	Register(xlsxReader{})
}
