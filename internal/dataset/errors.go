package dataset

import (
	"errors"
	"fmt"
)

// ErrMalformed marks structural problems inside a data file.
var ErrMalformed = errors.New("malformed data file")

// ErrEncoding indicates the file is not valid UTF-8.
var ErrEncoding = errors.New("invalid UTF-8 encoding")

// ParseError reports a data file that could not be loaded. The pass that hit it
// continues with an empty table.
type ParseError struct {
	Kind SourceKind
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "parse error"
	}
	return fmt.Sprintf("load %s file %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
