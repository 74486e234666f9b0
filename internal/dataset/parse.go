package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Options controls how files are found and how cells are parsed.
type Options struct {
	// Dir is the data directory searched for input files.
	Dir string
	// Delimiter for delimited text files.
	Delimiter rune
	// DecimalSeparator is '.' or ','. The other one is treated as a thousands separator.
	DecimalSeparator rune
	// DateLayouts are tried in order when parsing deadline cells.
	DateLayouts []string
	// MissingLabel replaces missing text cells.
	MissingLabel string
	// SampleSeed seeds the synthetic sample table; 0 picks a time-based seed.
	SampleSeed uint64
}

// DefaultDateLayouts prefers day-first forms, as case files are exported from
// Spanish-locale tools.
var DefaultDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
}

// DefaultOptions returns reasonable defaults for the case dataset.
func DefaultOptions() Options {
	return Options{
		Dir:              "data",
		Delimiter:        ';',
		DecimalSeparator: '.',
		DateLayouts:      DefaultDateLayouts,
		MissingLabel:     DefaultMissingLabel,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Dir == "" {
		o.Dir = d.Dir
	}
	if o.Delimiter == 0 {
		o.Delimiter = d.Delimiter
	}
	if o.DecimalSeparator == 0 {
		o.DecimalSeparator = d.DecimalSeparator
	}
	if len(o.DateLayouts) == 0 {
		o.DateLayouts = d.DateLayouts
	}
	if o.MissingLabel == "" {
		o.MissingLabel = d.MissingLabel
	}
	return o
}

var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "<NA>": {},
}

// IsNA reports whether a raw cell should be read as missing.
func IsNA(raw string) bool {
	_, ok := naTokens[raw]
	return ok
}

// ParseNumber parses a numeric cell. With a ',' decimal separator, '.' is read
// as a thousands separator ("1.234,5"). Infinities and NaN are rejected.
func ParseNumber(s string, decimal rune) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "\u00A0", "")
	if raw == "" {
		return 0, false
	}
	if decimal == ',' {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseTime tries each layout in order. Layouts without a zone are read as
// local wall-clock time, the same frame the upcoming-deadline window uses.
func ParseTime(s string, layouts []string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, false
	}
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
