package table

import (
	"errors"
	"fmt"
	"strings"
)

const (
	fieldSeparator    = ","
	metadataSeparator = ":\t"
)

var (
	// ErrNoData is returned when the text block holds no lines at all
	ErrNoData = errors.New("no data")

	// ErrMissingColumn is returned when a requested column is not in the header
	ErrMissingColumn = errors.New("missing column")

	// ErrRowWidth is returned when a row has more fields than the header
	ErrRowWidth = errors.New("row wider than header")

	// ErrShortColumn is returned by Complete when short rows left a column
	// without a value for every row
	ErrShortColumn = errors.New("column has missing values")
)

// Table is a column-oriented view of a comma-delimited text block. Fields are
// aligned by position, so a row shorter than the header leaves its trailing
// columns with fewer than Len() values.
type Table struct {
	fields []string
	values map[string][]string
	rows   int
}

// Parse parses a comma-delimited text block with a header line. Fields are
// split on commas with no quoting or escaping. Short rows fill the leading
// columns only; a row with more fields than the header is an error.
func Parse(s string) (*Table, error) {
	lines := splitLines(s)
	if len(lines) == 0 {
		return nil, ErrNoData
	}

	fields := strings.Split(lines[0], fieldSeparator)
	t := Table{
		fields: fields,
		values: make(map[string][]string, len(fields)),
	}

	for _, field := range fields {
		if _, ok := t.values[field]; ok {
			return nil, fmt.Errorf("duplicate column %q", field)
		}
		t.values[field] = make([]string, 0, len(lines)-1)
	}

	for i, line := range lines[1:] {
		cells := strings.Split(line, fieldSeparator)
		if len(cells) > len(fields) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrRowWidth, i+2, len(cells), len(fields))
		}

		for j, cell := range cells {
			t.values[fields[j]] = append(t.values[fields[j]], cell)
		}
		t.rows++
	}

	return &t, nil
}

// Columns returns the column names in header order
func (t *Table) Columns() []string {
	return append([]string(nil), t.fields...)
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return t.rows
}

// Column returns the raw values of the named column. It may hold fewer than
// Len() values when short rows were parsed, see Complete.
func (t *Table) Column(name string) ([]string, error) {
	values, ok := t.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}

	return values, nil
}

// Complete returns the named column, or an error wrapping ErrShortColumn when
// a short row left it without a value for every row.
func (t *Table) Complete(name string) ([]string, error) {
	values, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if len(values) < t.rows {
		return nil, fmt.Errorf("%w: %q has %d of %d values", ErrShortColumn, name, len(values), t.rows)
	}

	return values, nil
}

// ParseMetadata parses "Key:\tValue" lines into a map. Lines that do not split
// into exactly a key and a value are ignored.
func ParseMetadata(s string) map[string]string {
	meta := make(map[string]string)

	for _, line := range splitLines(s) {
		parts := strings.Split(line, metadataSeparator)
		if len(parts) != 2 {
			continue
		}

		meta[parts[0]] = parts[1]
	}

	return meta
}

// splitLines splits on line breaks, drops a trailing carriage return from each
// line and ignores trailing empty lines.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}
