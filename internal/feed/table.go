package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var (
	ErrMissingHeader   = errors.New("missing header row")
	ErrMissingColumn   = errors.New("missing required column")
	ErrInvalidEncoding = errors.New("invalid UTF-8")
	ErrMissingTable    = errors.New("missing table")
)

// ParseError reports a structural problem with a table. It aborts the load
// that hit it.
type ParseError struct {
	Table string
	Line  int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %v", e.Table, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Table, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Schema names the columns a table decoder reads. A header without one of
// the Required columns is a ParseError; a row with an empty Required value
// is skipped.
type Schema struct {
	Required []string
	Optional []string
}

// Row maps column names to trimmed cell values. Columns named by the schema
// are always present, empty when the row is short.
type Row map[string]string

// TableReader decodes one delimited table lazily. It is not restartable.
type TableReader struct {
	name     string
	r        *csv.Reader
	columns  map[string]int
	required []string
	row      Row
	line     int
	skipped  int
	err      error
}

// NewTableReader reads the header of a table and prepares row iteration.
// Columns are located by name, so their order in the file does not matter.
func NewTableReader(name string, r io.Reader, schema Schema) (*TableReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Table: name, Line: 1, Err: ErrMissingHeader}
	}
	if err != nil {
		return nil, &ParseError{Table: name, Line: 1, Err: err}
	}

	positions := make(map[string]int, len(header))
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		if !utf8.ValidString(col) {
			return nil, &ParseError{Table: name, Line: 1, Err: ErrInvalidEncoding}
		}
		col = strings.ToLower(strings.TrimSpace(col))
		if _, seen := positions[col]; !seen {
			positions[col] = i
		}
	}

	var missing []string
	columns := make(map[string]int, len(schema.Required)+len(schema.Optional))
	for _, col := range schema.Required {
		i, ok := positions[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		columns[col] = i
	}
	if len(missing) > 0 {
		return nil, &ParseError{
			Table: name,
			Line:  1,
			Err:   fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", ")),
		}
	}
	for _, col := range schema.Optional {
		if i, ok := positions[col]; ok {
			columns[col] = i
		} else {
			columns[col] = -1
		}
	}

	return &TableReader{
		name:     name,
		r:        cr,
		columns:  columns,
		required: schema.Required,
		line:     1,
	}, nil
}

// Next advances to the next usable row. It returns false at the end of the
// table or on a structural error, which Err then reports.
func (t *TableReader) Next() bool {
	for t.err == nil {
		record, err := t.r.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			line := t.line + 1
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				line = csvErr.Line
			}
			t.err = &ParseError{Table: t.name, Line: line, Err: err}
			return false
		}
		t.line, _ = t.r.FieldPos(0)
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		row := make(Row, len(t.columns))
		for col, i := range t.columns {
			var v string
			if i >= 0 && i < len(record) {
				v = strings.TrimSpace(record[i])
			}
			if !utf8.ValidString(v) {
				t.err = &ParseError{Table: t.name, Line: t.line, Err: ErrInvalidEncoding}
				return false
			}
			row[col] = v
		}
		if t.incomplete(row) {
			t.skipped++
			continue
		}
		t.row = row
		return true
	}
	return false
}

func (t *TableReader) incomplete(row Row) bool {
	for _, col := range t.required {
		if row[col] == "" {
			return true
		}
	}
	return false
}

// Row returns the row produced by the last successful Next.
func (t *TableReader) Row() Row {
	return t.row
}

// Line is the source line of the current row.
func (t *TableReader) Line() int {
	return t.line
}

// Skipped counts rows dropped for missing required values.
func (t *TableReader) Skipped() int {
	return t.skipped
}

func (t *TableReader) Err() error {
	return t.err
}

func (t *TableReader) Name() string {
	return t.name
}
