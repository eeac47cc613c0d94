// Package models contains domain types for samarth-engine.
package models

import "fmt"

// Value is a single cell in a Table. A value is either a string, a number,
// or missing. Numeric cells keep their raw text so provenance can show the
// original token.
type Value struct {
	Raw     string  `json:"raw"`
	Num     float64 `json:"num,omitempty"`
	IsNum   bool    `json:"is_num,omitempty"`
	Missing bool    `json:"missing,omitempty"`
}

// StringValue builds a plain string cell.
func StringValue(s string) Value {
	return Value{Raw: s}
}

// NumberValue builds a numeric cell. The raw text is preserved alongside
// the parsed number.
func NumberValue(raw string, n float64) Value {
	return Value{Raw: raw, Num: n, IsNum: true}
}

// MissingValue builds an empty cell.
func MissingValue() Value {
	return Value{Missing: true}
}

// Row maps column names to cell values.
type Row map[string]Value

// Table is an ordered collection of rows sharing one column set.
// Tables are immutable once registered: components read them but never
// mutate a row or the column list.
type Table struct {
	Name    string   `json:"name"`
	Source  string   `json:"source,omitempty"` // file the table was loaded from
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Validate checks the shared-column-set invariant. A violation is a loader
// bug, so callers treat a non-nil error as fatal.
func (t *Table) Validate() error {
	want := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if _, dup := want[c]; dup {
			return fmt.Errorf("table %q: duplicate column %q", t.Name, c)
		}
		want[c] = struct{}{}
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("table %q: row %d has %d cells, want %d", t.Name, i, len(row), len(t.Columns))
		}
		for col := range row {
			if _, ok := want[col]; !ok {
				return fmt.Errorf("table %q: row %d has unknown column %q", t.Name, i, col)
			}
		}
	}
	return nil
}
