// Package dataset provides the immutable tabular value passed between
// pipeline stages.
//
// A Dataset is an ordered sequence of rows sharing one column set. Column
// names are arbitrary human-language strings; cells are numbers, strings or
// null. Datasets are never mutated in place: every transformation builds a
// new Dataset, so stages can safely share row storage.
package dataset

import (
	"fmt"
	"strings"
)

// Dataset is an immutable table of named columns and scalar rows.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates an empty Dataset with the given column set. Column order is
// preserved; duplicate column names are rejected.
func New(columns []string) (*Dataset, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, exists := index[name]; exists {
			return nil, fmt.Errorf("duplicate column name %q", name)
		}
		index[name] = i
	}
	return &Dataset{
		columns: append([]string(nil), columns...),
		index:   index,
	}, nil
}

// MustNew is New for statically known column sets, panicking on duplicates.
// Intended for tests and internal construction.
func MustNew(columns []string) *Dataset {
	d, err := New(columns)
	if err != nil {
		panic(err)
	}
	return d
}

// Empty returns a Dataset with no columns and no rows. It is the sentinel
// returned when a pipeline stage has nothing left to process.
func Empty() *Dataset {
	return MustNew(nil)
}

// Columns returns a copy of the column names in source order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int {
	return len(d.rows)
}

// NumColumns returns the column count.
func (d *Dataset) NumColumns() int {
	return len(d.columns)
}

// IsEmpty reports whether the Dataset holds no rows.
func (d *Dataset) IsEmpty() bool {
	return len(d.rows) == 0
}

// AppendRow adds a row to the Dataset during construction. The cell count
// must match the column count. AppendRow is the only mutating operation and
// must not be called once the Dataset has been handed to a consumer.
func (d *Dataset) AppendRow(cells []Value) error {
	if len(cells) != len(d.columns) {
		return fmt.Errorf("row has %d cells, dataset has %d columns", len(cells), len(d.columns))
	}
	d.rows = append(d.rows, append([]Value(nil), cells...))
	return nil
}

// Value returns the cell at the given row and column. Missing columns and
// out-of-range rows read as null, matching the non-fatal degradation policy
// for unknown schemas.
func (d *Dataset) Value(row int, column string) Value {
	if row < 0 || row >= len(d.rows) {
		return Null()
	}
	i, ok := d.index[column]
	if !ok {
		return Null()
	}
	return d.rows[row][i]
}

// RowValues returns a copy of the cells of one row in column order.
func (d *Dataset) RowValues(row int) []Value {
	if row < 0 || row >= len(d.rows) {
		return nil
	}
	return append([]Value(nil), d.rows[row]...)
}

// Filter returns a new Dataset containing the rows for which keep returns
// true. Row storage is shared with the receiver.
func (d *Dataset) Filter(keep func(row int) bool) *Dataset {
	out := &Dataset{columns: d.columns, index: d.index}
	for i := range d.rows {
		if keep(i) {
			out.rows = append(out.rows, d.rows[i])
		}
	}
	return out
}

// WithColumn returns a new Dataset with the named column set to the given
// values. An existing column is replaced in place; a new column is appended.
// The value slice must have one entry per row.
func (d *Dataset) WithColumn(name string, values []Value) (*Dataset, error) {
	if len(values) != len(d.rows) {
		return nil, fmt.Errorf("column %q has %d values, dataset has %d rows", name, len(values), len(d.rows))
	}

	if i, exists := d.index[name]; exists {
		out := &Dataset{columns: d.columns, index: d.index}
		out.rows = make([][]Value, len(d.rows))
		for r := range d.rows {
			row := append([]Value(nil), d.rows[r]...)
			row[i] = values[r]
			out.rows[r] = row
		}
		return out, nil
	}

	out, err := New(append(d.Columns(), name))
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(d.rows))
	for r := range d.rows {
		row := make([]Value, 0, len(d.columns)+1)
		row = append(row, d.rows[r]...)
		row = append(row, values[r])
		out.rows[r] = row
	}
	return out, nil
}

// Fingerprint returns an unambiguous encoding of one full row, used for
// exact-duplicate detection.
func (d *Dataset) Fingerprint(row int) string {
	var b strings.Builder
	for _, cell := range d.rows[row] {
		cell.fingerprint(&b)
	}
	return b.String()
}

// DropExactDuplicates returns a new Dataset with full-row duplicates removed,
// keeping the first occurrence, plus the number of rows dropped.
func (d *Dataset) DropExactDuplicates() (*Dataset, int) {
	seen := make(map[string]bool, len(d.rows))
	out := d.Filter(func(row int) bool {
		fp := d.Fingerprint(row)
		if seen[fp] {
			return false
		}
		seen[fp] = true
		return true
	})
	return out, d.NumRows() - out.NumRows()
}

// DistinctCount returns the number of distinct non-null values in the named
// column, compared by their textual rendering. Missing columns count zero.
func (d *Dataset) DistinctCount(column string) int {
	i, ok := d.index[column]
	if !ok {
		return 0
	}
	seen := make(map[string]bool)
	for _, row := range d.rows {
		if row[i].IsNull() {
			continue
		}
		seen[row[i].Text()] = true
	}
	return len(seen)
}
