// Package table defines the immutable, column-oriented loan record table
// passed between pipeline stages.
//
// A Table is never mutated after construction. Operations return a new Table
// that may share unchanged columns with its input; this is safe because
// columns are immutable as well.
package table

import (
	"fmt"
)

// Table is an ordered set of equal-length named columns.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a table from columns. Names must be unique and all columns must
// have the same length.
func New(cols ...*Column) (*Table, error) {
	t := &Table{
		cols:  make([]*Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, dup := t.index[c.Name()]; dup {
			return nil, &SchemaError{Column: c.Name(), Reason: "duplicate column"}
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, &SchemaError{Column: c.Name(), Reason: fmt.Sprintf("length %d, want %d", c.Len(), t.rows)}
		}
		t.index[c.Name()] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// Shape returns the row and column counts.
func (t *Table) Shape() (rows, cols int) { return t.rows, len(t.cols) }

// Len returns the row count.
func (t *Table) Len() int { return t.rows }

// Width returns the column count.
func (t *Table) Width() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name()
	}
	return out
}

// Columns returns the columns in order. The slice is a copy.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column or a SchemaError.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, MissingColumn(name)
	}
	return t.cols[i], nil
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if _, ok := drop[c.Name()]; !ok {
			kept = append(kept, c)
		}
	}
	return t.rebuild(kept)
}

// DropStrict is Drop, but every name must refer to an existing column.
func (t *Table) DropStrict(names ...string) (*Table, error) {
	for _, n := range names {
		if !t.Has(n) {
			return nil, MissingColumn(n)
		}
	}
	return t.Drop(names...), nil
}

// With returns a table where col replaces the column of the same name,
// keeping its position. A new name is appended.
func (t *Table) With(col *Column) (*Table, error) {
	if len(t.cols) > 0 && col.Len() != t.rows {
		return nil, &SchemaError{Column: col.Name(), Reason: fmt.Sprintf("length %d, want %d", col.Len(), t.rows)}
	}
	cols := t.Columns()
	if i, ok := t.index[col.Name()]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	out := t.rebuild(cols)
	out.rows = col.Len()
	return out, nil
}

// Filter returns a table holding only the rows where keep is true, in their
// original order.
func (t *Table) Filter(keep []bool) (*Table, error) {
	if len(keep) != t.rows {
		return nil, fmt.Errorf("%w: filter mask length %d, want %d", ErrSchema, len(keep), t.rows)
	}
	idx := make([]int, 0, t.rows)
	for i, ok := range keep {
		if ok {
			idx = append(idx, i)
		}
	}
	return t.Take(idx)
}

// Take returns a table whose row j is row rows[j] of t.
func (t *Table) Take(rows []int) (*Table, error) {
	for _, r := range rows {
		if r < 0 || r >= t.rows {
			return nil, fmt.Errorf("%w: row %d out of range [0, %d)", ErrSchema, r, t.rows)
		}
	}
	idx := rows
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Take(idx)
	}
	out := t.rebuild(cols)
	out.rows = len(idx)
	return out, nil
}

// rebuild creates a table over cols that are already known to be consistent.
func (t *Table) rebuild(cols []*Column) *Table {
	out := &Table{cols: cols, index: make(map[string]int, len(cols)), rows: t.rows}
	for i, c := range cols {
		out.index[c.Name()] = i
	}
	return out
}
