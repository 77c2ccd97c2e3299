package table

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/gorilla"
)

// RowColumn names the row position series carried by every Frame.
const RowColumn = "loanpipe_row"

// Comparison is the operator of a Condition.
type Comparison int

// Comparisons understood by Where.
const (
	AtMost  Comparison = iota // value <= Value
	AtLeast                   // value >= Value
	Equal                     // value == Value
)

func (c Comparison) String() string {
	switch c {
	case AtMost:
		return "<="
	case AtLeast:
		return ">="
	case Equal:
		return "=="
	default:
		return fmt.Sprintf("Comparison(%d)", int(c))
	}
}

// Condition compares a numeric column with a constant.
type Condition struct {
	Column string
	Cmp    Comparison
	Value  float64
}

// Frame exports a numeric column as a two column gorilla DataFrame: RowColumn
// holding each row's position in t, and the column itself. Nulls are exported
// as NaN so they fail every comparison. The caller releases the frame.
func (t *Table) Frame(name string, mem memory.Allocator) (*gorilla.DataFrame, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if col.Kind() != KindNumeric {
		return nil, KindMismatch(name, KindNumeric, col.Kind())
	}
	rows := make([]int64, t.rows)
	values := make([]float64, t.rows)
	for i := range rows {
		rows[i] = int64(i)
		if col.IsNull(i) {
			values[i] = math.NaN()
			continue
		}
		values[i] = col.Float(i)
	}

	rowSeries := gorilla.NewSeries(RowColumn, rows, mem)
	defer rowSeries.Release()
	valueSeries := gorilla.NewSeries(name, values, mem)
	defer valueSeries.Release()

	return gorilla.NewDataFrame(rowSeries, valueSeries), nil
}

// Where returns the rows that satisfy every condition, in their original
// order. Each condition runs as a lazy gorilla filter over the survivors of
// the previous one.
func (t *Table) Where(conds ...Condition) (*Table, error) {
	mem := memory.NewGoAllocator()
	out := t
	for _, c := range conds {
		if out.rows == 0 {
			// Still validate the remaining columns.
			if _, err := out.numeric(c.Column); err != nil {
				return nil, err
			}
			continue
		}
		rows, err := out.matching(c, mem)
		if err != nil {
			return nil, err
		}
		if out, err = out.Take(rows); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *Table) numeric(name string) (*Column, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if col.Kind() != KindNumeric {
		return nil, KindMismatch(name, KindNumeric, col.Kind())
	}
	return col, nil
}

// matching returns the positions of the rows satisfying c.
func (t *Table) matching(c Condition, mem memory.Allocator) ([]int, error) {
	frame, err := t.Frame(c.Column, mem)
	if err != nil {
		return nil, err
	}
	defer frame.Release()

	col, lit := gorilla.Col(c.Column), gorilla.Lit(c.Value)
	lazy := frame.Lazy()
	switch c.Cmp {
	case AtMost:
		lazy = lazy.Filter(col.Lt(lit).Or(col.Eq(lit)))
	case AtLeast:
		lazy = lazy.Filter(col.Gt(lit).Or(col.Eq(lit)))
	case Equal:
		lazy = lazy.Filter(col.Eq(lit))
	default:
		return nil, &SchemaError{Column: c.Column, Reason: "unsupported comparison " + c.Cmp.String()}
	}
	kept, err := lazy.Collect()
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", c.Column, err)
	}
	defer kept.Release()

	return rowPositions(kept)
}

// rowPositions reads RowColumn back out of a collected frame.
func rowPositions(df *gorilla.DataFrame) ([]int, error) {
	if df.Len() == 0 {
		return []int{}, nil
	}
	s, ok := df.Column(RowColumn)
	if !ok {
		return nil, MissingColumn(RowColumn)
	}
	arr, ok := s.Array().(*array.Int64)
	if !ok {
		return nil, &SchemaError{Column: RowColumn, Reason: "row positions are not int64"}
	}
	out := make([]int, arr.Len())
	for i := range out {
		out[i] = int(arr.Value(i))
	}
	return out, nil
}
