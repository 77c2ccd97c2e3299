package cleaning

import (
	"fmt"
	"math"

	"github.com/okian/loanpipe/internal/domain/profile"
	"github.com/okian/loanpipe/internal/domain/table"
)

// Stage names, used in errors, logs and metrics labels.
const (
	StageDropColumns     = "drop_columns"
	StageImpute          = "impute"
	StageReduceSkew      = "reduce_skew"
	StageFilterOutliers  = "filter_outliers"
	StagePruneCorrelated = "prune_correlated"
)

// Transform names carried by DomainError.
const (
	TransformLog1p = "log1p"
	TransformSqrt  = "sqrt"
)

// DropColumns removes the named columns. Names absent from t are ignored.
func DropColumns(t *table.Table, names []string) *table.Table {
	return t.Drop(names...)
}

// Impute fills missing values column by column. Each statistic is computed
// once from the column before any of its values are filled.
func Impute(t *table.Table, imputations []Imputation) (*table.Table, error) {
	out := t
	for _, imp := range imputations {
		col, err := out.Column(imp.Column)
		if err != nil {
			return nil, err
		}
		filled, err := fillColumn(col, imp.Strategy)
		if err != nil {
			return nil, err
		}
		if out, err = out.With(filled); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func fillColumn(c *table.Column, s Strategy) (*table.Column, error) {
	switch s {
	case StrategyMean:
		return MeanFill(c)
	case StrategyMedian:
		return MedianFill(c)
	case StrategyForwardFill:
		return ForwardFill(c), nil
	case StrategyMode:
		return ModeFill(c)
	default:
		return nil, fmt.Errorf("%w: %q for column %q", ErrUnknownStrategy, s, c.Name())
	}
}

// MeanFill replaces nulls in a numeric column with the mean of its non-null values.
func MeanFill(c *table.Column) (*table.Column, error) {
	if c.Kind() != table.KindNumeric {
		return nil, table.KindMismatch(c.Name(), table.KindNumeric, c.Kind())
	}
	return fillConstant(c, profile.Mean(c))
}

// MedianFill replaces nulls in a numeric column with the median of its
// non-null values.
func MedianFill(c *table.Column) (*table.Column, error) {
	if c.Kind() != table.KindNumeric {
		return nil, table.KindMismatch(c.Name(), table.KindNumeric, c.Kind())
	}
	return fillConstant(c, profile.Median(c))
}

func fillConstant(c *table.Column, v float64) (*table.Column, error) {
	if math.IsNaN(v) {
		return nil, fmt.Errorf("%w: column %q has no non-null values", ErrNothingToImpute, c.Name())
	}
	if c.NullCount() == 0 {
		return c, nil
	}
	values := make([]float64, c.Len())
	for i := range values {
		if c.IsNull(i) {
			values[i] = v
		} else {
			values[i] = c.Float(i)
		}
	}
	return table.NewNumeric(c.Name(), values, nil), nil
}

// ForwardFill replaces each null with the nearest preceding non-null value.
// Leading nulls have no predecessor and stay null.
func ForwardFill(c *table.Column) *table.Column {
	if c.NullCount() == 0 {
		return c
	}
	idx := make([]int, c.Len())
	last := -1
	for i := range idx {
		if !c.IsNull(i) {
			last = i
		}
		idx[i] = last
	}
	return c.Take(idx)
}

// ModeFill replaces nulls with the most frequent value; ties go to the value
// seen first.
func ModeFill(c *table.Column) (*table.Column, error) {
	m, ok := profile.ModeOf(c)
	if !ok {
		return nil, fmt.Errorf("%w: column %q has no non-null values", ErrNothingToImpute, c.Name())
	}
	if c.NullCount() == 0 {
		return c, nil
	}
	idx := make([]int, c.Len())
	for i := range idx {
		if c.IsNull(i) {
			idx[i] = m.Row
		} else {
			idx[i] = i
		}
	}
	return c.Take(idx), nil
}

// ReduceSkew applies ln(x+1) to logCols and sqrt(x) to sqrtCols. A value
// outside a transform's domain aborts with a DomainError.
func ReduceSkew(t *table.Table, logCols, sqrtCols []string) (*table.Table, error) {
	out, err := transformColumns(t, logCols, TransformLog1p, func(v float64) bool { return v >= -1 }, math.Log1p)
	if err != nil {
		return nil, err
	}
	return transformColumns(out, sqrtCols, TransformSqrt, func(v float64) bool { return v >= 0 }, math.Sqrt)
}

func transformColumns(t *table.Table, names []string, transform string, inDomain func(float64) bool, fn func(float64) float64) (*table.Table, error) {
	out := t
	for _, name := range names {
		col, err := out.Column(name)
		if err != nil {
			return nil, err
		}
		mapped, err := col.MapFloat(func(row int, v float64) (float64, error) {
			if !inDomain(v) {
				return 0, &DomainError{Column: name, Row: row, Value: v, Transform: transform}
			}
			return fn(v), nil
		})
		if err != nil {
			return nil, err
		}
		if out, err = out.With(mapped); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FilterOutliers keeps the rows that satisfy every rule, in their original
// order. A null value fails its rule.
func FilterOutliers(t *table.Table, rules []Rule) (*table.Table, error) {
	conds := make([]table.Condition, 0, len(rules))
	for _, r := range rules {
		c, err := r.Conditions()
		if err != nil {
			return nil, err
		}
		conds = append(conds, c...)
	}
	return t.Where(conds...)
}
