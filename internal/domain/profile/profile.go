// Package profile computes read-only summary statistics over a loan table.
//
// The results are advisory. The cleaning policy is static and never derived
// from these numbers at run time.
package profile

import (
	"math"
	"sort"
	"time"

	"github.com/okian/loanpipe/internal/domain/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NullCount is the number and fraction of missing values in one column.
type NullCount struct {
	Column   string
	Nulls    int
	Fraction float64
}

// Summary describes one column. Numeric fields are set for numeric columns;
// Unique/Top/Freq for the others; First/Last for temporal columns only.
type Summary struct {
	Column string
	Kind   table.Kind
	Count  int

	Mean   float64
	Std    float64
	Min    float64
	P25    float64
	Median float64
	P75    float64
	Max    float64

	Unique int
	Top    string
	Freq   int

	First time.Time
	Last  time.Time
}

// Mode is the most frequent non-null value of a column.
type Mode struct {
	Value string
	Row   int // first row holding the value
	Count int
}

// Shape returns the row and column counts.
func Shape(t *table.Table) (rows, cols int) {
	return t.Shape()
}

// NullCounts returns per-column missing value counts in column order.
func NullCounts(t *table.Table) []NullCount {
	out := make([]NullCount, 0, t.Width())
	for _, c := range t.Columns() {
		nc := NullCount{Column: c.Name(), Nulls: c.NullCount()}
		if c.Len() > 0 {
			nc.Fraction = float64(nc.Nulls) / float64(c.Len())
		}
		out = append(out, nc)
	}
	return out
}

// NullReport lists the columns whose null fraction is strictly above threshold.
func NullReport(t *table.Table, threshold float64) []NullCount {
	var out []NullCount
	for _, nc := range NullCounts(t) {
		if nc.Fraction > threshold {
			out = append(out, nc)
		}
	}
	return out
}

// Describe summarizes a single column.
func Describe(c *table.Column) Summary {
	s := Summary{Column: c.Name(), Kind: c.Kind(), Count: c.Len() - c.NullCount()}
	if c.Kind() == table.KindNumeric {
		describeNumeric(c, &s)
		return s
	}
	if m, ok := ModeOf(c); ok {
		s.Top = m.Value
		s.Freq = m.Count
	}
	s.Unique = uniqueCount(c)
	if c.Kind() == table.KindTemporal {
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				continue
			}
			ts := c.Time(i)
			if s.First.IsZero() || ts.Before(s.First) {
				s.First = ts
			}
			if s.Last.IsZero() || ts.After(s.Last) {
				s.Last = ts
			}
		}
	}
	return s
}

// DescribeTable summarizes every column in order.
func DescribeTable(t *table.Table) []Summary {
	out := make([]Summary, 0, t.Width())
	for _, c := range t.Columns() {
		out = append(out, Describe(c))
	}
	return out
}

// ModeOf returns the most frequent non-null value. Ties go to the value seen
// first in row order. ok is false for an all-null column.
func ModeOf(c *table.Column) (Mode, bool) {
	type tally struct {
		first int
		count int
	}
	counts := make(map[any]*tally)
	var order []any
	for i := 0; i < c.Len(); i++ {
		k := c.Key(i)
		if k == nil {
			continue
		}
		if tl, ok := counts[k]; ok {
			tl.count++
			continue
		}
		counts[k] = &tally{first: i, count: 1}
		order = append(order, k)
	}
	if len(order) == 0 {
		return Mode{}, false
	}
	best := counts[order[0]]
	for _, k := range order[1:] {
		if tl := counts[k]; tl.count > best.count {
			best = tl
		}
	}
	return Mode{Value: c.Text(best.first), Row: best.first, Count: best.count}, true
}

// Modes returns the mode of every column in order; all-null columns are skipped.
func Modes(t *table.Table) map[string]Mode {
	out := make(map[string]Mode, t.Width())
	for _, c := range t.Columns() {
		if m, ok := ModeOf(c); ok {
			out[c.Name()] = m
		}
	}
	return out
}

// Mean returns the mean of the non-null values, or NaN when there are none.
func Mean(c *table.Column) float64 {
	values := c.Floats()
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// Median returns the median of the non-null values, or NaN when there are none.
func Median(c *table.Column) float64 {
	values := c.Floats()
	if len(values) == 0 {
		return math.NaN()
	}
	sort.Float64s(values)
	return quantile(values, 0.5)
}

func describeNumeric(c *table.Column, s *Summary) {
	values := c.Floats()
	if len(values) == 0 {
		s.Mean, s.Std, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		s.P25, s.Median, s.P75 = math.NaN(), math.NaN(), math.NaN()
		return
	}
	sort.Float64s(values)
	s.Mean = stat.Mean(values, nil)
	s.Std = math.NaN()
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.P25 = quantile(values, 0.25)
	s.Median = quantile(values, 0.5)
	s.P75 = quantile(values, 0.75)
}

// quantile interpolates linearly between the closest ranks of sorted values.
// gonum's estimators (Empirical, LinInterp) do not average the two middle
// values of an even-length sample, which the median fill relies on.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func uniqueCount(c *table.Column) int {
	seen := make(map[any]struct{})
	for i := 0; i < c.Len(); i++ {
		if k := c.Key(i); k != nil {
			seen[k] = struct{}{}
		}
	}
	return len(seen)
}
