package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout used when rendering temporal values as text.
const DateLayout = "2006-01-02"

// Kind is the semantic kind carried by a column.
type Kind int

// Column kinds.
const (
	KindRaw Kind = iota
	KindNumeric
	KindCategorical
	KindTemporal
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindTemporal:
		return "temporal"
	default:
		return "unknown"
	}
}

// nullTokens are the raw text values treated as missing.
var nullTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"NULL": {},
	"null": {},
	"None": {},
}

// IsNullText reports whether raw text represents a missing value.
func IsNullText(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

// Column is an immutable, typed sequence of values with a validity mask.
// Exactly one storage slice is populated, selected by kind.
type Column struct {
	name  string
	kind  Kind
	valid []bool

	raw    []string    // KindRaw
	nums   []float64   // KindNumeric
	codes  []int32     // KindCategorical, -1 for null
	levels []string    // KindCategorical dictionary, first-seen order
	times  []time.Time // KindTemporal
}

// NewRaw builds an untyped text column. Null tokens become missing values.
func NewRaw(name string, values []string) *Column {
	c := &Column{name: name, kind: KindRaw, raw: make([]string, len(values)), valid: make([]bool, len(values))}
	for i, v := range values {
		if IsNullText(v) {
			continue
		}
		c.raw[i] = v
		c.valid[i] = true
	}
	return c
}

// NewNumeric builds a numeric column. A nil valid mask marks every value as
// present; NaN values are always treated as missing.
func NewNumeric(name string, values []float64, valid []bool) *Column {
	c := &Column{name: name, kind: KindNumeric, nums: make([]float64, len(values)), valid: make([]bool, len(values))}
	for i, v := range values {
		if (valid != nil && !valid[i]) || math.IsNaN(v) {
			continue
		}
		c.nums[i] = v
		c.valid[i] = true
	}
	return c
}

// NewCategorical builds a dictionary-encoded categorical column.
func NewCategorical(name string, values []string, valid []bool) *Column {
	c := &Column{name: name, kind: KindCategorical, codes: make([]int32, len(values)), valid: make([]bool, len(values))}
	lookup := make(map[string]int32)
	for i, v := range values {
		if valid != nil && !valid[i] {
			c.codes[i] = -1
			continue
		}
		code, ok := lookup[v]
		if !ok {
			code = int32(len(c.levels))
			lookup[v] = code
			c.levels = append(c.levels, v)
		}
		c.codes[i] = code
		c.valid[i] = true
	}
	return c
}

// NewTemporal builds a temporal column.
func NewTemporal(name string, values []time.Time, valid []bool) *Column {
	c := &Column{name: name, kind: KindTemporal, times: make([]time.Time, len(values)), valid: make([]bool, len(values))}
	for i, v := range values {
		if valid != nil && !valid[i] {
			continue
		}
		c.times[i] = v
		c.valid[i] = true
	}
	return c
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the semantic kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of rows.
func (c *Column) Len() int { return len(c.valid) }

// IsNull reports whether row i is missing.
func (c *Column) IsNull(i int) bool { return !c.valid[i] }

// NullCount returns the number of missing values.
func (c *Column) NullCount() int {
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// Float returns the numeric value at row i. Callers check IsNull first.
func (c *Column) Float(i int) float64 { return c.nums[i] }

// Time returns the temporal value at row i.
func (c *Column) Time(i int) time.Time { return c.times[i] }

// Raw returns the text value of a raw column at row i.
func (c *Column) Raw(i int) string { return c.raw[i] }

// Level returns the categorical label at row i, or "" for null.
func (c *Column) Level(i int) string {
	if c.codes[i] < 0 {
		return ""
	}
	return c.levels[c.codes[i]]
}

// Levels returns a copy of the categorical dictionary.
func (c *Column) Levels() []string {
	out := make([]string, len(c.levels))
	copy(out, c.levels)
	return out
}

// Floats returns the non-null numeric values in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.nums))
	for i, v := range c.nums {
		if c.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// Text renders row i as text regardless of kind; nulls render as "".
func (c *Column) Text(i int) string {
	if !c.valid[i] {
		return ""
	}
	switch c.kind {
	case KindNumeric:
		return strconv.FormatFloat(c.nums[i], 'f', -1, 64)
	case KindCategorical:
		return c.levels[c.codes[i]]
	case KindTemporal:
		return c.times[i].Format(DateLayout)
	default:
		return c.raw[i]
	}
}

// Key returns a comparable value identifying row i for equality grouping.
// Nulls return nil.
func (c *Column) Key(i int) any {
	if !c.valid[i] {
		return nil
	}
	switch c.kind {
	case KindNumeric:
		return c.nums[i]
	case KindCategorical:
		return c.codes[i]
	case KindTemporal:
		return c.times[i].UnixNano()
	default:
		return c.raw[i]
	}
}

// Take returns a new column whose row j holds the value at source row idx[j].
// An index of -1 yields a null. The categorical dictionary is shared since it
// is never modified.
func (c *Column) Take(idx []int) *Column {
	out := &Column{name: c.name, kind: c.kind, valid: make([]bool, len(idx)), levels: c.levels}
	switch c.kind {
	case KindNumeric:
		out.nums = make([]float64, len(idx))
	case KindCategorical:
		out.codes = make([]int32, len(idx))
	case KindTemporal:
		out.times = make([]time.Time, len(idx))
	default:
		out.raw = make([]string, len(idx))
	}
	for j, src := range idx {
		if src < 0 || !c.valid[src] {
			if out.codes != nil {
				out.codes[j] = -1
			}
			continue
		}
		out.valid[j] = true
		switch c.kind {
		case KindNumeric:
			out.nums[j] = c.nums[src]
		case KindCategorical:
			out.codes[j] = c.codes[src]
		case KindTemporal:
			out.times[j] = c.times[src]
		default:
			out.raw[j] = c.raw[src]
		}
	}
	return out
}

// MapFloat applies fn to every non-null value of a numeric column and returns
// the resulting column. The first error aborts the whole mapping.
func (c *Column) MapFloat(fn func(row int, v float64) (float64, error)) (*Column, error) {
	if c.kind != KindNumeric {
		return nil, KindMismatch(c.name, KindNumeric, c.kind)
	}
	out := make([]float64, len(c.nums))
	for i, v := range c.nums {
		if !c.valid[i] {
			continue
		}
		mapped, err := fn(i, v)
		if err != nil {
			return nil, err
		}
		out[i] = mapped
	}
	return NewNumeric(c.name, out, c.valid), nil
}
