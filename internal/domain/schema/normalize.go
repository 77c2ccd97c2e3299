package schema

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/loanpipe/internal/domain/table"
	"github.com/okian/loanpipe/pkg/logger"
)

// DateLayout is the day/month/year layout of the temporal source columns.
const DateLayout = "02/01/2006"

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithLogger sets a custom logger for the normalizer.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithDateLayouts replaces the accepted temporal layouts. They are tried in order.
func WithDateLayouts(layouts ...string) Option {
	return func(n *Normalizer) {
		if len(layouts) > 0 {
			n.layouts = layouts
		}
	}
}

// Normalizer tags categorical columns and parses temporal and numeric ones.
type Normalizer struct {
	categorical []string
	temporal    []string
	numeric     []string
	layouts     []string
	logger      logger.Logger
}

// NewNormalizer creates a normalizer for the loan payments column set.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		categorical: Categorical,
		temporal:    Temporal,
		numeric:     Numeric,
		layouts:     []string{DateLayout, "2/1/2006"},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns a table where categorical and temporal columns carry
// their declared kind and declared numeric columns present in t are parsed.
// The first malformed value aborts with a FormatError; t is never modified.
func (n *Normalizer) Normalize(ctx context.Context, t *table.Table) (*table.Table, error) {
	out := t
	for _, name := range n.categorical {
		col, err := out.Column(name)
		if err != nil {
			return nil, err
		}
		if out, err = out.With(toCategorical(col)); err != nil {
			return nil, err
		}
	}
	for _, name := range n.temporal {
		col, err := out.Column(name)
		if err != nil {
			return nil, err
		}
		parsed, err := n.toTemporal(col)
		if err != nil {
			return nil, err
		}
		if out, err = out.With(parsed); err != nil {
			return nil, err
		}
	}
	for _, name := range n.numeric {
		col, err := out.Column(name)
		if err != nil {
			continue
		}
		parsed, err := toNumeric(col)
		if err != nil {
			return nil, err
		}
		if out, err = out.With(parsed); err != nil {
			return nil, err
		}
	}
	if n.logger != nil {
		rows, cols := out.Shape()
		n.logger.Debug(ctx, "normalized column kinds",
			logger.Int("rows", rows),
			logger.Int("columns", cols),
			logger.Int("categorical", len(n.categorical)),
			logger.Int("temporal", len(n.temporal)),
		)
	}
	return out, nil
}

// Normalize is a convenience wrapper around a default Normalizer.
func Normalize(ctx context.Context, t *table.Table) (*table.Table, error) {
	return NewNormalizer().Normalize(ctx, t)
}

func toCategorical(col *table.Column) *table.Column {
	if col.Kind() == table.KindCategorical {
		return col
	}
	values := make([]string, col.Len())
	valid := make([]bool, col.Len())
	for i := range values {
		if col.IsNull(i) {
			continue
		}
		values[i] = col.Text(i)
		valid[i] = true
	}
	return table.NewCategorical(col.Name(), values, valid)
}

func (n *Normalizer) toTemporal(col *table.Column) (*table.Column, error) {
	if col.Kind() == table.KindTemporal {
		return col, nil
	}
	values := make([]time.Time, col.Len())
	valid := make([]bool, col.Len())
	for i := range values {
		if col.IsNull(i) {
			continue
		}
		text := strings.TrimSpace(col.Text(i))
		ts, err := n.parseDate(text)
		if err != nil {
			return nil, &FormatError{Column: col.Name(), Row: i, Value: text, Err: err}
		}
		values[i] = ts
		valid[i] = true
	}
	return table.NewTemporal(col.Name(), values, valid), nil
}

func (n *Normalizer) parseDate(text string) (time.Time, error) {
	var firstErr error
	for _, layout := range n.layouts {
		ts, err := time.Parse(layout, text)
		if err == nil {
			return ts, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func toNumeric(col *table.Column) (*table.Column, error) {
	if col.Kind() == table.KindNumeric {
		return col, nil
	}
	values := make([]float64, col.Len())
	valid := make([]bool, col.Len())
	for i := range values {
		if col.IsNull(i) {
			continue
		}
		text := strings.TrimSpace(col.Text(i))
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &FormatError{Column: col.Name(), Row: i, Value: text, Err: err}
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, &FormatError{Column: col.Name(), Row: i, Value: text, Err: errNotFinite}
		}
		values[i] = v
		valid[i] = true
	}
	return table.NewNumeric(col.Name(), values, valid), nil
}
