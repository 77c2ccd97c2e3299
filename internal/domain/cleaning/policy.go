package cleaning

import (
	"fmt"
	"strconv"

	"github.com/okian/loanpipe/internal/domain/table"
)

// Strategy selects how an imputation fills missing values.
type Strategy string

// Imputation strategies.
const (
	StrategyMean        Strategy = "mean"
	StrategyMedian      Strategy = "median"
	StrategyForwardFill Strategy = "ffill"
	StrategyMode        Strategy = "mode"
)

// Imputation binds a column to a fill strategy.
type Imputation struct {
	Column   string
	Strategy Strategy
}

// Op is the comparison applied by an outlier rule.
type Op int

// Outlier rule operators.
const (
	OpLTE     Op = iota // value <= Bound
	OpGTE               // value >= Bound
	OpEQ                // value == Bound
	OpBetween           // Bound <= value <= Upper
)

// Rule is a single outlier predicate on one numeric column. A row passes
// when its value is present and satisfies the comparison.
type Rule struct {
	Column string
	Op     Op
	Bound  float64
	Upper  float64
}

// Conditions expands the rule into table conditions that must all hold.
func (r Rule) Conditions() ([]table.Condition, error) {
	switch r.Op {
	case OpLTE:
		return []table.Condition{{Column: r.Column, Cmp: table.AtMost, Value: r.Bound}}, nil
	case OpGTE:
		return []table.Condition{{Column: r.Column, Cmp: table.AtLeast, Value: r.Bound}}, nil
	case OpEQ:
		return []table.Condition{{Column: r.Column, Cmp: table.Equal, Value: r.Bound}}, nil
	case OpBetween:
		return []table.Condition{
			{Column: r.Column, Cmp: table.AtLeast, Value: r.Bound},
			{Column: r.Column, Cmp: table.AtMost, Value: r.Upper},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %d on column %q", ErrUnknownOp, int(r.Op), r.Column)
	}
}

func (r Rule) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	switch r.Op {
	case OpLTE:
		return fmt.Sprintf("%s <= %s", r.Column, f(r.Bound))
	case OpGTE:
		return fmt.Sprintf("%s >= %s", r.Column, f(r.Bound))
	case OpEQ:
		return fmt.Sprintf("%s == %s", r.Column, f(r.Bound))
	case OpBetween:
		return fmt.Sprintf("%s <= %s <= %s", f(r.Bound), r.Column, f(r.Upper))
	default:
		return r.Column + " ?"
	}
}

// Policy is the static column configuration of the five cleaning stages.
type Policy struct {
	DropColumns  []string
	Imputations  []Imputation
	LogColumns   []string
	SqrtColumns  []string
	OutlierRules []Rule
	PruneColumns []string
}

// DefaultPolicy returns the loan payments cleaning policy. The lists were
// fixed after profiling the source table: dropped columns were 57-89% null,
// the annual_inc bounds apply to log-transformed values, and pruned columns
// are near-collinear with loan_amount or out_prncp.
func DefaultPolicy() Policy {
	return Policy{
		DropColumns: []string{
			"mths_since_last_delinq",
			"mths_since_last_record",
			"next_payment_date",
			"mths_since_last_major_derog",
		},
		Imputations: []Imputation{
			{Column: "funded_amount", Strategy: StrategyMean},
			{Column: "int_rate", Strategy: StrategyMean},
			{Column: "collections_12_mths_ex_med", Strategy: StrategyMedian},
			{Column: "last_payment_date", Strategy: StrategyForwardFill},
			{Column: "last_credit_pull_date", Strategy: StrategyForwardFill},
			{Column: "term", Strategy: StrategyMode},
			{Column: "employment_length", Strategy: StrategyMode},
		},
		LogColumns: []string{
			"annual_inc",
			"out_prncp",
			"out_prncp_inv",
			"total_rec_late_fee",
			"recoveries",
			"collection_recovery_fee",
			"last_payment_amount",
		},
		SqrtColumns: []string{
			"delinq_2yrs",
			"inq_last_6mths",
			"total_rec_int",
		},
		OutlierRules: []Rule{
			{Column: "instalment", Op: OpLTE, Bound: 1000},
			{Column: "annual_inc", Op: OpBetween, Bound: 9.70, Upper: 12.35},
			{Column: "delinq_2yrs", Op: OpEQ, Bound: 0},
			{Column: "inq_last_6mths", Op: OpLTE, Bound: 2.5},
			{Column: "open_accounts", Op: OpLTE, Bound: 22},
			{Column: "total_accounts", Op: OpLTE, Bound: 53.5},
			{Column: "total_payment", Op: OpLTE, Bound: 31850},
			{Column: "total_payment_inv", Op: OpLTE, Bound: 31500},
			{Column: "total_rec_prncp", Op: OpLTE, Bound: 24870},
			{Column: "total_rec_int", Op: OpLTE, Bound: 100},
			{Column: "total_rec_late_fee", Op: OpEQ, Bound: 0},
			{Column: "recoveries", Op: OpEQ, Bound: 0},
			{Column: "collection_recovery_fee", Op: OpEQ, Bound: 0},
			{Column: "last_payment_amount", Op: OpGTE, Bound: 1.8},
		},
		PruneColumns: []string{
			"funded_amount_inv",
			"instalment",
			"total_payment",
			"total_payment_inv",
			"total_rec_int",
			"out_prncp_inv",
		},
	}
}
