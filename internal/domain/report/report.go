// Package report computes business metrics over a cleaned loan table:
// recovery rate, charged-off summary, projected losses and the late-payment
// projection. Every metric is a read-only aggregation.
package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/loanpipe/internal/domain/model"
	"github.com/okian/loanpipe/internal/domain/table"
	"github.com/okian/loanpipe/pkg/logger"
	"github.com/shopspring/decimal"
)

// Column names read by the reporter.
const (
	ColTotalPayment      = "total_payment"
	ColFundedAmount      = "funded_amount"
	ColLoanStatus        = "loan_status"
	ColIssueDate         = "issue_date"
	ColLastPaymentDate   = "last_payment_date"
	ColTerm              = "term"
	ColIntRate           = "int_rate"
	ColLastPaymentAmount = "last_payment_amount"
)

// Sentinel errors.
var (
	ErrZeroFunding = errors.New("funded amount sums to zero")
	ErrTerm        = errors.New("invalid term")
	ErrNotFinite   = errors.New("amount is not finite")
)

// RecoveryRate compares what was paid back with what was funded.
type RecoveryRate struct {
	TotalPayment decimal.Decimal
	FundedAmount decimal.Decimal
	Percent      float64
}

// ChargedOff summarizes loans with the plain "Charged Off" status.
type ChargedOff struct {
	Count     int
	TotalPaid decimal.Decimal
	Percent   float64
}

// ProjectedLoss is the revenue charged-off loans would have produced had they
// run to term.
type ProjectedLoss struct {
	Loans         int
	Skipped       int
	InterestLoss  decimal.Decimal
	PrincipalLoss decimal.Decimal
	TotalLoss     decimal.Decimal
}

// LateProjection is the loss if every late loan were charged off.
type LateProjection struct {
	Count       int
	Percent     float64
	Skipped     int
	RevenueLost decimal.Decimal
	// GrandTotal adds the charged-off projected total loss.
	GrandTotal decimal.Decimal
}

// Report is the full set of metrics for one table.
type Report struct {
	Population int
	Recovery   RecoveryRate
	ChargedOff ChargedOff
	Projected  ProjectedLoss
	Late       LateProjection
}

// Option applies a configuration option to the Reporter.
type Option func(*Reporter)

// WithFixedPopulation makes percentages use n as denominator instead of the
// live row count. Values <= 0 are ignored.
func WithFixedPopulation(n int) Option {
	return func(r *Reporter) {
		if n > 0 {
			r.population = n
		}
	}
}

// WithLogger sets a custom logger for the reporter.
func WithLogger(l logger.Logger) Option {
	return func(r *Reporter) {
		if l != nil {
			r.logger = l
		}
	}
}

// Reporter computes Reports.
type Reporter struct {
	population int
	logger     logger.Logger
}

// NewReporter creates a reporter.
func NewReporter(opts ...Option) *Reporter {
	r := &Reporter{logger: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build computes every metric over t. t must hold the payment columns before
// skew reduction or pruning has touched them.
func (r *Reporter) Build(ctx context.Context, t *table.Table) (*Report, error) {
	cols, err := resolve(t)
	if err != nil {
		return nil, err
	}
	rep := &Report{Population: t.Len()}
	if r.population > 0 {
		rep.Population = r.population
	}

	if rep.Recovery, err = recovery(cols); err != nil {
		return nil, err
	}
	if rep.ChargedOff, err = chargedOff(cols, rep.Population); err != nil {
		return nil, err
	}
	if rep.Projected, err = projectedLoss(cols); err != nil {
		return nil, err
	}
	if rep.Late, err = lateProjection(cols, rep.Population); err != nil {
		return nil, err
	}
	rep.Late.GrandTotal = rep.Late.RevenueLost.Add(rep.Projected.TotalLoss)

	r.logger.Info(ctx, "report computed",
		logger.Int("population", rep.Population),
		logger.Float64("recovery_percent", rep.Recovery.Percent),
		logger.Int("charged_off", rep.ChargedOff.Count),
		logger.Int("late", rep.Late.Count),
		logger.Int("skipped", rep.Projected.Skipped+rep.Late.Skipped),
	)
	return rep, nil
}

type columns struct {
	totalPayment, funded, intRate, lastAmount *table.Column
	status, term                              *table.Column
	issue, lastDate                           *table.Column
	statuses                                  []model.LoanStatus
}

func resolve(t *table.Table) (*columns, error) {
	get := func(name string, kinds ...table.Kind) (*table.Column, error) {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		for _, k := range kinds {
			if c.Kind() == k {
				return c, nil
			}
		}
		return nil, table.KindMismatch(name, kinds[0], c.Kind())
	}
	var (
		c   columns
		err error
	)
	if c.totalPayment, err = get(ColTotalPayment, table.KindNumeric); err != nil {
		return nil, err
	}
	if c.funded, err = get(ColFundedAmount, table.KindNumeric); err != nil {
		return nil, err
	}
	if c.intRate, err = get(ColIntRate, table.KindNumeric); err != nil {
		return nil, err
	}
	if c.lastAmount, err = get(ColLastPaymentAmount, table.KindNumeric); err != nil {
		return nil, err
	}
	if c.status, err = get(ColLoanStatus, table.KindCategorical, table.KindRaw); err != nil {
		return nil, err
	}
	if c.term, err = get(ColTerm, table.KindCategorical, table.KindRaw); err != nil {
		return nil, err
	}
	if c.issue, err = get(ColIssueDate, table.KindTemporal); err != nil {
		return nil, err
	}
	if c.lastDate, err = get(ColLastPaymentDate, table.KindTemporal); err != nil {
		return nil, err
	}
	c.statuses = make([]model.LoanStatus, t.Len())
	for i := range c.statuses {
		c.statuses[i] = model.ParseLoanStatus(c.status.Text(i))
	}
	return &c, nil
}

// amount converts v to a decimal. NaN and infinities have no decimal form.
func amount(v float64, column string, row int) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, fmt.Errorf("%w: column %q row %d: %v", ErrNotFinite, column, row, v)
	}
	return decimal.NewFromFloat(v), nil
}

func sum(c *table.Column, include func(int) bool) (decimal.Decimal, error) {
	total := decimal.Zero
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) || (include != nil && !include(i)) {
			continue
		}
		d, err := amount(c.Float(i), c.Name(), i)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, nil
}

func percent(part decimal.Decimal, whole decimal.Decimal) float64 {
	return part.Div(whole).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

func recovery(c *columns) (RecoveryRate, error) {
	var (
		rr  RecoveryRate
		err error
	)
	if rr.TotalPayment, err = sum(c.totalPayment, nil); err != nil {
		return rr, err
	}
	if rr.FundedAmount, err = sum(c.funded, nil); err != nil {
		return rr, err
	}
	if rr.FundedAmount.IsZero() {
		return rr, ErrZeroFunding
	}
	rr.Percent = percent(rr.TotalPayment, rr.FundedAmount)
	return rr, nil
}

func share(n, population int) float64 {
	if population == 0 {
		return 0
	}
	return percent(decimal.NewFromInt(int64(n)), decimal.NewFromInt(int64(population)))
}

func chargedOff(c *columns, population int) (ChargedOff, error) {
	isCharged := func(i int) bool { return c.statuses[i].IsChargedOff() }
	paid, err := sum(c.totalPayment, isCharged)
	if err != nil {
		return ChargedOff{}, err
	}
	co := ChargedOff{TotalPaid: paid}
	for i := range c.statuses {
		if isCharged(i) {
			co.Count++
		}
	}
	co.Percent = share(co.Count, population)
	return co, nil
}

// monthsLeft returns the remaining term of row i, or ok=false when a needed
// value is missing.
func monthsLeft(c *columns, i int) (left int, ok bool, err error) {
	if c.issue.IsNull(i) || c.lastDate.IsNull(i) || c.term.IsNull(i) || c.lastAmount.IsNull(i) {
		return 0, false, nil
	}
	term, err := TermMonths(c.term.Text(i))
	if err != nil {
		return 0, false, err
	}
	return term - MonthsBetween(c.issue.Time(i), c.lastDate.Time(i)), true, nil
}

func projectedLoss(c *columns) (ProjectedLoss, error) {
	pl := ProjectedLoss{InterestLoss: decimal.Zero, PrincipalLoss: decimal.Zero}
	for i, s := range c.statuses {
		if !s.IsChargedOff() {
			continue
		}
		left, ok, err := monthsLeft(c, i)
		if err != nil {
			return pl, err
		}
		if !ok || c.intRate.IsNull(i) {
			pl.Skipped++
			continue
		}
		last := c.lastAmount.Float(i)
		interest, err := amount(last*math.Pow(1+c.intRate.Float(i)/100, float64(left)/12), ColIntRate, i)
		if err != nil {
			return pl, err
		}
		principal, err := amount(last, ColLastPaymentAmount, i)
		if err != nil {
			return pl, err
		}
		pl.Loans++
		pl.InterestLoss = pl.InterestLoss.Add(interest)
		pl.PrincipalLoss = pl.PrincipalLoss.Add(principal.Mul(decimal.NewFromInt(int64(left))))
	}
	pl.TotalLoss = pl.InterestLoss.Add(pl.PrincipalLoss)
	return pl, nil
}

func lateProjection(c *columns, population int) (LateProjection, error) {
	lp := LateProjection{RevenueLost: decimal.Zero}
	for i, s := range c.statuses {
		if !s.IsLate() {
			continue
		}
		lp.Count++
		left, ok, err := monthsLeft(c, i)
		if err != nil {
			return lp, err
		}
		if !ok {
			lp.Skipped++
			continue
		}
		last, err := amount(c.lastAmount.Float(i), ColLastPaymentAmount, i)
		if err != nil {
			return lp, err
		}
		lp.RevenueLost = lp.RevenueLost.Add(last.Mul(decimal.NewFromInt(int64(left))))
	}
	lp.Percent = share(lp.Count, population)
	return lp, nil
}

// TermMonths converts free text such as "36 months" to a month count by
// keeping only its digits.
func TermMonths(term string) (int, error) {
	var digits strings.Builder
	for _, r := range term {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, fmt.Errorf("%w: %q has no digits", ErrTerm, term)
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrTerm, term, err)
	}
	return n, nil
}

// MonthsBetween counts calendar months from one date to another, ignoring days.
func MonthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// Lines renders the report as fixed-label text lines.
func (r *Report) Lines(currency string) []string {
	money := func(d decimal.Decimal) string { return currency + d.StringFixed(2) }
	lines := []string{
		fmt.Sprintf("Recovery rate: %.2f%%", r.Recovery.Percent),
		fmt.Sprintf("Total recovered: %s of %s funded", money(r.Recovery.TotalPayment), money(r.Recovery.FundedAmount)),
		fmt.Sprintf("Charged off loans: %d (%.2f%% of %d)", r.ChargedOff.Count, r.ChargedOff.Percent, r.Population),
		fmt.Sprintf("Charged off amount paid: %s", money(r.ChargedOff.TotalPaid)),
		fmt.Sprintf("Projected interest loss: %s", money(r.Projected.InterestLoss)),
		fmt.Sprintf("Projected principal loss: %s", money(r.Projected.PrincipalLoss)),
		fmt.Sprintf("Projected total loss: %s", money(r.Projected.TotalLoss)),
		fmt.Sprintf("Late loans: %d (%.2f%% of %d)", r.Late.Count, r.Late.Percent, r.Population),
		fmt.Sprintf("Late projected loss: %s", money(r.Late.RevenueLost)),
		fmt.Sprintf("Late and charged off projected loss: %s", money(r.Late.GrandTotal)),
	}
	if skipped := r.Projected.Skipped + r.Late.Skipped; skipped > 0 {
		lines = append(lines, fmt.Sprintf("Rows skipped for missing values: %d", skipped))
	}
	return lines
}

// String renders the report one line per metric.
func (r *Report) String() string {
	return strings.Join(r.Lines(""), "\n")
}
