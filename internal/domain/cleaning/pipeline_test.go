package cleaning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/loanpipe/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeRecorder struct {
	stages   []string
	filled   map[string]int
	filtered int
	dropped  map[string]int
	errors   []string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{filled: map[string]int{}, dropped: map[string]int{}}
}

func (f *fakeRecorder) RecordStage(stage string, _, _ int, _ float64) {
	f.stages = append(f.stages, stage)
}

func (f *fakeRecorder) RecordNullsFilled(column, _ string, n int) { f.filled[column] += n }
func (f *fakeRecorder) RecordRowsFiltered(n int)                  { f.filtered += n }
func (f *fakeRecorder) RecordColumnsDropped(stage string, n int)  { f.dropped[stage] += n }
func (f *fakeRecorder) RecordStageError(stage, kind string) {
	f.errors = append(f.errors, stage+":"+kind)
}

// loanFixture returns three loans carrying every column the default policy
// touches. Row 1 has a late fee and is removed by outlier filtering.
func loanFixture(overrides map[string][]float64) *table.Table {
	numeric := map[string][]float64{
		"id":                         {1, 2, 3},
		"loan_amount":                {5000, 8000, 6000},
		"funded_amount":              {5000, 8000, nan},
		"funded_amount_inv":          {5000, 7975, 6000},
		"int_rate":                   {7.5, nan, 10.5},
		"instalment":                 {150, 250, 200},
		"annual_inc":                 {50000, 62000, 48000},
		"delinq_2yrs":                {0, 0, 0},
		"inq_last_6mths":             {1, 0, 4},
		"mths_since_last_delinq":     {nan, 12, nan},
		"open_accounts":              {10, 8, 12},
		"total_accounts":             {20, 15, 30},
		"out_prncp":                  {0, 1200, 0},
		"out_prncp_inv":              {0, 1200, 0},
		"total_payment":              {5600, 7000, 6900},
		"total_payment_inv":          {5600, 6950, 6900},
		"total_rec_prncp":            {5000, 6000, 6000},
		"total_rec_int":              {600, 950, 900},
		"total_rec_late_fee":         {0, 0.01, 0},
		"recoveries":                 {0, 0, 0},
		"collection_recovery_fee":    {0, 0, 0},
		"last_payment_amount":        {170, 260, 210},
		"collections_12_mths_ex_med": {0, nan, 0},
	}
	for k, v := range overrides {
		numeric[k] = v
	}
	order := []string{
		"id", "loan_amount", "funded_amount", "funded_amount_inv", "int_rate",
		"instalment", "annual_inc", "delinq_2yrs", "inq_last_6mths",
		"mths_since_last_delinq", "open_accounts", "total_accounts", "out_prncp",
		"out_prncp_inv", "total_payment", "total_payment_inv", "total_rec_prncp",
		"total_rec_int", "total_rec_late_fee", "recoveries",
		"collection_recovery_fee", "last_payment_amount", "collections_12_mths_ex_med",
	}
	cols := make([]*table.Column, 0, len(order)+5)
	for _, name := range order {
		cols = append(cols, table.NewNumeric(name, numeric[name], nil))
	}
	d := func(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }
	cols = append(cols,
		table.NewCategorical("term", []string{"36 months", "", "60 months"}, []bool{true, false, true}),
		table.NewCategorical("employment_length", []string{"", "5 years", "5 years"}, []bool{false, true, true}),
		table.NewCategorical("loan_status", []string{"Fully Paid", "Current", "Charged Off"}, nil),
		table.NewTemporal("last_payment_date", []time.Time{d(2021, 1), {}, d(2021, 3)}, []bool{true, false, true}),
		table.NewTemporal("last_credit_pull_date", []time.Time{d(2022, 1), d(2022, 1), {}}, []bool{true, true, false}),
	)
	return mustTable(cols...)
}

func TestPipelineRun(t *testing.T) {
	Convey("Given a pipeline with the default policy", t, func() {
		ctx := context.Background()
		rec := newFakeRecorder()
		p := NewPipeline(WithRecorder(rec))

		Convey("When running it over a loan table", func() {
			in := loanFixture(nil)
			res, err := p.Run(ctx, in)

			Convey("Then every stage produces a table", func() {
				So(err, ShouldBeNil)
				So(res.Dropped, ShouldNotBeNil)
				So(res.Imputed, ShouldNotBeNil)
				So(res.Reduced, ShouldNotBeNil)
				So(res.Filtered, ShouldNotBeNil)
				So(res.Final(), ShouldEqual, res.Pruned)
				So(rec.stages, ShouldResemble, []string{
					StageDropColumns, StageImpute, StageReduceSkew, StageFilterOutliers, StagePruneCorrelated,
				})
			})

			Convey("Then only the present drop column is removed", func() {
				So(res.Dropped.Width(), ShouldEqual, in.Width()-1)
				So(res.Dropped.Has("mths_since_last_delinq"), ShouldBeFalse)
			})

			Convey("Then imputed columns are complete", func() {
				for _, name := range []string{"funded_amount", "int_rate", "collections_12_mths_ex_med", "term", "employment_length", "last_credit_pull_date"} {
					c, _ := res.Imputed.Column(name)
					So(c.NullCount(), ShouldEqual, 0)
				}
				funded, _ := res.Imputed.Column("funded_amount")
				So(funded.Float(2), ShouldEqual, 6500)
				lpd, _ := res.Imputed.Column("last_payment_date")
				So(lpd.Time(1), ShouldEqual, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
				So(rec.filled["funded_amount"], ShouldEqual, 1)
				So(rec.filled["term"], ShouldEqual, 1)
			})

			Convey("Then the late fee row is filtered out in order", func() {
				ids, _ := res.Filtered.Column("id")
				So(floatsOf(ids), ShouldResemble, []float64{1, 3})
				So(rec.filtered, ShouldEqual, 1)
			})

			Convey("Then pruning removes exactly six columns", func() {
				So(res.Pruned.Width(), ShouldEqual, res.Filtered.Width()-6)
				So(rec.dropped[StagePruneCorrelated], ShouldEqual, 6)
				So(res.Pruned.Has("total_payment"), ShouldBeFalse)
			})

			Convey("Then the input table is untouched", func() {
				So(in.Width(), ShouldEqual, loanFixture(nil).Width())
				So(cells(in), ShouldResemble, cells(loanFixture(nil)))
			})
		})

		Convey("When annual income holds a negative value", func() {
			_, err := p.Run(ctx, loanFixture(map[string][]float64{"annual_inc": {50000, -2, 48000}}))

			Convey("Then the skew stage fails with a domain error", func() {
				var se *StageError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Stage, ShouldEqual, StageReduceSkew)
				var de *DomainError
				So(errors.As(err, &de), ShouldBeTrue)
				So(de.Row, ShouldEqual, 1)
				So(rec.errors, ShouldResemble, []string{StageReduceSkew + ":domain"})
			})
		})

		Convey("When a pruned column is missing", func() {
			in := loanFixture(nil).Drop("out_prncp_inv")
			res, err := p.Run(ctx, in)

			Convey("Then the failure is reported by the first stage needing it", func() {
				So(res, ShouldBeNil)
				So(errors.Is(err, table.ErrSchema), ShouldBeTrue)
				var se *StageError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Stage, ShouldEqual, StageReduceSkew)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := p.Run(cctx, loanFixture(nil))

			Convey("Then no stage runs", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(rec.stages, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a custom policy", t, func() {
		policy := Policy{
			Imputations:  []Imputation{{Column: "x", Strategy: StrategyMedian}},
			OutlierRules: []Rule{{Column: "x", Op: OpGTE, Bound: 2}},
		}
		p := NewPipeline(WithPolicy(policy), WithRecorder(newFakeRecorder()))

		Convey("When running it", func() {
			res, err := p.Run(context.Background(), mustTable(table.NewNumeric("x", []float64{1, nan, 3}, nil)))

			Convey("Then only the configured work is done", func() {
				So(err, ShouldBeNil)
				So(p.Policy().Imputations, ShouldHaveLength, 1)
				x, _ := res.Final().Column("x")
				So(floatsOf(x), ShouldResemble, []float64{2, 3})
			})
		})
	})
}
