// Package cleaning implements the five-stage loan table cleaning pipeline:
// column drop, imputation, skew reduction, outlier filtering and correlation
// pruning. Stages are pure functions over immutable tables.
package cleaning

import (
	"context"
	"time"

	"github.com/okian/loanpipe/internal/domain/table"
	"github.com/okian/loanpipe/pkg/logger"
	"github.com/okian/loanpipe/pkg/metrics"
)

// Recorder receives per-stage measurements.
type Recorder interface {
	RecordStage(stage string, rows, cols int, durationMs float64)
	RecordNullsFilled(column, strategy string, n int)
	RecordRowsFiltered(n int)
	RecordColumnsDropped(stage string, n int)
	RecordStageError(stage, kind string)
}

// Result holds the table produced by every stage, in order.
type Result struct {
	Dropped  *table.Table
	Imputed  *table.Table
	Reduced  *table.Table
	Filtered *table.Table
	Pruned   *table.Table
}

// Final returns the output of the last stage.
func (r *Result) Final() *table.Table { return r.Pruned }

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPolicy replaces the default cleaning policy.
func WithPolicy(policy Policy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithRecorder sets the metrics recorder. Defaults to the global metrics manager.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// Pipeline runs the cleaning stages in a fixed order.
type Pipeline struct {
	policy   Policy
	logger   logger.Logger
	recorder Recorder
}

// NewPipeline creates a pipeline using DefaultPolicy unless overridden.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		policy:   DefaultPolicy(),
		logger:   logger.Nop(),
		recorder: metrics.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Policy returns the policy the pipeline applies.
func (p *Pipeline) Policy() Policy { return p.policy }

type stage struct {
	name  string
	apply func(*table.Table) (*table.Table, error)
	out   **table.Table
}

// Run executes all stages over t. On failure the error is a *StageError and
// no intermediate tables are returned.
func (p *Pipeline) Run(ctx context.Context, t *table.Table) (*Result, error) {
	res := &Result{}
	stages := []stage{
		{StageDropColumns, func(in *table.Table) (*table.Table, error) {
			return DropColumns(in, p.policy.DropColumns), nil
		}, &res.Dropped},
		{StageImpute, p.impute(ctx), &res.Imputed},
		{StageReduceSkew, func(in *table.Table) (*table.Table, error) {
			return ReduceSkew(in, p.policy.LogColumns, p.policy.SqrtColumns)
		}, &res.Reduced},
		{StageFilterOutliers, func(in *table.Table) (*table.Table, error) {
			return FilterOutliers(in, p.policy.OutlierRules)
		}, &res.Filtered},
		{StagePruneCorrelated, func(in *table.Table) (*table.Table, error) {
			return PruneCorrelated(in, p.policy.PruneColumns)
		}, &res.Pruned},
	}

	cur := t
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, &StageError{Stage: s.name, Err: err}
		}
		inRows, inCols := cur.Shape()
		start := time.Now()
		out, err := s.apply(cur)
		if err != nil {
			p.recorder.RecordStageError(s.name, errorKind(err))
			p.logger.Error(ctx, "cleaning stage failed",
				logger.String("stage", s.name),
				logger.Error(err),
			)
			return nil, &StageError{Stage: s.name, Err: err}
		}
		elapsed := time.Since(start)
		outRows, outCols := out.Shape()
		p.recorder.RecordStage(s.name, outRows, outCols, float64(elapsed.Microseconds())/1000)
		if dropped := inCols - outCols; dropped > 0 {
			p.recorder.RecordColumnsDropped(s.name, dropped)
		}
		if removed := inRows - outRows; removed > 0 {
			p.recorder.RecordRowsFiltered(removed)
		}
		p.logger.Info(ctx, "cleaning stage complete",
			logger.String("stage", s.name),
			logger.Int("rows_in", inRows),
			logger.Int("rows_out", outRows),
			logger.Int("columns_in", inCols),
			logger.Int("columns_out", outCols),
			logger.Duration("elapsed", elapsed),
		)
		*s.out = out
		cur = out
	}
	return res, nil
}

// impute wraps Impute to record how many nulls each imputation filled.
func (p *Pipeline) impute(ctx context.Context) func(*table.Table) (*table.Table, error) {
	return func(in *table.Table) (*table.Table, error) {
		out, err := Impute(in, p.policy.Imputations)
		if err != nil {
			return nil, err
		}
		for _, imp := range p.policy.Imputations {
			before, _ := in.Column(imp.Column)
			after, _ := out.Column(imp.Column)
			filled := before.NullCount() - after.NullCount()
			if filled == 0 {
				continue
			}
			p.recorder.RecordNullsFilled(imp.Column, string(imp.Strategy), filled)
			p.logger.Debug(ctx, "imputed missing values",
				logger.String("column", imp.Column),
				logger.String("strategy", string(imp.Strategy)),
				logger.Int("filled", filled),
			)
		}
		return out, nil
	}
}
