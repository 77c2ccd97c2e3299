// Package service wires the loan pipeline: snapshot load, type
// normalization, profiling, cleaning, persistence and reporting.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/loanpipe/internal/adapters/repository"
	"github.com/okian/loanpipe/internal/domain/cleaning"
	"github.com/okian/loanpipe/internal/domain/profile"
	"github.com/okian/loanpipe/internal/domain/report"
	"github.com/okian/loanpipe/internal/domain/schema"
	"github.com/okian/loanpipe/internal/domain/table"
	"github.com/okian/loanpipe/pkg/logger"
	"github.com/okian/loanpipe/pkg/metrics"
)

// ErrNoInput is returned by Run when no input store was configured.
var ErrNoInput = errors.New("no input store configured")

// Run outcome labels.
const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// ProfileSummary is the profiler output of the typed input table.
type ProfileSummary struct {
	Rows      int
	Columns   int
	HighNull  []profile.NullCount
	Summaries []profile.Summary
}

// RunResult is everything one run produced.
type RunResult struct {
	RunID    string
	Profile  ProfileSummary
	Cleaning *cleaning.Result
	Report   *report.Report
}

// Service runs the pipeline end to end.
type Service struct {
	mu sync.Mutex

	// Storage
	input  repository.Store
	output repository.Store

	// Stages
	policy        cleaning.Policy
	dateLayouts   []string
	nullThreshold float64
	population    int

	// Observability
	metrics     *metrics.Manager
	metricsFile string
	logger      logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithInput sets the store the raw snapshot is loaded from.
func WithInput(store repository.Store) Option {
	return func(s *Service) {
		s.input = store
	}
}

// WithOutput sets the store the cleaned table is saved to.
func WithOutput(store repository.Store) Option {
	return func(s *Service) {
		s.output = store
	}
}

// WithPolicy replaces the default cleaning policy.
func WithPolicy(p cleaning.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithDateLayouts replaces the accepted source date layouts.
func WithDateLayouts(layouts ...string) Option {
	return func(s *Service) {
		if len(layouts) > 0 {
			s.dateLayouts = layouts
		}
	}
}

// WithNullThreshold sets the null fraction above which a column is reported.
func WithNullThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold >= 0 && threshold <= 1 {
			s.nullThreshold = threshold
		}
	}
}

// WithFixedPopulation freezes the report percentage denominator.
func WithFixedPopulation(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.population = n
		}
	}
}

// WithMetrics sets the metrics manager. Defaults to the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithMetricsFile enables the Prometheus textfile flush at the end of a run.
func WithMetricsFile(path string) Option {
	return func(s *Service) {
		s.metricsFile = path
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		policy:        cleaning.DefaultPolicy(),
		nullThreshold: 0.5,
		metrics:       metrics.Default(),
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one pipeline pass. Runs are serialized.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &RunResult{RunID: uuid.NewString()}
	log := s.logger.With(logger.String("run_id", res.RunID))
	start := time.Now()
	log.Info(ctx, "pipeline run started")

	err := s.run(ctx, log, res)

	status := statusSuccess
	if err != nil {
		status = statusFailure
		log.Error(ctx, "pipeline run failed", logger.Error(err), logger.Duration("elapsed", time.Since(start)))
	} else {
		log.Info(ctx, "pipeline run complete", logger.Duration("elapsed", time.Since(start)))
	}
	s.metrics.RecordRun(status, time.Now().Unix())
	if s.metricsFile != "" {
		if werr := s.metrics.WriteTextfile(s.metricsFile); werr != nil {
			log.Warn(ctx, "metrics textfile not written", logger.Error(werr))
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) run(ctx context.Context, log logger.Logger, res *RunResult) error {
	if s.input == nil {
		return ErrNoInput
	}
	raw, err := s.input.Load(ctx)
	if err != nil {
		return err
	}
	s.metrics.RecordRowsLoaded(raw.Len())

	normalizer := schema.NewNormalizer(schema.WithLogger(log), schema.WithDateLayouts(s.dateLayouts...))
	typed, err := normalizer.Normalize(ctx, raw)
	if err != nil {
		return err
	}

	res.Profile = s.profile(ctx, log, typed)

	pipeline := cleaning.NewPipeline(
		cleaning.WithLogger(log.Named("cleaning")),
		cleaning.WithPolicy(s.policy),
		cleaning.WithRecorder(s.metrics),
	)
	if res.Cleaning, err = pipeline.Run(ctx, typed); err != nil {
		return err
	}

	if s.output != nil {
		if err := s.output.Save(ctx, res.Cleaning.Final()); err != nil {
			return err
		}
	}

	reporter := report.NewReporter(report.WithFixedPopulation(s.population), report.WithLogger(log))
	if res.Report, err = reporter.Build(ctx, res.Cleaning.Imputed); err != nil {
		return err
	}
	s.recordReport(res.Report)
	return nil
}

func highNullNames(ncs []profile.NullCount) []string {
	names := make([]string, len(ncs))
	for i, nc := range ncs {
		names[i] = nc.Column
	}
	return names
}

func (s *Service) profile(ctx context.Context, log logger.Logger, t *table.Table) ProfileSummary {
	rows, cols := profile.Shape(t)
	ps := ProfileSummary{
		Rows:      rows,
		Columns:   cols,
		HighNull:  profile.NullReport(t, s.nullThreshold),
		Summaries: profile.DescribeTable(t),
	}
	for _, nc := range ps.HighNull {
		log.Warn(ctx, "column mostly null",
			logger.String("column", nc.Column),
			logger.Int("nulls", nc.Nulls),
			logger.Float64("fraction", nc.Fraction),
		)
	}
	log.Info(ctx, "input profiled",
		logger.Int("rows", rows),
		logger.Int("columns", cols),
		logger.Strings("high_null_columns", highNullNames(ps.HighNull)),
	)
	return ps
}

func (s *Service) recordReport(r *report.Report) {
	s.metrics.UpdateReportValue("recovery_rate_percent", r.Recovery.Percent)
	s.metrics.UpdateReportValue("charged_off_percent", r.ChargedOff.Percent)
	s.metrics.UpdateReportValue("charged_off_total_loss", r.Projected.TotalLoss.InexactFloat64())
	s.metrics.UpdateReportValue("late_percent", r.Late.Percent)
	s.metrics.UpdateReportValue("late_revenue_lost", r.Late.RevenueLost.InexactFloat64())
	s.metrics.UpdateReportValue("late_and_charged_off_loss", r.Late.GrandTotal.InexactFloat64())
}
