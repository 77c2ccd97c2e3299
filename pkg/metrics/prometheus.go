// Package metrics provides Prometheus metrics for the loan cleaning pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for a pipeline run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         *prometheus.Registry

	// Ingest
	rowsLoaded prometheus.Counter

	// Stage shape and timing
	stageRows     *prometheus.GaugeVec
	stageColumns  *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec

	// Cleaning effects
	nullsFilled    *prometheus.CounterVec
	rowsFiltered   prometheus.Counter
	columnsDropped *prometheus.CounterVec

	// Failures and runs
	stageErrors *prometheus.CounterVec
	runs        *prometheus.CounterVec
	lastRunUnix prometheus.Gauge

	// Business report values
	reportValues *prometheus.GaugeVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "loanpipe",
		subsystem:        "cleaning",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.rowsLoaded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_loaded_total",
		Help:        "Total number of rows read from the source snapshot",
		ConstLabels: labels,
	})

	m.stageRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_rows",
		Help:        "Rows in the table produced by each stage",
		ConstLabels: labels,
	}, []string{"stage"})

	m.stageColumns = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_columns",
		Help:        "Columns in the table produced by each stage",
		ConstLabels: labels,
	}, []string{"stage"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_duration_milliseconds",
		Help:        "Stage execution time in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"stage"})

	m.nullsFilled = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "nulls_filled_total",
		Help:        "Missing values replaced by imputation, by column and strategy",
		ConstLabels: labels,
	}, []string{"column", "strategy"})

	m.rowsFiltered = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_filtered_total",
		Help:        "Rows removed by outlier filtering",
		ConstLabels: labels,
	})

	m.columnsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "columns_dropped_total",
		Help:        "Columns removed, by stage",
		ConstLabels: labels,
	}, []string{"stage"})

	m.stageErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_errors_total",
		Help:        "Stage failures by stage and error kind",
		ConstLabels: labels,
	}, []string{"stage", "kind"})

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Pipeline runs by outcome",
		ConstLabels: labels,
	}, []string{"status"})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time of the last completed run",
		ConstLabels: labels,
	})

	m.reportValues = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "report_value",
		Help:        "Business metrics computed by the reporter",
		ConstLabels: labels,
	}, []string{"metric"})
}

// RecordRowsLoaded adds n rows to the loaded counter.
func (m *Manager) RecordRowsLoaded(n int) {
	if m.enabled {
		m.rowsLoaded.Add(float64(n))
	}
}

// RecordStage records the output shape and duration of a stage.
func (m *Manager) RecordStage(stage string, rows, cols int, durationMs float64) {
	if !m.enabled {
		return
	}
	m.stageRows.WithLabelValues(stage).Set(float64(rows))
	m.stageColumns.WithLabelValues(stage).Set(float64(cols))
	m.stageDuration.WithLabelValues(stage).Observe(durationMs)
}

// RecordNullsFilled adds n imputed values for a column and strategy.
func (m *Manager) RecordNullsFilled(column, strategy string, n int) {
	if m.enabled {
		m.nullsFilled.WithLabelValues(column, strategy).Add(float64(n))
	}
}

// RecordRowsFiltered adds n rows removed by outlier filtering.
func (m *Manager) RecordRowsFiltered(n int) {
	if m.enabled {
		m.rowsFiltered.Add(float64(n))
	}
}

// RecordColumnsDropped adds n columns removed by a stage.
func (m *Manager) RecordColumnsDropped(stage string, n int) {
	if m.enabled {
		m.columnsDropped.WithLabelValues(stage).Add(float64(n))
	}
}

// RecordStageError increments the error counter for a stage and kind.
func (m *Manager) RecordStageError(stage, kind string) {
	if m.enabled {
		m.stageErrors.WithLabelValues(stage, kind).Inc()
	}
}

// RecordRun increments the run counter for an outcome and stamps the run time.
func (m *Manager) RecordRun(status string, unixSeconds int64) {
	if !m.enabled {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.lastRunUnix.Set(float64(unixSeconds))
}

// UpdateReportValue sets a business metric gauge.
func (m *Manager) UpdateReportValue(metric string, value float64) {
	if m.enabled {
		m.reportValues.WithLabelValues(metric).Set(value)
	}
}

// Registry returns the registry the manager registers on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the registry in text exposition format to path, for
// the node exporter textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteTextfile, path, err)
	}
	return nil
}

// Default returns the global manager.
func Default() *Manager { return globalManager }
