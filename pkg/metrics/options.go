// Package metrics provides Prometheus metrics for the loan cleaning pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace overrides the "loanpipe" metric prefix.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem overrides the "cleaning" subsystem.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithDurationBuckets sets the stage duration buckets in milliseconds.
func WithDurationBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithMetricsEnabled turns recording on or off. A disabled manager still
// registers its collectors so textfile output keeps a stable shape.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithSourceTable labels every series with the table the snapshot came from.
func WithSourceTable(table string) Option {
	return func(m *Manager) {
		if table == "" {
			return
		}
		labels := make(map[string]string, len(m.constLabels)+1)
		for k, v := range m.constLabels {
			labels[k] = v
		}
		labels["source"] = table
		m.constLabels = labels
	}
}

// WithPrometheusRegistry registers collectors on registry instead of a fresh one.
func WithPrometheusRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}
