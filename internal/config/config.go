// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and LOANPIPE_* env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// InputPath is the raw snapshot CSV read by the pipeline.
	InputPath string `koanf:"input_path"`

	// OutputPath receives the cleaned table. Empty disables persistence.
	OutputPath string `koanf:"output_path"`

	// MetricsFile receives the Prometheus textfile at the end of a run.
	// Empty disables the flush.
	MetricsFile string `koanf:"metrics_file"`

	// CurrencySymbol prefixes monetary values in the report.
	CurrencySymbol string `koanf:"currency_symbol"`

	// FixedPopulation is the frozen denominator of report percentages.
	// Zero uses the live row count.
	FixedPopulation int `koanf:"fixed_population"`

	// NullThreshold is the null fraction above which the profiler flags a column.
	NullThreshold float64 `koanf:"null_threshold"`

	// Source database used by the extract command.
	DBHost     string `koanf:"db_host"`
	DBPort     int    `koanf:"db_port"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name"`
	DBTable    string `koanf:"db_table"`
	DBSSLMode  string `koanf:"db_sslmode"`

	// CredentialsPath points at an RDS_* credentials YAML that overrides the
	// db_* connection fields.
	CredentialsPath string `koanf:"credentials_path"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		InputPath:       "loan_payments.csv",
		CurrencySymbol:  "£",
		FixedPopulation: 36408,
		NullThreshold:   0.5,
		DBPort:          5432,
		DBTable:         "loan_payments",
		DBSSLMode:       "require",
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if strings.TrimSpace(c.InputPath) == "" {
		return fmt.Errorf("%w: input_path must not be empty", ErrInvalidConfig)
	}
	if c.FixedPopulation < 0 {
		return fmt.Errorf("%w: fixed_population %d must not be negative", ErrInvalidConfig, c.FixedPopulation)
	}
	if c.NullThreshold < 0 || c.NullThreshold > 1 {
		return fmt.Errorf("%w: null_threshold %v outside [0, 1]", ErrInvalidConfig, c.NullThreshold)
	}
	if c.DBPort <= 0 || c.DBPort > 65535 {
		return fmt.Errorf("%w: db_port %d", ErrInvalidConfig, c.DBPort)
	}
	return nil
}
