package repository

import "github.com/okian/loanpipe/pkg/logger"

// Option applies a configuration option to the CSVStore.
type Option func(*CSVStore)

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *CSVStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithComma sets the field delimiter. Defaults to ','.
func WithComma(r rune) Option {
	return func(s *CSVStore) {
		if r != 0 {
			s.comma = r
		}
	}
}

// WithDateLayout sets the layout temporal columns are written with. Defaults
// to the day/month/year layout of the source snapshot.
func WithDateLayout(layout string) Option {
	return func(s *CSVStore) {
		if layout != "" {
			s.dateLayout = layout
		}
	}
}
