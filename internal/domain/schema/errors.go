package schema

import (
	"errors"
	"fmt"
)

// Sentinel kinds for normalization errors.
var (
	ErrFormat = errors.New("format error")
)

var errNotFinite = errors.New("value is not finite")

// FormatError reports a value that could not be parsed into its declared kind.
type FormatError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: column %q row %d: cannot parse %q: %v", ErrFormat, e.Column, e.Row, e.Value, e.Err)
}

func (e *FormatError) Unwrap() []error { return []error{ErrFormat, e.Err} }
