package table

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrSchema = errors.New("schema error")
)

// SchemaError reports a column that is absent, duplicated or of the wrong kind.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: column %q: %s", ErrSchema, e.Column, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// MissingColumn builds the SchemaError returned for an unknown column name.
func MissingColumn(name string) error {
	return &SchemaError{Column: name, Reason: "not found"}
}

// KindMismatch builds the SchemaError returned when a column has an unexpected kind.
func KindMismatch(name string, want, got Kind) error {
	return &SchemaError{Column: name, Reason: fmt.Sprintf("expected %s column, got %s", want, got)}
}
