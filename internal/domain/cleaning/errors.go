package cleaning

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/okian/loanpipe/internal/domain/table"
)

// Sentinel error kinds for this package.
var (
	ErrDomain          = errors.New("domain error")
	ErrNothingToImpute = errors.New("no values to impute from")
	ErrUnknownStrategy = errors.New("unknown imputation strategy")
	ErrUnknownOp       = errors.New("unknown outlier operator")
)

// DomainError reports a value outside the valid input domain of a transform.
type DomainError struct {
	Column    string
	Row       int
	Value     float64
	Transform string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: column %q row %d: %s undefined for %s",
		ErrDomain, e.Column, e.Row, e.Transform, strconv.FormatFloat(e.Value, 'g', -1, 64))
}

func (e *DomainError) Unwrap() error { return ErrDomain }

// StageError wraps a failure with the pipeline stage that raised it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("cleaning stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// errorKind classifies err for metrics labels.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrDomain):
		return "domain"
	case errors.Is(err, table.ErrSchema):
		return "schema"
	case errors.Is(err, ErrNothingToImpute):
		return "empty_column"
	case errors.Is(err, ErrUnknownStrategy), errors.Is(err, ErrUnknownOp):
		return "config"
	default:
		return "unknown"
	}
}
