package tensor

import (
	"errors"
	"fmt"
)

// ErrPrecondition is the root of every setup-time input error. Callers must
// correct their inputs; these are never retried.
var ErrPrecondition = errors.New("precondition violation")

// Shape errors.
var (
	ErrInvalidShape      = fmt.Errorf("%w: invalid shape", ErrPrecondition)
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", ErrPrecondition)
)
