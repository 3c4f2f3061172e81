package execute

import "github.com/pkg/errors"

// ErrDivisionByZero is arithmetic over a zero divisor. The statement fails;
// it is never silently coerced to zero.
var ErrDivisionByZero = errors.New("division by zero")

// ErrTimeout is an evaluation that exceeded its deadline.
var ErrTimeout = errors.New("evaluation timed out")

// ErrProvider wraps data provider failures.
var ErrProvider = errors.New("provider failure")
