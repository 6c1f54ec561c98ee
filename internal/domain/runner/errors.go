package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConverged is the recoverable outcome of a positive gesvd status.
	ErrNotConverged = errors.New("decomposition did not converge")
	// ErrInvalidArgument is the fatal outcome of a negative gesvd status.
	// It means the call itself was malformed and is never retried.
	ErrInvalidArgument = errors.New("decomposition rejected an argument")
)

// ConvergenceFailure records a positive status: Status superdiagonals of the
// intermediate bidiagonal form did not converge to zero.
type ConvergenceFailure struct {
	Status  int
	Attempt int
}

func (e *ConvergenceFailure) Error() string {
	return fmt.Sprintf("attempt %d: gesvd returned %d: %v", e.Attempt, e.Status, ErrNotConverged)
}

func (e *ConvergenceFailure) Unwrap() error { return ErrNotConverged }

// InvalidArgumentError records a negative status: argument -Status was illegal.
type InvalidArgumentError struct {
	Status int
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("gesvd returned %d (argument %d is illegal): %v", e.Status, -e.Status, ErrInvalidArgument)
}

func (e *InvalidArgumentError) Unwrap() error { return ErrInvalidArgument }

// classify turns a gesvd status into nil, a *ConvergenceFailure or an
// *InvalidArgumentError.
func classify(status, attempt int) error {
	switch {
	case status == 0:
		return nil
	case status > 0:
		return &ConvergenceFailure{Status: status, Attempt: attempt}
	default:
		return &InvalidArgumentError{Status: status}
	}
}

// Recoverable reports whether err is worth another generation attempt.
func Recoverable(err error) bool {
	return errors.Is(err, ErrNotConverged)
}
