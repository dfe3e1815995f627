package blsct

import "github.com/pkg/errors"

var (
	// ErrInvalidInput rejects malformed arguments before any work is done.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConsistency means a freshly built artifact failed its own check.
	ErrConsistency = errors.New("consistency check failed")
	// ErrInsufficientFunds is returned when the inputs cannot cover the
	// requested amounts and fees.
	ErrInsufficientFunds = errors.New("not enough balance")
)

func invalidInput(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}
