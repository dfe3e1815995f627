package bulletproofs

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// retry runs f until it succeeds, fails with a non-retryable error or
// maxAttempts runs have failed. Panics inside f count as retryable failures.
// Only failures that depend on state outside f's inputs can clear on a rerun;
// for deterministic f the bound just turns a repeating failure into
// ErrRetryExhausted.
func retry[T any](maxAttempts int, logger *zap.Logger, f func() (T, error)) (T, error) {
	var zero T
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := attemptOnce(f)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, errRetry) {
			return zero, err
		}
		last = err
		logger.Debug("range proof attempt failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	logger.Error("range proof retries exhausted", zap.Int("attempts", maxAttempts), zap.Error(last))
	return zero, errors.Wrapf(ErrRetryExhausted, "after %d attempts: %v", maxAttempts, last)
}

func attemptOnce[T any](f func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrap(errRetry, fmt.Sprint("panic: ", r))
		}
	}()
	return f()
}
