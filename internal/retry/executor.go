package retry

import (
	"context"
	"time"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// Executor runs an operation, retrying transient failures with backoff.
//
// WithOnRetry returns a new instance, so one Executor can be shared and
// specialised per caller.
type Executor struct {
	classifier bcpstage.ErrorClassifier
	strategy   bcpstage.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a new retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier bcpstage.ErrorClassifier, strategy bcpstage.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of e that calls callback before every retry.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs operation until it succeeds, fails fatally, or attempts run out.
// The error of the last attempt is returned.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	lastErr := operation(ctx)
	if lastErr == nil || !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	maxAttempts := e.strategy.MaxAttempts()
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		lastErr = operation(ctx)
		if lastErr == nil || !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
