package services

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy reruns an operation a fixed number of times with a fixed wait
// between attempts. No backoff, no jitter: exhaustion is terminal for the
// enclosing unit of work rather than an escalation trigger.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy covers every remote call in the pipeline: parse,
// extract, redact, critic and branch invocations.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: time.Second}
}

// RetryExhaustedError carries the last underlying error once all attempts
// have been spent.
type RetryExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.LastErr
}

// Execute runs fn until it succeeds or the attempt ceiling is hit. Every
// error is retried; validation belongs before the call, not inside it.
func (p RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}

	return &RetryExhaustedError{Attempts: attempts, LastErr: lastErr}
}
