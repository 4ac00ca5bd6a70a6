package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicySucceedsOnSecondAttempt(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls != 2 {
		t.Fatalf("call count: want=2 got=%d", calls)
	}
}

func TestRetryPolicyExhaustionSurfacesLastError(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	boom := errors.New("llm unavailable")
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return boom
	})
	if err == nil {
		t.Fatalf("Execute: expected error after exhaustion")
	}
	if calls != 3 {
		t.Fatalf("call count: want=3 got=%d", calls)
	}

	var exhausted *RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error type: want=RetryExhaustedError got=%T", err)
	}
	if exhausted.Attempts != 3 {
		t.Fatalf("attempts: want=3 got=%d", exhausted.Attempts)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("unwrap: underlying error not surfaced")
	}
}

func TestRetryPolicyStopsOnCancelledContext(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Delay: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := policy.Execute(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error: want=context.Canceled got=%v", err)
	}
	if calls != 1 {
		t.Fatalf("call count: want=1 got=%d", calls)
	}
}

func TestRetryPolicyZeroAttemptsStillRunsOnce(t *testing.T) {
	policy := RetryPolicy{}

	calls := 0
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls != 1 {
		t.Fatalf("call count: want=1 got=%d", calls)
	}
}
