package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimeoutError reports an operation that was still running when its limit
// expired. It matches context.DeadlineExceeded under errors.Is.
type TimeoutError struct {
	Op    string
	Limit time.Duration
	// Cause is what the operation returned after observing the deadline.
	Cause error
}

func (e *TimeoutError) Error() string {
	if e.Cause == nil || errors.Is(e.Cause, context.DeadlineExceeded) {
		return fmt.Sprintf("%s: exceeded %v", e.Op, e.Limit)
	}
	return fmt.Sprintf("%s: exceeded %v: %v", e.Op, e.Limit, e.Cause)
}

func (e *TimeoutError) Unwrap() []error {
	if e.Cause == nil {
		return []error{context.DeadlineExceeded}
	}
	return []error{context.DeadlineExceeded, e.Cause}
}

// WithTimeout runs fn under a deadline of limit and waits for it to return,
// so no work outlives the call. fn must honour ctx. A failure that happens
// after the deadline fired is reported as *TimeoutError; cancellation of
// the parent ctx is passed through unchanged. A limit <= 0 disables the
// deadline.
func WithTimeout(ctx context.Context, limit time.Duration, op string, fn func(ctx context.Context) error) error {
	if limit <= 0 {
		return fn(ctx)
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	err := fn(deadlineCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	if errors.Is(deadlineCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Limit: limit, Cause: err}
	}
	return err
}
