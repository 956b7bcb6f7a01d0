// Package wait polls for UI conditions and retries actions with recovery
// steps, on top of cenkalti/backoff.
package wait

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/logger"
)

// DefaultInterval is used when a Policy has no interval.
const DefaultInterval = 100 * time.Millisecond

// Policy bounds a wait.
type Policy struct {
	Interval time.Duration
	Timeout  time.Duration
}

// TimeoutError is returned by Until when the condition never held.
type TimeoutError struct {
	Timeout  time.Duration
	Attempts int
	Last     error
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("condition not met within %s after %d attempts", e.Timeout, e.Attempts)
	}
	return fmt.Sprintf("condition not met within %s after %d attempts: %v", e.Timeout, e.Attempts, e.Last)
}

// Unwrap returns the last check error.
func (e *TimeoutError) Unwrap() error {
	return e.Last
}

// ErrorCategory classifies every timeout as core.ErrCategoryTimeout.
func (e *TimeoutError) ErrorCategory() core.ErrorCategory {
	return core.ErrCategoryTimeout
}

// Is lets TimeoutError match core.ErrWaitTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == error(core.ErrWaitTimeout)
}

type fatalError struct {
	err error
}

func (f *fatalError) Error() string { return f.err.Error() }
func (f *fatalError) Unwrap() error { return f.err }

// Fatal marks err so that Until stops polling and returns it immediately.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

func asFatal(err error) (error, bool) {
	var f *fatalError
	if errors.As(err, &f) {
		return f.err, true
	}
	return nil, false
}

// deadlineBackOff waits interval between polls but never past the deadline,
// so the last poll happens at the deadline itself.
type deadlineBackOff struct {
	interval time.Duration
	deadline time.Time
	halted   atomic.Bool
}

func (b *deadlineBackOff) NextBackOff() time.Duration {
	if b.halted.Load() {
		return backoff.Stop
	}
	remaining := time.Until(b.deadline)
	if remaining <= 0 {
		return backoff.Stop
	}
	if b.interval < remaining {
		return b.interval
	}
	return remaining
}

func (b *deadlineBackOff) Reset() {}

// haltable stops the wrapped policy once halt is called.
type haltable struct {
	backoff.BackOff
	halted atomic.Bool
}

func (h *haltable) NextBackOff() time.Duration {
	if h.halted.Load() {
		return backoff.Stop
	}
	return h.BackOff.NextBackOff()
}

// Until polls check every p.Interval until it returns a nil error or
// p.Timeout elapses. A check error wrapped with Fatal ends the wait at once.
func Until[T any](ctx context.Context, p Policy, check func() (T, error)) (T, error) {
	var (
		zero     T
		result   T
		last     error
		attempts int
	)

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	policy := &deadlineBackOff{interval: interval, deadline: time.Now().Add(p.Timeout)}

	operation := func() error {
		attempts++
		v, err := check()
		if err != nil {
			last = err
			if _, fatal := asFatal(err); fatal {
				policy.halted.Store(true)
			}
			return err
		}
		result = v
		return nil
	}
	notify := func(err error, next time.Duration) {
		logger.Debug("wait: attempt %d failed, retrying in %s: %v", attempts, next, err)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err == nil {
		return result, nil
	}

	if err, fatal := asFatal(last); fatal {
		return zero, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, fmt.Errorf("wait aborted after %d attempts: %w", attempts, ctxErr)
	}
	return zero, &TimeoutError{Timeout: p.Timeout, Attempts: attempts, Last: last}
}

// RetryPolicy bounds RetryWithAction.
type RetryPolicy struct {
	// MaxAttempts is the number of guarded attempts before the final one.
	MaxAttempts int
	// Pause is the delay between guarded attempts.
	Pause time.Duration
}

// RetryWithAction runs action up to p.MaxAttempts times, running recovery
// before every attempt after the first. Failures of guarded attempts are
// swallowed. Once the budget is spent it runs recovery once more and makes a
// final unguarded attempt whose result and error are returned as is.
// A recovery error aborts immediately.
func RetryWithAction[T any](ctx context.Context, p RetryPolicy, action func() (T, error), recovery func() error) (T, error) {
	var (
		zero     T
		result   T
		attempts int
		recErr   error
	)

	runRecovery := func() error {
		if recovery == nil {
			return nil
		}
		if err := recovery(); err != nil {
			return fmt.Errorf("recovery action failed: %w", err)
		}
		return nil
	}

	if p.MaxAttempts > 0 {
		policy := &haltable{
			BackOff: backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Pause), uint64(p.MaxAttempts-1)),
		}
		operation := func() error {
			if attempts > 0 {
				if err := runRecovery(); err != nil {
					recErr = err
					policy.halted.Store(true)
					return err
				}
			}
			attempts++
			v, err := action()
			if err != nil {
				return err
			}
			result = v
			return nil
		}
		notify := func(err error, next time.Duration) {
			logger.Debug("retry: attempt %d/%d failed: %v", attempts, p.MaxAttempts, err)
		}

		if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err == nil {
			return result, nil
		}
		if recErr != nil {
			return zero, recErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, fmt.Errorf("retry aborted after %d attempts: %w", attempts, ctxErr)
		}
	}

	if p.MaxAttempts > 0 {
		if err := runRecovery(); err != nil {
			return zero, err
		}
	}
	return action()
}
