// Package retry wraps fallible multi-step stage closures in a bounded
// attempt budget.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
)

// DefaultAttempts is the stage retry budget.
const DefaultAttempts = 3

// delay is the pause between attempts. The remote service is the real rate
// limiter; this just avoids hammering it in a tight loop.
const delay = 100 * time.Millisecond

// ExhaustedError reports a stage whose retry budget ran out, wrapping the
// last underlying cause.
type ExhaustedError struct {
	Op       string
	Attempts int
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: retry budget exhausted after %d attempts: %v", e.Op, e.Attempts, e.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// Do invokes work up to attempts times, re-running the whole closure on each
// failure. Exhaustion yields an *ExhaustedError; context cancellation stops
// the loop early with the context's error. Attempts <= 0 means
// DefaultAttempts.
func Do(ctx context.Context, op string, attempts int, work func() error) error {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var last error
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			if err := work(); err != nil {
				last = err
				return err
			}
			return nil
		},
		NotifyFunc: func(err error, attempt int) {
			slog.Debug("stage attempt failed", "op", op, "attempt", attempt, "error", err)
		},
		Attempts: attempts,
		Delay:    delay,
		Clock:    clock.WallClock,
		Stop:     ctx.Done(),
	})

	switch {
	case err == nil:
		return nil
	case retry.IsAttemptsExceeded(err):
		return &ExhaustedError{Op: op, Attempts: attempts, Cause: last}
	case retry.IsRetryStopped(err):
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	default:
		return err
	}
}
