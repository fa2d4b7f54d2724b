// Package poll provides bounded polling with a fixed interval and a fixed
// attempt ceiling. Every wait in the interaction pipeline goes through it
// so timing policy lives in one place and tests can swap the clock.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned by Until when the predicate never held.
var ErrExhausted = errors.New("poll: attempts exhausted")

// Sleeper pauses the caller. Implementations must return early with the
// context's error when ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// RealSleeper sleeps on the wall clock.
var RealSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
})

// Predicate is evaluated once per attempt. A non-nil error aborts polling
// immediately and is returned as-is.
type Predicate func(ctx context.Context) (bool, error)

// Until evaluates pred up to maxAttempts times, sleeping interval between
// attempts (never after the last one). It returns nil as soon as pred
// holds and ErrExhausted when every attempt came back false.
func Until(ctx context.Context, s Sleeper, interval time.Duration, maxAttempts int, pred Predicate) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	for attempt := 1; ; attempt++ {
		ok, err := pred(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if attempt >= maxAttempts {
			return ErrExhausted
		}
		if err := s.Sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// Attempts converts a timeout into an attempt count for the given interval,
// rounding up so the total wait is never shorter than timeout.
func Attempts(timeout, interval time.Duration) int {
	if interval <= 0 || timeout <= 0 {
		return 1
	}
	n := int(timeout / interval)
	if timeout%interval != 0 {
		n++
	}
	return n + 1
}
