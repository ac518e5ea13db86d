package browser

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultPollInterval is the pause between two predicate evaluations
const DefaultPollInterval = 100 * time.Millisecond

// Predicate is evaluated against the live page until it reports true
type Predicate func(ctx context.Context) (bool, error)

// Spin evaluates predicate until it returns true or timeout elapses.
// The predicate always runs at least once, then at a fixed interval, and once
// more when the deadline falls between two ticks. A predicate error is
// treated as "not yet"; the last one is reported with ErrTimeout.
func Spin(ctx context.Context, timeout, interval time.Duration, predicate Predicate) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	limiter.Allow() // drain the initial burst so the second evaluation waits a full interval

	var lastErr error
	evaluate := func() bool {
		ok, err := predicate(ctx)
		if err != nil {
			lastErr = err
		}
		return err == nil && ok
	}

	for {
		if evaluate() {
			return nil
		}
		if waitCtx.Err() != nil {
			break
		}

		reservation := limiter.Reserve()
		timer := time.NewTimer(reservation.Delay())
		select {
		case <-timer.C:
			continue
		case <-waitCtx.Done():
		}
		timer.Stop()
		reservation.Cancel()

		if err := ctx.Err(); err != nil {
			return err
		}
		// Deadline reached between two ticks
		if evaluate() {
			return nil
		}
		break
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if lastErr != nil {
		return fmt.Errorf("%w after %s: %v", ErrTimeout, timeout, lastErr)
	}
	return fmt.Errorf("%w after %s", ErrTimeout, timeout)
}

// WaitVisible waits until sel matches and its first match is displayed
func WaitVisible(ctx context.Context, s Session, sel Selector, timeout, interval time.Duration) error {
	return Spin(ctx, timeout, interval, func(ctx context.Context) (bool, error) {
		el, err := s.Find(ctx, sel)
		if err != nil || el == nil {
			return false, err
		}
		return el.Visible(ctx)
	})
}

// WaitInvisible waits until sel matches nothing or its first match is hidden
func WaitInvisible(ctx context.Context, s Session, sel Selector, timeout, interval time.Duration) error {
	return Spin(ctx, timeout, interval, func(ctx context.Context) (bool, error) {
		el, err := s.Find(ctx, sel)
		if err != nil {
			return false, err
		}
		if el == nil {
			return true, nil
		}
		visible, err := el.Visible(ctx)
		return !visible, err
	})
}

// Sleep pauses for d unless ctx ends first
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
