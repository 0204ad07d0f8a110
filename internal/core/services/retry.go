package services

import (
	"context"
	"time"
)

// retryPolicy controls how transient adapter failures are retried
type retryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// defaultRetry makes three attempts, waiting 200ms then 400ms
var defaultRetry = retryPolicy{
	Attempts:  3,
	BaseDelay: 200 * time.Millisecond,
	MaxDelay:  2 * time.Second,
}

// retry calls fn until it succeeds, the attempts run out or ctx is done.
// The delay doubles after every failure.
func retry[T any](ctx context.Context, p retryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var (
		zero T
		err  error
	)
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.BaseDelay

	for i := 0; i < attempts; i++ {
		var v T
		v, err = fn(ctx)
		if err == nil {
			return v, nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return zero, err
}
