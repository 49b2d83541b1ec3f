package services

import (
	"context"
	"newsdigest/internal/types"
	"time"
)

// RetryPolicy retries transient fetch failures. Backoff[i] is the wait before
// attempt i+2; the last entry is reused when there are more attempts than entries.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     []time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	Backoff:     []time.Duration{500 * time.Millisecond, time.Second},
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	if attempt-1 < len(p.Backoff) {
		return p.Backoff[attempt-1]
	}
	return p.Backoff[len(p.Backoff)-1]
}

// Do runs fn until it succeeds, returns a non-retryable error, or attempts run out.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)

	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil || !types.IsRetryable(err) || attempt >= attempts {
			return err
		}

		wait := p.delay(attempt)
		if wait <= 0 {
			if ctx.Err() != nil {
				return err
			}
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
