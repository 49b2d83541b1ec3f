package services

import (
	"context"
	"errors"
	"newsdigest/internal/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_Do(t *testing.T) {
	transient := &types.TransientFetchError{Category: "technology", Err: errors.New("503")}
	quota := &types.QuotaExceededError{Provider: "newsapi", Err: errors.New("429")}

	tests := []struct {
		name      string
		results   []error
		wantCalls int
		wantErr   error
	}{
		{
			name:      "succeeds first time",
			results:   []error{nil},
			wantCalls: 1,
		},
		{
			name:      "recovers after transient failures",
			results:   []error{transient, transient, nil},
			wantCalls: 3,
		},
		{
			name:      "gives up after max attempts",
			results:   []error{transient, transient, transient, nil},
			wantCalls: 3,
			wantErr:   transient,
		},
		{
			name:      "does not retry quota errors",
			results:   []error{quota, nil},
			wantCalls: 1,
			wantErr:   quota,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := RetryPolicy{MaxAttempts: 3}
			calls := 0

			err := policy.Do(context.Background(), func(ctx context.Context) error {
				result := tt.results[calls]
				calls++
				return result
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRetryPolicy_StopsWhenContextCancelled(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Backoff: []time.Duration{time.Hour}}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	start := time.Now()
	err := policy.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return &types.TransientFetchError{Category: "science", Err: errors.New("timeout")}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryPolicy_Delay(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, DefaultRetryPolicy.delay(1))
	assert.Equal(t, time.Second, DefaultRetryPolicy.delay(2))
	assert.Equal(t, time.Second, DefaultRetryPolicy.delay(5))
	assert.Equal(t, time.Duration(0), RetryPolicy{}.delay(1))
}
