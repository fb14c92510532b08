package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestRetrySucceedsWithinBudget(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "test", RetryConfig{Retries: 2, Delay: time.Millisecond}, func(int) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryReturnsLastErrorUnwrapped(t *testing.T) {
	calls := 0
	last := errors.New("third failure")
	err := Retry(context.Background(), "test", RetryConfig{Retries: 2}, func(attempt int) error {
		calls++
		if attempt == 3 {
			return last
		}
		return errFlaky
	})
	assert.Same(t, last, err)
	assert.Equal(t, 3, calls)
}

func TestRetryZeroBudgetRunsOnce(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "test", RetryConfig{Retries: 0}, func(int) error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	fatal := errors.New("fatal")
	cfg := RetryConfig{
		Retries:   5,
		Retryable: func(err error) bool { return !errors.Is(err, fatal) },
	}
	err := Retry(context.Background(), "test", cfg, func(int) error {
		calls++
		return fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestRetryAbortsDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := Retry(ctx, "test", RetryConfig{Retries: 3, Delay: time.Minute}, func(int) error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = WithTimeout(context.Background(), time.Second, "fast", func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestCircuitBreakerTransitions(t *testing.T) {
	now := time.Unix(0, 0)
	var states []State
	cb := NewCircuitBreaker("upstream", CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		Now:              func() time.Time { return now },
		OnStateChange:    func(_ string, s State) { states = append(states, s) },
	})

	failing := func() error { return errFlaky }
	assert.ErrorIs(t, cb.Execute(failing), errFlaky)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Execute(failing), errFlaky)
	assert.Equal(t, StateOpen, cb.GetState())

	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)

	now = now.Add(time.Minute)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, states)
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker("upstream", CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Second,
		Now:              func() time.Time { return now },
	})
	_ = cb.Execute(func() error { return errFlaky })
	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errFlaky })
	assert.Equal(t, StateOpen, cb.GetState())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.GetState())
}
