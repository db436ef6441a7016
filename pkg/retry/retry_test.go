package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// --- Exponential ---

func TestExponential_SuccessImmediate(t *testing.T) {
	err := Exponential(context.Background(), func() error { return nil }, ExponentialConfig{
		InitialInterval: 5 * time.Millisecond,
		MaxElapsedTime:  100 * time.Millisecond,
	})
	assert.NoError(t, err)
}

func TestExponential_DoublesDelay(t *testing.T) {
	var calls int
	var delays []time.Duration

	err := Exponential(context.Background(), func() error {
		if calls < 3 {
			calls++
			return errors.New("temporary error")
		}
		return nil
	}, ExponentialConfig{
		InitialInterval: 2 * time.Millisecond,
		OnRetry: func(err error, next time.Duration) {
			assert.Error(t, err)
			delays = append(delays, next)
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Millisecond, 4 * time.Millisecond, 8 * time.Millisecond}, delays)
}

func TestExponential_InvalidConfig(t *testing.T) {
	err := Exponential(context.Background(), func() error { return nil }, ExponentialConfig{
		InitialInterval: 0,
	})
	assert.Error(t, err)
}

func TestExponential_ExhaustedByTime(t *testing.T) {
	err := Exponential(context.Background(), func() error { return errors.New("always fail") }, ExponentialConfig{
		InitialInterval: 5 * time.Millisecond,
		MaxElapsedTime:  15 * time.Millisecond,
	})
	assert.Error(t, err, "should fail when MaxElapsedTime is exceeded")
}

func TestExponential_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	err := Exponential(ctx, func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("fail")
	}, ExponentialConfig{InitialInterval: time.Millisecond})

	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

// --- Constant ---

func TestConstant_SuccessImmediate(t *testing.T) {
	err := Constant(context.Background(), func() error { return nil }, 10*time.Millisecond, 3)
	assert.NoError(t, err)
}

func TestConstant_RetryExactlyNThenFail(t *testing.T) {
	attempts := 3
	var calls int
	err := Constant(context.Background(), func() error {
		calls++
		return errors.New("fail")
	}, 5*time.Millisecond, attempts)

	assert.Error(t, err)
	assert.Equal(t, attempts, calls, "must call exactly 'attempts' times")
}

func TestConstant_RetryThenSuccessBeforeMax(t *testing.T) {
	var calls int
	err := Constant(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}, 2*time.Millisecond, 5)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestConstant_AttemptsNonPositiveMeansOneAttempt(t *testing.T) {
	var calls int
	err := Constant(context.Background(), func() error {
		calls++
		return errors.New("fail once")
	}, time.Millisecond, 0)

	assert.Error(t, err)
	assert.Equal(t, 1, calls, "should only attempt once when attempts<=0")
}

func TestSleep_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
