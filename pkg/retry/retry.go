package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts = 5
	DefaultInterval    = time.Second
)

type Operation func() error

type ExponentialConfig struct {
	InitialInterval time.Duration
	// MaxInterval caps a single wait; zero means uncapped.
	MaxInterval time.Duration
	// MaxElapsedTime stops retrying after this much time; zero means retry forever.
	MaxElapsedTime time.Duration
	Multiplier     float64
	OnRetry        func(error, time.Duration)
}

// Exponential retries fn with a deterministic, doubling-by-default delay until it
// succeeds, ctx is done, or MaxElapsedTime passes.
func Exponential(ctx context.Context, fn Operation, cfg ExponentialConfig) error {
	if cfg.InitialInterval <= 0 {
		return errors.New("initial interval must be > 0")
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	if cfg.Multiplier > 1 {
		bo.Multiplier = cfg.Multiplier
	}
	bo.MaxInterval = time.Duration(1<<63 - 1)
	if cfg.MaxInterval > 0 {
		bo.MaxInterval = cfg.MaxInterval
	}
	bo.MaxElapsedTime = cfg.MaxElapsedTime
	bo.Reset()

	return backoff.RetryNotify(backoff.Operation(fn), backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		if cfg.OnRetry != nil {
			cfg.OnRetry(err, next)
		}
	})
}

// Constant calls fn up to attempts times, sleeping interval between failures.
func Constant(ctx context.Context, fn Operation, interval time.Duration, attempts int) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts {
			if serr := Sleep(ctx, interval); serr != nil {
				return serr
			}
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
