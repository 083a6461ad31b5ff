// Package retry provides retry logic with exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts int           // Maximum number of attempts (0 = infinite)
	InitialWait time.Duration // Wait before the second attempt
	MaxWait     time.Duration // Upper bound on a single wait (0 = uncapped)
	Multiplier  float64       // Backoff multiplier
	Jitter      float64       // Jitter factor (0-1)

	// Sleep replaces the real wait. Tests use it to record delays.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called after a retryable failure, before waiting.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultConfig makes 3 retries starting at 1s and doubling, without jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 4,
		InitialWait: time.Second,
		Multiplier:  2.0,
	}
}

// WithRetries returns a doubling config that makes maxRetries+1 attempts.
func WithRetries(maxRetries int, initial time.Duration) Config {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return Config{
		MaxAttempts: maxRetries + 1,
		InitialWait: initial,
		Multiplier:  2.0,
	}
}

// RetryableError wraps an error that should be retried.
type RetryableError struct {
	Err error
}

func (e RetryableError) Error() string {
	return e.Err.Error()
}

func (e RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error should be retried.
func IsRetryable(err error) bool {
	var retryable RetryableError
	return errors.As(err, &retryable)
}

// Retryable wraps an error to mark it as retryable.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return RetryableError{Err: err}
}

// strip removes the retryable marker so callers see the underlying error.
func strip(err error) error {
	var retryable RetryableError
	if errors.As(err, &retryable) {
		return retryable.Err
	}
	return err
}

// Backoff returns the wait after the given failed attempt (1-based).
func (cfg Config) Backoff(attempt int) time.Duration {
	mult := cfg.Multiplier
	if mult <= 0 {
		mult = 1
	}
	wait := float64(cfg.InitialWait) * math.Pow(mult, float64(attempt-1))
	if cfg.MaxWait > 0 && wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}
	if cfg.Jitter > 0 {
		wait += wait * cfg.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(wait)
}

func (cfg Config) sleep(ctx context.Context, d time.Duration) error {
	if cfg.Sleep != nil {
		return cfg.Sleep(ctx, d)
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

// Do executes fn with retries. The final error is returned without the
// retryable marker.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult executes fn with retries and returns a result.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 1; cfg.MaxAttempts == 0 || attempt <= cfg.MaxAttempts; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return result, err
		}

		// No wait after the last attempt.
		if cfg.MaxAttempts != 0 && attempt == cfg.MaxAttempts {
			break
		}

		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		wait := cfg.Backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, wait, strip(err))
		}

		if err := cfg.sleep(ctx, wait); err != nil {
			return result, err
		}
	}

	return result, strip(lastErr)
}
