package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TransientError marks a failure that may succeed when retried.
type TransientError struct {
	Err         error
	RateLimited bool
}

func (e *TransientError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("rate limited: %v", e.Err)
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError marks a failure that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

var rateLimitMarkers = []string{"429", "rate limit", "quota", "resource_exhausted", "resourceexhausted"}

// Classify wraps err as a TransientError or PermanentError. Errors already
// classified are returned unchanged. Anything not known to be permanent is
// treated as transient.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var te *TransientError
	var pe *PermanentError
	if errors.As(err, &te) || errors.As(err, &pe) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &PermanentError{Err: err}
	}
	if errors.Is(err, ErrNotConfigured) {
		return &PermanentError{Err: err}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return &TransientError{Err: err, RateLimited: true}
		case apiErr.StatusCode >= 500, apiErr.StatusCode == http.StatusRequestTimeout:
			return &TransientError{Err: err}
		case apiErr.StatusCode >= 400:
			return &PermanentError{Err: err}
		}
	}

	lower := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(lower, marker) {
			return &TransientError{Err: err, RateLimited: true}
		}
	}

	// network failures, timeouts and unknown errors
	return &TransientError{Err: err}
}

// IsRateLimited reports whether err was classified as a rate limit.
func IsRateLimited(err error) bool {
	var te *TransientError
	return errors.As(Classify(err), &te) && te.RateLimited
}

// RetryPolicy decides how often and how long to wait between attempts.
type RetryPolicy struct {
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number.
	BaseDelay time.Duration
	// RateLimitDelay is added to the backoff of rate-limited attempts.
	RateLimitDelay time.Duration
}

// DefaultRetryPolicy makes three attempts, waiting attempt*1s after a
// transient failure and 7s+attempt*1s after a rate limit.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		RateLimitDelay: 7 * time.Second,
	}
}

// Delay returns how long to wait after the given failed attempt (1-based),
// and false when no further attempt should be made.
func (p RetryPolicy) Delay(attempt int, err error) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	var te *TransientError
	if !errors.As(Classify(err), &te) {
		return 0, false
	}
	d := time.Duration(attempt) * p.BaseDelay
	if te.RateLimited {
		d += p.RateLimitDelay
	}
	return d, true
}

// Do runs fn until it succeeds, fails permanently, runs out of attempts or
// ctx is done. onRetry, if set, is called before every wait. The returned
// error is the classified error of the last attempt.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error, onRetry func(attempt int, err error, wait time.Duration)) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	for attempt := 1; ; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		err = Classify(err)

		wait, retry := p.Delay(attempt, err)
		if !retry {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return &PermanentError{Err: err}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
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
