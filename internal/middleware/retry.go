package middleware

import (
	"context"
	"errors"
	"time"

	"google.golang.org/api/googleapi"
)

// DefaultMaxRetries is the default maximum number of attempts for retryable errors.
const DefaultMaxRetries = 3

// retryBaseDelay is the first backoff step.
var retryBaseDelay = time.Second

// WithRetry executes fn with exponential backoff on 429 (rate limit) and 503
// (backend unavailable) errors. All other errors are returned immediately.
func WithRetry(ctx context.Context, maxAttempts int, fn func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxRetries
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == maxAttempts-1 {
			return err
		}

		// Exponential backoff: 1s, 2s, 4s, ...
		backoff := retryBaseDelay << uint(attempt)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

func retryable(err error) bool {
	var googleErr *googleapi.Error
	if !errors.As(err, &googleErr) {
		return false
	}
	return googleErr.Code == 429 || googleErr.Code == 503
}
