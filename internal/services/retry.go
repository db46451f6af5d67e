package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrQuotaExceeded marks an upstream billing/quota rejection. Retrying
// cannot help, and handlers translate it to 429 with guidance.
var ErrQuotaExceeded = errors.New("api quota exceeded")

type retryClass int

const (
	retryFatal retryClass = iota
	retryTransient
	retryQuota
)

// retryWithBackoff runs fn up to maxAttempts times. Between attempts it
// sleeps baseDelay, doubling each time (1s, 2s, 4s with the defaults).
// classify decides the fate of each failure: transient errors retry,
// fatal errors return as-is, quota errors surface as ErrQuotaExceeded
// without burning further attempts.
func retryWithBackoff(ctx context.Context, maxAttempts int, baseDelay time.Duration, classify func(error) retryClass, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	delay := baseDelay
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		switch classify(err) {
		case retryQuota:
			if errors.Is(err, ErrQuotaExceeded) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		case retryFatal:
			return err
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
