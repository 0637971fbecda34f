package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/redis/go-redis/v9"

	"boostbot/internal/models"
)

func newStorageRetrier() heimdall.Retriable {
	backoff := heimdall.NewExponentialBackoff(20*time.Millisecond, 500*time.Millisecond, 2, 5*time.Millisecond)
	return heimdall.NewRetrier(backoff)
}

// withStorageRetry runs fn up to attempts times. Missing keys and invalid records are
// returned as is; anything else left after the last attempt is wrapped with ErrStorage.
func withStorageRetry[T any](ctx context.Context, retrier heimdall.Retriable, attempts int, fn func() (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	for i := 0; i < attempts; i++ {
		v, err = fn()
		if err == nil || errors.Is(err, redis.Nil) || errors.Is(err, models.ErrInvalidBoostSession) {
			return v, err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return v, fmt.Errorf("%w: %w", ErrStorage, ctx.Err())
		case <-time.After(retrier.NextInterval(i)):
		}
	}
	return v, fmt.Errorf("%w: %w", ErrStorage, err)
}
