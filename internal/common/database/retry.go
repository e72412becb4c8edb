package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
)

// RetryWithBackoff runs fn until it succeeds, doubling the delay after each
// failure. It gives up after maxRetries attempts or when ctx ends.
func RetryWithBackoff(ctx context.Context, log logger.Logger, name string, maxRetries int, initialDelay time.Duration, fn func(context.Context) error) error {
	delay := initialDelay
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = fn(ctx); err == nil {
			if attempt > 1 {
				log.Info("connection established after retry", map[string]interface{}{
					"service": name,
					"attempt": attempt,
				})
			}
			return nil
		}
		if attempt == maxRetries {
			break
		}

		log.Warn("connection attempt failed", map[string]interface{}{
			"service":     name,
			"attempt":     attempt,
			"maxAttempts": maxRetries,
			"retryIn":     delay.String(),
			"error":       err,
		})

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", name, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", name, maxRetries, err)
}
