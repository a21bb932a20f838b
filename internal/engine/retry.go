package engine

import (
	"context"
	"math"
	"strings"
	"time"
)

// withRetry повторяет fn с экспоненциальной паузой. Каждая попытка ограничена FetchTimeout.
func withRetry[T any](ctx context.Context, e *Engine, what string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	backoff := e.cfg.RetryBackoff
	for i := 0; i < e.cfg.Retries; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
		val, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return val, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if i == e.cfg.Retries-1 {
			break
		}
		wait := time.Duration(math.Min(float64(backoff), float64(e.cfg.RetryBackoff*30)))
		if isRateLimitError(err) {
			wait = time.Duration(math.Min(float64(backoff*4), float64(e.cfg.RetryBackoff*30)))
		}
		e.logEntry().WithError(err).WithField("fetch", what).Debug("Ошибка, повторяем запрос.")
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
	return zero, lastErr
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "Too Many Requests")
}
