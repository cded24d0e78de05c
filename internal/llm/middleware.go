package llm

import (
	"context"
	"errors"
	"time"
)

// Middleware wraps a TextClient with additional behavior.
type Middleware func(TextClient) TextClient

// Chain applies middlewares left to right, so the first one listed is
// the outermost wrapper.
func Chain(client TextClient, mws ...Middleware) TextClient {
	for i := len(mws) - 1; i >= 0; i-- {
		client = mws[i](client)
	}
	return client
}

// Retry retries GenerateText up to maxAttempts with exponential
// backoff starting at baseDelay. Permanent errors are not retried and
// a canceled context stops the loop immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next TextClient) TextClient {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next TextClient
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) GenerateText(ctx context.Context, directive string) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		text, err := r.next.GenerateText(ctx, directive)
		if err == nil {
			return text, nil
		}
		var pErr *PermanentError
		if errors.As(err, &pErr) {
			return "", err
		}
		last = err
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		time.Sleep(r.base * time.Duration(1<<i))
	}
	return "", last
}
