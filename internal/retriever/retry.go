package retriever

import (
	"context"
	"errors"
	"time"
)

// retryDelays is withRetry's schedule: two retries (three attempts total)
// with 1s then 2s backoff, applied only to ErrTransient failures. In this
// package withRetry wraps only the embedding call; dense and lexical search
// failures are tagged ErrTransient but returned without retry, and the
// orchestrator does not retry retrieval either.
var retryDelays = []time.Duration{time.Second, 2 * time.Second}

// withRetry runs fn, retrying on ErrTransient per retryDelays. ErrInvalidInput
// and any other error are returned immediately without retry.
func withRetry[T any](ctx context.Context, op string, fn func(context.Context) (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; ; attempt++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrTransient) {
			return result, err
		}
		if attempt >= len(retryDelays) {
			return result, err
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(retryDelays[attempt]):
		}
	}
}
