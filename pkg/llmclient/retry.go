package llmclient

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// DoWithRetry runs op with bounded exponential backoff, retrying only
// errors IsRetryable accepts. onRetry may be nil. The last error is
// returned unwrapped so callers can inspect it with errors.As.
func DoWithRetry(ctx context.Context, attempts uint, op func() error, onRetry func(n uint, err error)) error {
	if onRetry == nil {
		onRetry = func(uint, error) {}
	}

	return retry.Do(
		op,
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(8*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(onRetry),
		retry.LastErrorOnly(true),
	)
}
