package pinecone

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// retryDelays are the base waits between attempts; each gets up to 25%
// jitter. Three retries on top of the initial attempt.
var retryDelays = []time.Duration{
	200 * time.Millisecond,
	500 * time.Millisecond,
	1000 * time.Millisecond,
}

// retryableStatus reports whether an HTTP status is worth retrying:
// rate limiting and server-side failures.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// retryableNetErr reports whether a transport error is transient.
func retryableNetErr(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// withRetries runs fn up to len(retryDelays)+1 times, sleeping with
// jitter between attempts. fn returns (retryable, err); the last error
// is returned when attempts are exhausted.
func withRetries(ctx context.Context, fn func() (bool, error)) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		retryable, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || attempt >= len(retryDelays) {
			return lastErr
		}

		delay := retryDelays[attempt]
		delay += time.Duration(rand.Int63n(int64(delay) / 4))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
