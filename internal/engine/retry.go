package engine

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig controls transport-level retries inside the HTTP collaborators.
// The pipeline itself never retries a unit of work.
type RetryConfig struct {
	MaxTries    uint
	InitialWait time.Duration
	MaxWait     time.Duration
	MaxElapsed  time.Duration
}

// DefaultRetryConfig is suitable for the YouTube endpoints.
var DefaultRetryConfig = RetryConfig{
	MaxTries:    3,
	InitialWait: 500 * time.Millisecond,
	MaxWait:     5 * time.Second,
	MaxElapsed:  30 * time.Second,
}

// RetryHTTP sends the request built by fn, retrying transient network errors
// and retryable status codes with exponential backoff. Any other response,
// including non-2xx, is returned to the caller as is.
func RetryHTTP(ctx context.Context, rc RetryConfig, fn func() (*http.Response, error)) (*http.Response, error) {
	operation := func() (*http.Response, error) {
		resp, err := fn()
		if err != nil {
			if isRetryable(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		if IsRetryableStatus(resp.StatusCode) {
			resp.Body.Close()
			return nil, &httpStatusError{StatusCode: resp.StatusCode}
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = rc.InitialWait
	bo.MaxInterval = rc.MaxWait

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(rc.MaxTries),
		backoff.WithMaxElapsedTime(rc.MaxElapsed),
	)
}

// httpStatusError wraps a retryable HTTP status code.
type httpStatusError struct {
	StatusCode int
}

func (e *httpStatusError) Error() string {
	return "http " + http.StatusText(e.StatusCode)
}

// isRetryable returns true for transient errors worth retrying.
func isRetryable(err error) bool {
	var httpErr *httpStatusError
	if errors.As(err, &httpErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// net.Error includes OpError, so check after it
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
