package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryPolicy controls how the transport retries failed requests. Only
// transport-level failures and gateway errors (502, 503, 504) are retried;
// any other status is a real answer from the service and is returned as-is.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy retries twice after the initial attempt, backing off
// exponentially from 200ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

type transport struct {
	http   *http.Client
	policy RetryPolicy
}

func newTransport(timeout time.Duration, policy RetryPolicy) *transport {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &transport{
		http:   &http.Client{Timeout: timeout},
		policy: policy,
	}
}

// do sends the request, retrying per the policy. The body is buffered so it
// can be replayed across attempts.
func (t *transport) do(ctx context.Context, method, url string, body []byte, headers http.Header) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < t.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(t.policy.delay(attempt - 1)):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		for k, vs := range headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := t.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if retryableStatus(resp.StatusCode) && attempt < t.policy.MaxAttempts-1 {
			resp.Body.Close()
			lastErr = fmt.Errorf("gateway error: %s", resp.Status)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", t.policy.MaxAttempts, lastErr)
}
