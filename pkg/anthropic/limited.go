package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"golang.org/x/time/rate"

	"github.com/agendaviva/ingest/internal/resilience"
)

// LimitedClient wraps a Client with a requests-per-minute token bucket and
// retries on 429 and 5xx. Other API errors surface immediately.
type LimitedClient struct {
	inner   Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewLimitedClient builds a rate-limited client. rpm <= 0 disables the
// limiter.
func NewLimitedClient(inner Client, rpm int) *LimitedClient {
	var limiter *rate.Limiter
	if rpm > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
	}

	cfg := resilience.DefaultRetryConfig()
	cfg.ShouldRetry = func(err error) bool {
		status, ok := apiStatus(err)
		if !ok {
			// Network-level failures are worth one more try.
			return resilience.IsTransient(err)
		}
		// Only rate limits and server errors. A 408 from the API means the
		// request itself took too long; repeating it would too.
		return status == http.StatusTooManyRequests || status >= 500
	}
	cfg.RetryAfter = retryAfterHint
	cfg.OnRetry = resilience.RetryLogger("anthropic", "create message")

	return &LimitedClient{inner: inner, limiter: limiter, retry: cfg}
}

func (c *LimitedClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*MessageResponse, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return c.inner.CreateMessage(ctx, req)
	})
}

// apiStatus extracts the HTTP status from an SDK API error.
func apiStatus(err error) (int, bool) {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}

// retryAfterHint honors the server's Retry-After header when present.
func retryAfterHint(err error) time.Duration {
	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) || apiErr.Response == nil {
		return 0
	}
	return parseRetryAfter(apiErr.Response.Header)
}

func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
