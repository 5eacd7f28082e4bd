// Package kb implements the six external knowledge-base clients (spec §4.2)
// and their shared transport contract: rate limiting, retry with exponential
// backoff and jitter, per-instance circuit breaking, and a pooled closable
// HTTP client. Grounded on pkg/external/{interfaces.go,cosmic.go,
// circuit_breaker.go,hgnc_client.go}.
package kb

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/variant-actionability/assessor/internal/domain"
)

// ResilientClient wraps one KB source's HTTP access with the common
// contract of spec §4.2: rate limiting, retry/backoff, a circuit breaker,
// and a 404-is-empty convention left to each call site to interpret.
type ResilientClient struct {
	Name       string
	HTTPClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	log        *logrus.Logger
}

// NewResilientClient builds a client for one named KB source.
func NewResilientClient(name string, cfg domain.KBClientConfig, log *logrus.Logger) *ResilientClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryCount == 0 {
		cfg.RetryCount = 3
	}
	rl := cfg.RateLimit
	if rl == 0 {
		rl = 5
	}

	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.WithFields(logrus.Fields{"client": name, "from": from, "to": to}).
					Warn("circuit breaker state change")
			}
		},
	}

	return &ResilientClient{
		Name: name,
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:    rate.NewLimiter(rate.Limit(rl), rl),
		breaker:    gobreaker.NewCircuitBreaker(breakerSettings),
		maxRetries: cfg.RetryCount,
		log:        log,
	}
}

// Close releases the pooled HTTP client's idle connections (spec §4.2
// "connection reuse ... must be closable"; §5 "scoped acquisition").
func (c *ResilientClient) Close() {
	c.HTTPClient.CloseIdleConnections()
}

// isRetryableStatus reports whether status warrants a retry per spec §4.2.
func isRetryableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= 500
}

// Do executes req with rate limiting, the circuit breaker, and retry with
// exponential backoff (base 1s, factor 2, cap 10s, with jitter), up to
// maxRetries+1 attempts. A 404 response is returned as-is (not an error) so
// call sites can treat it as "empty result set" per spec §4.2.
func (c *ResilientClient) Do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) (*http.Response, []byte, error) {
	var lastErr error
	attempts := c.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, domain.TransportError(c.Name, err)
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			req, err := newReq(ctx)
			if err != nil {
				return nil, err
			}
			resp, err := c.HTTPClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode == http.StatusNotFound {
				return &httpResult{status: resp.StatusCode, body: body}, nil
			}
			if isRetryableStatus(resp.StatusCode) {
				return nil, fmt.Errorf("retryable status %d from %s", resp.StatusCode, c.Name)
			}
			if resp.StatusCode >= 400 {
				return &httpResult{status: resp.StatusCode, body: body}, nil
			}
			return &httpResult{status: resp.StatusCode, body: body}, nil
		})

		if err == nil {
			r := result.(*httpResult)
			return &http.Response{StatusCode: r.status}, r.body, nil
		}
		lastErr = err

		if attempt < attempts-1 {
			backoff := backoffDuration(attempt)
			select {
			case <-ctx.Done():
				return nil, nil, domain.TransportError(c.Name, ctx.Err())
			case <-time.After(backoff):
			}
		}
	}
	return nil, nil, domain.TransportError(c.Name, lastErr)
}

type httpResult struct {
	status int
	body   []byte
}

// backoffDuration implements base 1s, factor 2, cap 10s, with jitter.
func backoffDuration(attempt int) time.Duration {
	base := time.Second
	cap := 10 * time.Second
	d := base * time.Duration(1<<uint(attempt))
	if d > cap {
		d = cap
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 2))
	return d/2 + jitter
}
