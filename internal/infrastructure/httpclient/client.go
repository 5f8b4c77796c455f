// Package httpclient provides the shared outbound HTTP client used by the
// LLM, vector index and GitHub integrations.
//
// Built on go-resty/resty over a go-retryablehttp transport:
//   - Retries with exponential backoff on network errors and 5xx/429
//   - Per-client rate limiting
//   - Circuit breaker protection
//   - Trace header propagation
//   - sonic JSON encoding
//
// Example Usage:
//
//	client := httpclient.New(httpclient.Options{Name: "vector", BaseURL: url})
//	resp, err := client.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
//		return r.SetBody(payload).Post("/records/search")
//	})
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/tracing"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Options configures a client
type Options struct {
	Name       string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
	// RateLimit is requests per second; zero means unlimited
	RateLimit float64
	UserAgent string
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.Code, body)
}

// Temporary reports whether retrying later may succeed
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Client wraps resty with rate limiting and a circuit breaker
type Client struct {
	name    string
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	mu      sync.RWMutex
}

// New creates a client with production defaults
func New(opts Options) *Client {
	if opts.Name == "" {
		opts.Name = "http-external"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.MinWait == 0 {
		opts.MinWait = time.Second
	}
	if opts.MaxWait == 0 {
		opts.MaxWait = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ZenCode-Backend/1.0"
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.MaxRetries
	retryClient.RetryWaitMin = opts.MinWait
	retryClient.RetryWaitMax = opts.MaxWait
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(opts.MinWait).
		SetRetryMaxWaitTime(opts.MaxWait).
		SetHeader("User-Agent", opts.UserAgent).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return r == nil || r.Request == nil || r.Request.Context().Err() == nil
			}
			return r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
		})
	restyClient.SetTransport(retryClient.HTTPClient.Transport)
	if opts.BaseURL != "" {
		restyClient.SetBaseURL(opts.BaseURL)
	}

	restyClient.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		headers := make(map[string]string, 2)
		tracing.InjectTraceContext(r.Context(), headers)
		r.SetHeaders(headers)
		return nil
	})

	breaker := resilience.New(opts.Name, resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
		// Client errors mean the request was wrong, not that the service is down
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			se, ok := err.(*StatusError)
			return ok && !se.Temporary()
		},
	})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		name:    opts.Name,
		Resty:   restyClient,
		Limiter: limiter,
		Breaker: breaker,
	}
}

// Name returns the service name used in errors and breaker callbacks
func (c *Client) Name() string {
	return c.name
}

// SetHeader adds default header
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Resty.SetHeader(key, value)
}

// SetBearerAuth configures bearer token authentication
func (c *Client) SetBearerAuth(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Resty.SetAuthToken(token)
}

// Request creates a new request after waiting on the rate limiter
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.Breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}

	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Resty.R().SetContext(ctx), nil
}

// Do builds a request and sends it through the breaker. Non-2xx responses
// come back as *StatusError alongside the response.
func (c *Client) Do(ctx context.Context, send func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	return resilience.Do(ctx, c.Breaker, func(ctx context.Context) (*resty.Response, error) {
		req, err := c.Request(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := send(req)
		if err != nil {
			return resp, fmt.Errorf("%s: %w", c.name, err)
		}
		if resp.IsError() {
			return resp, &StatusError{Service: c.name, Code: resp.StatusCode(), Body: resp.String()}
		}
		return resp, nil
	})
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.Breaker.State()
}
