package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"github.com/openbroker/exchange-client/internal/session"
)

// Client provides access to the exchange REST API.
type Client struct {
	baseURL  string
	http     *resty.Client
	logger   *slog.Logger
	validate *validator.Validate
	cookies  []*http.Cookie

	timeout      time.Duration
	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a REST client for baseURL (scheme://host:port).
// Retries default to zero: the exchange's order endpoints are not idempotent.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      baseURL,
		logger:       slog.Default(),
		validate:     validator.New(),
		timeout:      30 * time.Second,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = resty.New()
	}
	c.http.SetTimeout(c.timeout)
	if c.maxRetries > 0 {
		c.http.
			SetRetryCount(c.maxRetries).
			SetRetryWaitTime(c.retryBackoff).
			SetRetryMaxWaitTime(c.retryBackoff * 8).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return r != nil && isRetryableStatus(r.StatusCode())
			})
	}

	return c
}

// NewSessionClient creates a client that sends the session cookie of sess.
func NewSessionClient(sess *session.Session, opts ...ClientOption) *Client {
	return NewClient(sess.BaseURL, append([]ClientOption{WithRestyClient(sess.Client())}, opts...)...)
}

// BaseURL returns the URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetries retries 5xx and 429 responses up to max times.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRestyClient sets the underlying HTTP client, typically one holding a
// session cookie.
func WithRestyClient(hc *resty.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithCredentialCookie sends name=value on every request. This is how the
// unauthenticated flows pass api_key or customer_key.
func WithCredentialCookie(name, value string) ClientOption {
	return func(c *Client) {
		c.cookies = append(c.cookies, &http.Cookie{Name: name, Value: value})
	}
}
