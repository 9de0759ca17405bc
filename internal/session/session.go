package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"

	"github.com/openbroker/exchange-client/internal/version"
)

const (
	// LoginPath is the API-key login endpoint.
	LoginPath = "/loginapi"

	// CookieName is the session cookie set by a successful login.
	CookieName = "id"
)

// Errors
var (
	ErrLoginFailed    = errors.New("login failed")
	ErrNoSessionToken = errors.New("authentication did not yield a session token")
)

// StatusError is a login response with an HTTP error status.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("login status %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Session is an authenticated handle on one exchange.
type Session struct {
	BaseURL string // scheme://host:port
	Addr    string // host:port
	ID      string // session token

	client *resty.Client
}

// Client returns the HTTP client that carries the session cookie.
func (s *Session) Client() *resty.Client {
	return s.client
}

// Cookie returns the session cookie as the client will send it.
func (s *Session) Cookie() *http.Cookie {
	u, err := url.Parse(s.BaseURL)
	if err == nil && s.client.GetClient().Jar != nil {
		for _, c := range s.client.GetClient().Jar.Cookies(u) {
			if c.Name == CookieName {
				return c
			}
		}
	}
	return &http.Cookie{Name: CookieName, Value: s.ID}
}

type loginRequest struct {
	APIKey string `json:"api_key"`
}

type options struct {
	scheme string
	logger *slog.Logger
}

// Option configures Login.
type Option func(*options)

// WithScheme sets the URL scheme, "http" by default.
func WithScheme(scheme string) Option {
	return func(o *options) {
		o.scheme = scheme
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Login posts apiKey to the login endpoint at addr and leaves hc holding
// only the session cookie, stripped of its Secure flag. A nil hc gets a
// fresh client. Transport and status failures wrap ErrLoginFailed; a
// response without the cookie returns ErrNoSessionToken.
func Login(ctx context.Context, hc *resty.Client, addr, apiKey string, opts ...Option) (*Session, error) {
	o := options{
		scheme: "http",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if hc == nil {
		hc = resty.New()
	}

	baseURL := o.scheme + "://" + addr
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse base url: %w", ErrLoginFailed, err)
	}

	loginURL := baseURL + LoginPath
	o.logger.Info("requesting login", "path", loginURL)

	resp, err := hc.R().
		SetContext(ctx).
		SetHeader("User-Agent", version.UserAgent()).
		SetBody(loginRequest{APIKey: apiKey}).
		Post(loginURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, &StatusError{
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
		})
	}

	id := sessionToken(resp.Cookies())
	if id == "" {
		return nil, ErrNoSessionToken
	}

	if err := resetJar(hc, base, id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	o.logger.Debug("session established", "addr", addr, "id", Redact(id))

	return &Session{
		BaseURL: baseURL,
		Addr:    addr,
		ID:      id,
		client:  hc,
	}, nil
}

func sessionToken(cookies []*http.Cookie) string {
	for _, c := range cookies {
		if c.Name == CookieName && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// resetJar swaps in an empty jar holding only the session cookie.
// The cookie is built fresh, so Secure, HttpOnly and expiry are dropped.
func resetJar(hc *resty.Client, base *url.URL, id string) error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	jar.SetCookies(base, []*http.Cookie{{Name: CookieName, Value: id}})
	hc.Cookies = nil
	hc.SetCookieJar(jar)
	return nil
}

// Redact shortens a token for logs.
func Redact(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
