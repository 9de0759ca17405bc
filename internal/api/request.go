package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/openbroker/exchange-client/internal/version"
)

// APIError represents an error status from the exchange.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return isRetryableStatus(e.StatusCode)
}

func isRetryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// ValidationError lists request fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Fields, ", ")
}

// check validates a request body before it is sent.
func (c *Client) check(body any) error {
	err := c.validate.Struct(body)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, fe.Namespace()+" "+fe.Tag())
	}
	return verr
}

// doRequest validates body when present, sends the request, and returns the
// raw response body.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if body != nil {
		if err := c.check(body); err != nil {
			return nil, err
		}
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", version.UserAgent())
	for _, cookie := range c.cookies {
		req.SetCookie(cookie)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	c.logger.Debug("request done",
		"method", method,
		"path", path,
		"status", resp.StatusCode(),
		"duration", resp.Time(),
	)

	if resp.IsError() {
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Message:    http.StatusText(resp.StatusCode()),
			Body:       resp.Body(),
		}
	}

	return json.RawMessage(resp.Body()), nil
}

// URL returns the absolute URL for path.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}
