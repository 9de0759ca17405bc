package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/openbroker/exchange-client/internal/model"
)

// Admin paths.
const (
	ExchangePath = "/admin/exchange"
	OfferPath    = "/admin/offer"
)

// CreateExchange registers an upstream exchange.
func (c *Client) CreateExchange(ctx context.Context, req model.ExchangeRequest) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, ExchangePath, req)
}

// LoadExchangeInstruments makes the broker reload the instruments of the
// exchange registered under code.
func (c *Client) LoadExchangeInstruments(ctx context.Context, code string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPut, ExchangePath+"/"+url.PathEscape(code), struct{}{})
}

// CreateOffer creates an offer.
func (c *Client) CreateOffer(ctx context.Context, req model.OfferRequest) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, OfferPath, req)
}
