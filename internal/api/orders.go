package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/openbroker/exchange-client/internal/model"
)

// OrdersPath returns /accounts/{account}/orders.
func OrdersPath(account string) string {
	return "/accounts/" + url.PathEscape(account) + "/orders"
}

// OrderPath returns /accounts/{account}/orders/{clientOrderID}.
func OrderPath(account, clientOrderID string) string {
	return OrdersPath(account) + "/" + url.PathEscape(clientOrderID)
}

// PreviewOrderPath returns /accounts/{account}/previewOrder.
func PreviewOrderPath(account string) string {
	return "/accounts/" + url.PathEscape(account) + "/previewOrder"
}

// ListOrders returns every order state of an account, keyed by client order id.
func (c *Client) ListOrders(ctx context.Context, account string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, OrdersPath(account), nil)
}

// GetOrder returns one order state.
func (c *Client) GetOrder(ctx context.Context, account, clientOrderID string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, OrderPath(account, clientOrderID), nil)
}

// CancelOrder requests cancellation of an order.
func (c *Client) CancelOrder(ctx context.Context, account, clientOrderID string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodDelete, OrderPath(account, clientOrderID), nil)
}

// SubmitOrder places an order.
func (c *Client) SubmitOrder(ctx context.Context, account string, order model.OrderRequest) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, OrdersPath(account), order)
}

// PreviewOrder runs the exchange's pre-trade checks without placing the order.
func (c *Client) PreviewOrder(ctx context.Context, account string, order model.OrderRequest) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, PreviewOrderPath(account), order)
}
