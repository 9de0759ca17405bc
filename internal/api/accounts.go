package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// PositionsPath returns /accounts/{account}/positions.
func PositionsPath(account string) string {
	return "/accounts/" + url.PathEscape(account) + "/positions"
}

// BalancesPath returns /accounts/{account}/balances.
func BalancesPath(account string) string {
	return "/accounts/" + url.PathEscape(account) + "/balances"
}

// ListPositions returns an account's positions.
func (c *Client) ListPositions(ctx context.Context, account string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, PositionsPath(account), nil)
}

// ListBalances returns an account's cash balances.
func (c *Client) ListBalances(ctx context.Context, account string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, BalancesPath(account), nil)
}
