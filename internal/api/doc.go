// Package api calls the exchange's REST endpoints.
//
// Account endpoints:
//   - GET    /accounts/{account}/orders
//   - GET    /accounts/{account}/orders/{clientOrderId}
//   - DELETE /accounts/{account}/orders/{clientOrderId}
//   - POST   /accounts/{account}/orders
//   - POST   /accounts/{account}/previewOrder
//   - GET    /accounts/{account}/positions
//   - GET    /accounts/{account}/balances
//
// Admin endpoints (need a logged-in session):
//   - POST /admin/exchange
//   - PUT  /admin/exchange/{code}
//   - POST /admin/offer
//
// Every call returns the raw JSON body so callers can print it unchanged.
package api
