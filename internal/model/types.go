package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Requests
// -----------------------------------------------------------------------------

// OrderRequest is the body of submit and preview order calls.
type OrderRequest struct {
	Price      float64    `json:"price"`
	Quantity   int        `json:"quantity"`
	Legs       []OrderLeg `json:"legs" validate:"min=1,dive"`
	ExtOrderID string     `json:"ext_order_id,omitempty"`
}

// OrderLeg references one instrument of an order, either by numeric id or by key.
type OrderLeg struct {
	Ratio         int    `json:"ratio" validate:"ne=0"`
	InstrumentID  *int64 `json:"instrument_id,omitempty" validate:"required_without=InstrumentKey"`
	InstrumentKey string `json:"instrument_key,omitempty" validate:"required_without=InstrumentID"`
}

// SingleLegOrder builds the one-leg order the CLI submits. A nil id means
// the leg is keyed by instrumentKey.
func SingleLegOrder(price float64, quantity int, ratio int, instrumentID *int64, instrumentKey string) OrderRequest {
	return OrderRequest{
		Price:    price,
		Quantity: quantity,
		Legs: []OrderLeg{{
			Ratio:         ratio,
			InstrumentID:  instrumentID,
			InstrumentKey: instrumentKey,
		}},
	}
}

// ExchangeRequest registers an upstream exchange.
type ExchangeRequest struct {
	Code         string `json:"code" validate:"required"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	WebsocketURL string `json:"websocket_url"`
	APIKey       string `json:"api_key"`
}

// OfferRequest creates an offer that expires at ExpirationTime (ms since epoch).
type OfferRequest struct {
	Code           string `json:"code" validate:"required"`
	Description    string `json:"description"`
	ExpirationTime int64  `json:"expiration_time" validate:"gt=0"`
}

// NewOfferRequest builds an offer expiring days after now.
func NewOfferRequest(code, description string, days int, now time.Time) OfferRequest {
	return OfferRequest{
		Code:           code,
		Description:    description,
		ExpirationTime: now.Add(time.Duration(days) * 24 * time.Hour).UnixMilli(),
	}
}

// -----------------------------------------------------------------------------
// Updates
// -----------------------------------------------------------------------------

// OrderStatus is the lifecycle status reported for an order.
type OrderStatus string

const (
	StatusRejected      OrderStatus = "Rejected"
	StatusPending       OrderStatus = "Pending"
	StatusOpen          OrderStatus = "Open"
	StatusFilled        OrderStatus = "Filled"
	StatusPendingCancel OrderStatus = "PendingCancel"
	StatusCanceled      OrderStatus = "Canceled"
	StatusExpired       OrderStatus = "Expired"
)

// IsOpen reports whether the order can still trade.
func (s OrderStatus) IsOpen() bool {
	switch s {
	case StatusPending, StatusOpen, StatusPendingCancel:
		return true
	}
	return false
}

// Valid reports whether s is a status the exchange emits.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusRejected, StatusPending, StatusOpen, StatusFilled,
		StatusPendingCancel, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

// Order is an order as echoed back by the exchange.
type Order struct {
	CreateTime int64      `json:"create_time"`
	ExtOrderID *string    `json:"ext_order_id"`
	AccountKey *string    `json:"account_key"`
	Price      float64    `json:"price"`
	Quantity   int        `json:"quantity"`
	Legs       []OrderLeg `json:"legs"`
}

// OrderState is the current state of one order.
type OrderState struct {
	UpdateTime        int64       `json:"update_time"`
	OrderStatus       OrderStatus `json:"order_status"`
	RemainingQuantity int         `json:"remaining_quantity"`
	Order             Order       `json:"order"`
	VersionNumber     int64       `json:"version_number"`
}

// Trade is an execution against an account. CreateTime is kept raw because
// the server serializes it as a {secs_since_epoch, nanos_since_epoch} object.
type Trade struct {
	CreateTime json.RawMessage `json:"create_time"`
	Price      float64         `json:"price"`
	Quantity   int             `json:"quantity"`
}

// Position is an account's holding in one instrument.
type Position struct {
	AccountKey   string  `json:"account_key"`
	InstrumentID int64   `json:"instrument_id"`
	Quantity     int     `json:"quantity"`
	Cost         float64 `json:"cost"`
}

// Balance is an account's cash balance.
type Balance struct {
	AccountKey string  `json:"account_key"`
	Cash       float64 `json:"cash"`
}

// AccountUpdate is the payload pushed on an account's update topic.
// Any combination of fields may be set.
type AccountUpdate struct {
	Position   *Position   `json:"position,omitempty"`
	Balance    *Balance    `json:"balance,omitempty"`
	Trade      *Trade      `json:"trade,omitempty"`
	OrderState *OrderState `json:"order_state,omitempty"`
}

// ParseAccountUpdate decodes a pushed payload.
func ParseAccountUpdate(body []byte) (*AccountUpdate, error) {
	var u AccountUpdate
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("unmarshal account update: %w", err)
	}
	return &u, nil
}

// Empty reports whether no field of the update is set.
func (u *AccountUpdate) Empty() bool {
	return u.Position == nil && u.Balance == nil && u.Trade == nil && u.OrderState == nil
}

// Summary renders a one-line description for logs.
func (u *AccountUpdate) Summary() string {
	var s string
	add := func(part string) {
		if s != "" {
			s += " "
		}
		s += part
	}

	if o := u.OrderState; o != nil {
		ext := ""
		if o.Order.ExtOrderID != nil {
			ext = *o.Order.ExtOrderID
		}
		add(fmt.Sprintf("order=%s status=%s remaining=%d", ext, o.OrderStatus, o.RemainingQuantity))
	}
	if t := u.Trade; t != nil {
		add(fmt.Sprintf("trade=%d@%g", t.Quantity, t.Price))
	}
	if p := u.Position; p != nil {
		add(fmt.Sprintf("position=%d:%d", p.InstrumentID, p.Quantity))
	}
	if b := u.Balance; b != nil {
		add(fmt.Sprintf("cash=%g", b.Cash))
	}
	if s == "" {
		return "empty"
	}
	return s
}
