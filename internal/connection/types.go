package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected     = errors.New("not connected")
	ErrStaleConnection  = errors.New("connection stale (no pong)")
	ErrAlreadyClosed    = errors.New("already closed")
	ErrRetriesExhausted = errors.New("reconnect retries exhausted")
)

// Topics an account publishes on.
const (
	TopicOrderUpdates = "order_updates"
	TopicUpdates      = "updates"
)

// DestinationFor returns the subscription destination of topic for account.
func DestinationFor(topic, account string) string {
	if topic == "" {
		topic = TopicOrderUpdates
	}
	return "/accounts/" + account + "/" + topic
}

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Message is an application message delivered on a subscription.
type Message struct {
	ConnID       string // Attempt that received it
	Destination  string
	Subscription string
	MessageID    string
	Body         []byte
	ReceivedAt   time.Time
}

// Credential is the cookie presented on the WebSocket upgrade.
type Credential struct {
	Name  string // id, api_key or customer_key
	Value string
}

// Header renders the credential as a Cookie header value.
func (c Credential) Header() string {
	if c.Name == "" {
		return ""
	}
	return c.Name + "=" + c.Value
}

// Subscription is what gets requested after every handshake.
type Subscription struct {
	Destination string
	ID          string
	Ack         string
}

// State is the lifecycle position of a Subscriber.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected // CONNECT sent
	StateSubscribed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSubscribed:
		return "subscribed"
	default:
		return "unknown"
	}
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // ws://host:port/ws
	Cookie       string        // Cookie header sent on upgrade
	PingInterval time.Duration // 0 disables client pings
	PingTimeout  time.Duration // Max time without pong before considering connection stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval: 30 * time.Second,
		PingTimeout:  90 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// ReconnectConfig bounds the reconnect policy.
type ReconnectConfig struct {
	BaseDelay  time.Duration // First wait; 0 reconnects immediately
	MaxDelay   time.Duration
	MaxRetries int // Consecutive failed reconnects allowed; 0 is unbounded
}

// SubscriberConfig configures a Subscriber.
type SubscriberConfig struct {
	URL           string
	Credential    Credential
	Subscription  Subscription
	AcceptVersion string
	WriteTimeout  time.Duration
	PingInterval  time.Duration
	PingTimeout   time.Duration
	BufferSize    int
	Reconnect     ReconnectConfig
}

// DefaultSubscriberConfig returns defaults for everything but the URL,
// credential and destination.
func DefaultSubscriberConfig() SubscriberConfig {
	cc := DefaultClientConfig()
	return SubscriberConfig{
		Subscription: Subscription{ID: "1", Ack: "auto"},
		WriteTimeout: cc.WriteTimeout,
		PingInterval: cc.PingInterval,
		PingTimeout:  cc.PingTimeout,
		BufferSize:   cc.BufferSize,
		Reconnect: ReconnectConfig{
			BaseDelay: 500 * time.Millisecond,
			MaxDelay:  30 * time.Second,
		},
	}
}
