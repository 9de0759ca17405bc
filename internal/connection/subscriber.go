package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/openbroker/exchange-client/internal/stomp"
)

// Subscriber holds one subscription open across reconnects.
type Subscriber struct {
	cfg    SubscriberConfig
	logger *slog.Logger

	messages chan Message
	state    atomic.Int32
	attempts atomic.Int64
}

// NewSubscriber creates a Subscriber. Zero-valued settings take the
// defaults of DefaultSubscriberConfig, except Reconnect.BaseDelay.
func NewSubscriber(cfg SubscriberConfig, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultSubscriberConfig()
	if cfg.Subscription.ID == "" {
		cfg.Subscription.ID = def.Subscription.ID
	}
	if cfg.Subscription.Ack == "" {
		cfg.Subscription.Ack = def.Subscription.Ack
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.BufferSize < 0 {
		cfg.BufferSize = 0
	}
	if cfg.Reconnect.MaxDelay < cfg.Reconnect.BaseDelay {
		cfg.Reconnect.MaxDelay = cfg.Reconnect.BaseDelay
	}

	return &Subscriber{
		cfg:      cfg,
		logger:   logger.With("destination", cfg.Subscription.Destination),
		messages: make(chan Message, cfg.BufferSize),
	}
}

// Messages returns the delivered messages. It is closed when Run returns.
func (s *Subscriber) Messages() <-chan Message {
	return s.messages
}

// State returns the current lifecycle state.
func (s *Subscriber) State() State {
	return State(s.state.Load())
}

// Attempts returns the number of connection attempts made so far.
func (s *Subscriber) Attempts() int64 {
	return s.attempts.Load()
}

func (s *Subscriber) setState(st State) {
	s.state.Store(int32(st))
}

// Run connects, subscribes and reconnects until ctx is done or the retry
// budget runs out. It must be called once.
func (s *Subscriber) Run(ctx context.Context) error {
	defer close(s.messages)
	defer s.setState(StateDisconnected)

	policy := s.newBackOff()
	retries := 0

	for {
		live, err := s.attempt(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if live {
			policy.Reset()
			retries = 0
		}

		if s.cfg.Reconnect.MaxRetries > 0 && retries >= s.cfg.Reconnect.MaxRetries {
			s.logger.Error("giving up on subscription", "retries", retries, "error", err)
			return fmt.Errorf("%w after %d retries: %w", ErrRetriesExhausted, retries, err)
		}
		retries++

		wait := policy.NextBackOff()
		s.logger.Warn("subscription lost, reconnecting",
			"error", err,
			"retry", retries,
			"wait", wait,
		)

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (s *Subscriber) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.Reconnect.BaseDelay
	b.MaxInterval = s.cfg.Reconnect.MaxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// attempt runs one connection from dial to disconnect. live reports whether
// the server answered after SUBSCRIBE with a CONNECTED, MESSAGE or RECEIPT
// frame; a write alone does not count.
func (s *Subscriber) attempt(ctx context.Context) (live bool, err error) {
	connID := uuid.NewString()
	logger := s.logger.With("conn_id", connID, "url", s.cfg.URL)
	s.attempts.Add(1)

	s.setState(StateConnecting)
	defer s.setState(StateDisconnected)

	client := NewClient(ClientConfig{
		URL:          s.cfg.URL,
		Cookie:       s.cfg.Credential.Header(),
		PingInterval: s.cfg.PingInterval,
		PingTimeout:  s.cfg.PingTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BufferSize:   s.cfg.BufferSize,
	}, logger)

	if err := client.Connect(ctx); err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer client.Close()

	if err := client.Send(stomp.Connect(s.cfg.AcceptVersion).Encode()); err != nil {
		return false, fmt.Errorf("send connect: %w", err)
	}
	s.setState(StateConnected)

	sub := s.cfg.Subscription
	if err := client.Send(stomp.Subscribe(sub.Destination, sub.ID, sub.Ack).Encode()); err != nil {
		return false, fmt.Errorf("send subscribe: %w", err)
	}
	s.setState(StateSubscribed)
	logger.Info("subscribed", "id", sub.ID, "ack", sub.Ack)

	for {
		select {
		case <-ctx.Done():
			if err := client.Send(stomp.Disconnect().Encode()); err != nil {
				logger.Debug("failed to send disconnect", "error", err)
			}
			return live, ctx.Err()

		case err := <-client.Errors():
			if s.drain(ctx, logger, connID, client) {
				live = true
			}
			return live, err

		case raw := <-client.Messages():
			if s.handle(ctx, logger, connID, raw) {
				live = true
			}
		}
	}
}

// drain handles messages read before the connection failed. It reports
// whether any of them showed the server alive.
func (s *Subscriber) drain(ctx context.Context, logger *slog.Logger, connID string, client Client) bool {
	live := false
	for {
		select {
		case raw := <-client.Messages():
			if s.handle(ctx, logger, connID, raw) {
				live = true
			}
		default:
			return live
		}
	}
}

// handle processes one inbound frame and reports whether it was a
// CONNECTED, MESSAGE or RECEIPT frame.
func (s *Subscriber) handle(ctx context.Context, logger *slog.Logger, connID string, raw TimestampedMessage) bool {
	if stomp.IsHeartbeat(raw.Data) {
		return false
	}

	frame, err := stomp.Decode(raw.Data)
	if err != nil {
		logger.Warn("failed to decode frame", "error", err, "size", len(raw.Data))
		return false
	}

	switch frame.Command {
	case stomp.CommandMessage:
		msg := Message{
			ConnID:       connID,
			Destination:  frame.Get(stomp.HeaderDestination),
			Subscription: frame.Get(stomp.HeaderSubscription),
			MessageID:    frame.Get(stomp.HeaderMessageID),
			Body:         frame.Body,
			ReceivedAt:   raw.ReceivedAt,
		}
		select {
		case s.messages <- msg:
		case <-ctx.Done():
		}
		return true

	case stomp.CommandConnected, stomp.CommandReceipt:
		logger.Debug("frame received", "command", frame.Command, "version", frame.Get(stomp.HeaderVersion))
		return true

	case stomp.CommandError:
		logger.Warn("server error frame",
			"message", frame.Get(stomp.HeaderMessage),
			"body", string(frame.Body),
		)

	default:
		logger.Debug("ignoring frame", "command", frame.Command)
	}
	return false
}

// IsTerminal reports whether err from Run means the subscription will not
// come back on its own.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrRetriesExhausted)
}
