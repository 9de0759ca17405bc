package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	schemes           = []string{"http", "https"}
	credentialCookies = []string{"id", "api_key", "customer_key"}
	topics            = []string{"order_updates", "updates"}
	ackModes          = []string{"auto", "client", "client-individual"}
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if !slices.Contains(schemes, c.Server.Scheme) {
		return fmt.Errorf("server.scheme must be one of %v, got %q", schemes, c.Server.Scheme)
	}

	if !slices.Contains(credentialCookies, c.API.CredentialCookie) {
		return fmt.Errorf("api.credential_cookie must be one of %v, got %q", credentialCookies, c.API.CredentialCookie)
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if !slices.Contains(topics, c.Stream.Topic) {
		return fmt.Errorf("stream.topic must be one of %v, got %q", topics, c.Stream.Topic)
	}
	if !slices.Contains(ackModes, c.Stream.Ack) {
		return fmt.Errorf("stream.ack must be one of %v, got %q", ackModes, c.Stream.Ack)
	}
	if c.Stream.SubscriptionID == "" {
		return errors.New("stream.subscription_id is required")
	}
	if c.Stream.BufferSize < 1 {
		return errors.New("stream.buffer_size must be >= 1")
	}
	if c.Stream.Reconnect.MaxRetries < 0 {
		return errors.New("stream.reconnect.max_retries must be >= 0")
	}
	if c.Stream.Reconnect.MaxDelay < c.Stream.Reconnect.BaseDelay {
		return fmt.Errorf("stream.reconnect.max_delay (%v) cannot be less than base_delay (%v)",
			c.Stream.Reconnect.MaxDelay, c.Stream.Reconnect.BaseDelay)
	}

	if c.Recorder.Enabled {
		if c.Recorder.BatchSize < 1 {
			return errors.New("recorder.batch_size must be >= 1")
		}
		if err := c.Recorder.Database.validate("recorder.database"); err != nil {
			return err
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
