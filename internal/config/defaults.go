package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAddr             = "localhost:8080"
	DefaultScheme           = "http"
	DefaultCredentialCookie = "id"
	DefaultAPITimeout       = 30 * time.Second
	DefaultRetryBackoff     = 1 * time.Second
	DefaultStreamPath       = "/ws"
	DefaultTopic            = "order_updates"
	DefaultSubscriptionID   = "1"
	DefaultAck              = "auto"
	DefaultAcceptVersion    = "1.0,1.1,2.0"
	DefaultWriteTimeout     = 5 * time.Second
	DefaultPingInterval     = 30 * time.Second
	DefaultPingTimeout      = 90 * time.Second
	DefaultBufferSize       = 1000
	DefaultReconnectBase    = 500 * time.Millisecond
	DefaultReconnectMax     = 30 * time.Second
	DefaultBatchSize        = 100
	DefaultFlushInterval    = 1 * time.Second
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
)

// ApplyDefaults fills every unset optional field. MaxRetries fields keep
// their zero value, which means single-shot REST calls and unbounded
// reconnects.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.Scheme == "" {
		c.Server.Scheme = DefaultScheme
	}

	if c.API.CredentialCookie == "" {
		c.API.CredentialCookie = DefaultCredentialCookie
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}

	s := &c.Stream
	if s.Path == "" {
		s.Path = DefaultStreamPath
	}
	if s.Topic == "" {
		s.Topic = DefaultTopic
	}
	if s.SubscriptionID == "" {
		s.SubscriptionID = DefaultSubscriptionID
	}
	if s.Ack == "" {
		s.Ack = DefaultAck
	}
	if s.AcceptVersion == "" {
		s.AcceptVersion = DefaultAcceptVersion
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.PingInterval == 0 {
		s.PingInterval = DefaultPingInterval
	}
	if s.PingTimeout == 0 {
		s.PingTimeout = DefaultPingTimeout
	}
	if s.BufferSize == 0 {
		s.BufferSize = DefaultBufferSize
	}
	if s.Reconnect.BaseDelay == 0 {
		s.Reconnect.BaseDelay = DefaultReconnectBase
	}
	if s.Reconnect.MaxDelay == 0 {
		s.Reconnect.MaxDelay = DefaultReconnectMax
	}

	if c.Recorder.BatchSize == 0 {
		c.Recorder.BatchSize = DefaultBatchSize
	}
	if c.Recorder.FlushInterval == 0 {
		c.Recorder.FlushInterval = DefaultFlushInterval
	}
	applyDBDefaults(&c.Recorder.Database)
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
