package config

import "time"

// Config is the root configuration for exchangectl.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Stream   StreamConfig   `yaml:"stream"`
	Recorder RecorderConfig `yaml:"recorder"`
}

// ServerConfig locates the exchange.
type ServerConfig struct {
	Addr   string `yaml:"addr"`   // host:port
	Scheme string `yaml:"scheme"` // http or https
}

// APIConfig holds REST and credential settings.
type APIConfig struct {
	APIKey           string        `yaml:"api_key"`
	CredentialCookie string        `yaml:"credential_cookie"` // id (log in first), api_key or customer_key
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
}

// StreamConfig holds push subscription settings.
type StreamConfig struct {
	Path           string          `yaml:"path"`
	Topic          string          `yaml:"topic"` // order_updates or updates
	SubscriptionID string          `yaml:"subscription_id"`
	Ack            string          `yaml:"ack"`
	AcceptVersion  string          `yaml:"accept_version"`
	WriteTimeout   time.Duration   `yaml:"write_timeout"`
	PingInterval   time.Duration   `yaml:"ping_interval"`
	PingTimeout    time.Duration   `yaml:"ping_timeout"`
	BufferSize     int             `yaml:"buffer_size"`
	Reconnect      ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig bounds the reconnect policy. MaxRetries 0 retries forever.
type ReconnectConfig struct {
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	MaxRetries int           `yaml:"max_retries"`
}

// RecorderConfig enables persisting received updates.
type RecorderConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Database      DBConfig      `yaml:"database"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}
