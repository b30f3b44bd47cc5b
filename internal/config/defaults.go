package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultTokenEnv          = "CONSOLE_API_TOKEN"
	DefaultAPITimeout        = 30 * time.Second
	DefaultAPIMaxRetries     = 3
	DefaultRetryDelay        = 5 * time.Second
	DefaultChannelMaxRetries = 5
	DefaultPingInterval      = 30 * time.Second
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

func (c *Config) applyDefaults() {
	if c.Gateway.TokenEnv == "" {
		c.Gateway.TokenEnv = DefaultTokenEnv
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = DefaultAPITimeout
	}
	if c.Gateway.MaxRetries == 0 {
		c.Gateway.MaxRetries = DefaultAPIMaxRetries
	}

	if c.Channel.RetryDelay == 0 {
		c.Channel.RetryDelay = DefaultRetryDelay
	}
	if c.Channel.MaxRetries == 0 {
		c.Channel.MaxRetries = DefaultChannelMaxRetries
	}
	if c.Channel.PingInterval == 0 {
		c.Channel.PingInterval = DefaultPingInterval
	}
	if c.Channel.HandshakeTimeout == 0 {
		c.Channel.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Channel.WriteTimeout == 0 {
		c.Channel.WriteTimeout = DefaultWriteTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
