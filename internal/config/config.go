package config

import "time"

// Config is the root configuration for the console.
type Config struct {
	Console ConsoleConfig `yaml:"console"`
	Gateway GatewayConfig `yaml:"gateway"`
	Channel ChannelConfig `yaml:"channel"`
	Log     LogConfig     `yaml:"log"`
}

// ConsoleConfig identifies the console itself.
type ConsoleConfig struct {
	// Origin is the base URL the console is served from; the event
	// channel endpoint is derived from it unless channel.endpoint is set.
	Origin string `yaml:"origin"`
}

// GatewayConfig holds REST API settings.
type GatewayConfig struct {
	BaseURL    string        `yaml:"base_url"`
	TokenEnv   string        `yaml:"token_env"` // env var holding the bearer token
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// ChannelConfig holds event channel settings.
type ChannelConfig struct {
	// Endpoint overrides the origin-derived channel address when set.
	Endpoint         string        `yaml:"endpoint"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	MaxRetries       int           `yaml:"max_retries"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
