package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Console.Origin == "" && c.Channel.Endpoint == "" {
		return errors.New("console.origin or channel.endpoint is required")
	}

	if c.Gateway.BaseURL == "" {
		return errors.New("gateway.base_url is required")
	}
	if c.Gateway.MaxRetries < 0 {
		return errors.New("gateway.max_retries must be >= 0")
	}

	if c.Channel.RetryDelay <= 0 {
		return errors.New("channel.retry_delay must be positive")
	}
	if c.Channel.MaxRetries < 1 {
		return errors.New("channel.max_retries must be >= 1")
	}
	if c.Channel.PingInterval <= 0 {
		return errors.New("channel.ping_interval must be positive")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug/info/warn/error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}
