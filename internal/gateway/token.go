package gateway

import (
	"fmt"
	"os"
)

// TokenSource supplies the bearer token presented at event-channel
// handshake time and on REST calls.
type TokenSource interface {
	Token() (string, error)
}

// StaticTokenSource always returns the same token.
type StaticTokenSource string

func (s StaticTokenSource) Token() (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty token")
	}
	return string(s), nil
}

// EnvTokenSource reads the token from an environment variable on every
// call, so a rotated token is picked up by the next Connect.
type EnvTokenSource string

func (e EnvTokenSource) Token() (string, error) {
	tok := os.Getenv(string(e))
	if tok == "" {
		return "", fmt.Errorf("environment variable %s is empty", string(e))
	}
	return tok, nil
}
