package channel

import (
	"errors"
	"time"
)

// ErrNotOpen is returned by Send when the channel is not in StateOpen. The
// envelope is dropped, not queued.
var ErrNotOpen = errors.New("channel not open")

// State is the connection lifecycle state of the Manager.
type State int32

const (
	// StateIdle is the initial state, and the state after a clean
	// server-side close. Connect is accepted.
	StateIdle State = iota

	// StateConnecting covers both an in-flight handshake and the wait
	// before a scheduled reconnect attempt.
	StateConnecting

	// StateOpen means the handshake succeeded and envelopes flow.
	StateOpen

	// StateClosing is the transient state while Disconnect tears down.
	StateClosing

	// StateTerminated is absorbing: retries are exhausted or the caller
	// invoked Disconnect. Only a fresh Connect leaves it.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Policy governs keepalive and automatic recovery. The reconnect delay is
// fixed per attempt, not exponential, and once MaxRetries consecutive
// recovery attempts have failed the Manager settles into StateTerminated
// until Connect is called again with a fresh token.
type Policy struct {
	RetryDelay       time.Duration // wait between reconnect attempts
	MaxRetries       int           // automatic recovery attempts before giving up
	PingInterval     time.Duration // keepalive probe period while open
	HandshakeTimeout time.Duration // dial deadline
	WriteTimeout     time.Duration // per-send deadline
}

// DefaultPolicy returns sensible defaults.
func DefaultPolicy() Policy {
	return Policy{
		RetryDelay:       5 * time.Second,
		MaxRetries:       5,
		PingInterval:     30 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}
