package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Manager owns the lifecycle of the event channel: at most one logical
// connection to the gateway, authenticated at handshake time, kept alive
// with ping envelopes, and recovered from drops within Policy. Every
// successfully decoded inbound envelope is routed to the subscribers
// registered for its kind.
//
// Network failures never surface as errors from Connect; they are reported
// through locally emitted envelopes of kind KindConnected, KindDisconnected
// and KindError, so that callers render status instead of failing.
type Manager struct {
	resolver Resolver
	policy   Policy
	logger   *slog.Logger

	registry *registry

	mu         sync.Mutex
	state      State
	sock       *socket
	gen        uint64 // bumped on every generation change; stale goroutines check it
	token      string
	retries    int
	stopPing   chan struct{}
	retryTimer *time.Timer
}

// NewManager creates a channel manager. Zero fields of policy are filled
// from DefaultPolicy.
func NewManager(resolver Resolver, policy Policy, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultPolicy()
	if policy.RetryDelay == 0 {
		policy.RetryDelay = def.RetryDelay
	}
	if policy.MaxRetries == 0 {
		policy.MaxRetries = def.MaxRetries
	}
	if policy.PingInterval == 0 {
		policy.PingInterval = def.PingInterval
	}
	if policy.HandshakeTimeout == 0 {
		policy.HandshakeTimeout = def.HandshakeTimeout
	}
	if policy.WriteTimeout == 0 {
		policy.WriteTimeout = def.WriteTimeout
	}

	return &Manager{
		resolver: resolver,
		policy:   policy,
		logger:   logger,
		registry: newRegistry(),
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect opens the channel using token for the handshake. It returns
// immediately; the outcome is observed through emitted connection-state
// envelopes. Calling Connect while a connection is open or an attempt is in
// flight is a no-op.
func (m *Manager) Connect(token string) {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateOpen {
		m.mu.Unlock()
		m.logger.Debug("connect ignored, channel already active", "state", m.state)
		return
	}
	m.state = StateConnecting
	m.token = token
	m.retries = 0
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	go m.dial(gen)
}

// Disconnect is the caller-initiated terminal shutdown: it cancels the
// keepalive timer and any scheduled reconnect, closes the active socket,
// clears all registered subscriptions, and pins the retry counter so that
// an in-flight close handler cannot schedule another attempt. The manager
// stays inert until Connect is called again.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.state == StateIdle || m.state == StateTerminated {
		m.mu.Unlock()
		return
	}
	m.state = StateClosing
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	if m.stopPing != nil {
		close(m.stopPing)
		m.stopPing = nil
	}
	sock := m.sock
	m.sock = nil
	m.retries = m.policy.MaxRetries
	m.gen++
	m.state = StateTerminated
	m.mu.Unlock()

	if sock != nil {
		sock.close()
	}
	m.registry.clear()

	m.logger.Info("channel disconnected")
}

// Send transmits env if the channel is open. Otherwise the envelope is
// dropped with a warning and ErrNotOpen is returned: the channel does not
// buffer or replay unsent messages.
func (m *Manager) Send(env Envelope) error {
	m.mu.Lock()
	if m.state != StateOpen || m.sock == nil {
		m.mu.Unlock()
		m.logger.Warn("send dropped, channel not open", "kind", env.Kind)
		return ErrNotOpen
	}
	sock := m.sock
	m.mu.Unlock()

	if err := sock.writeEnvelope(env); err != nil {
		m.logger.Warn("send failed", "kind", env.Kind, "error", err)
		return fmt.Errorf("send %s: %w", env.Kind, err)
	}
	return nil
}

// SubscribeToNode sends the protocol-level subscribe envelope carrying the
// node identifier. It does not change the local registry.
func (m *Manager) SubscribeToNode(nodeID string) error {
	env, err := NewEnvelope(KindSubscribe, subscribePayload{NodeID: nodeID})
	if err != nil {
		return err
	}
	return m.Send(env)
}

// Subscribe registers fn for envelopes of the given kind and returns the
// token that identifies the registration.
func (m *Manager) Subscribe(kind Kind, fn Handler) Subscription {
	return m.registry.subscribe(kind, fn)
}

// Unsubscribe removes the registration identified by sub. Safe to call from
// inside a handler invocation.
func (m *Manager) Unsubscribe(sub Subscription) {
	m.registry.unsubscribe(sub)
}

// dial performs one connection attempt for the given generation. Stale
// generations abort silently.
func (m *Manager) dial(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateConnecting {
		m.mu.Unlock()
		return
	}
	token := m.token
	m.retryTimer = nil
	m.mu.Unlock()

	endpoint, err := m.resolver.Resolve(token)
	if err != nil {
		m.logger.Warn("endpoint resolution failed", "error", err)
		m.connectionLost(gen, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.policy.HandshakeTimeout)
	sock, err := dialSocket(ctx, endpoint, m.policy)
	cancel()
	if err != nil {
		m.logger.Warn("handshake failed", "error", err)
		m.connectionLost(gen, err)
		return
	}

	m.mu.Lock()
	if gen != m.gen || m.state != StateConnecting {
		// Disconnect won the race while we were dialing.
		m.mu.Unlock()
		sock.close()
		return
	}
	m.sock = sock
	m.state = StateOpen
	m.retries = 0
	stop := make(chan struct{})
	m.stopPing = stop
	m.mu.Unlock()

	m.logger.Info("channel open")
	m.emit(KindConnected, nil)

	go m.keepalive(stop)
	go m.readLoop(gen, sock)
}

// readLoop delivers inbound envelopes for one connection generation.
// Decode failures are logged and dropped; they never reach a handler and
// never affect connection state.
func (m *Manager) readLoop(gen uint64, sock *socket) {
	for {
		data, err := sock.readFrame()
		if err != nil {
			m.connectionLost(gen, err)
			return
		}

		env, err := decodeEnvelope(data)
		if err != nil {
			m.logger.Warn("dropping undecodable envelope", "error", err)
			continue
		}

		m.registry.dispatch(env)
	}
}

// connectionLost handles a handshake failure or a transport drop for the
// given generation. A clean server-side close settles into StateIdle;
// anything else re-enters StateConnecting after the fixed delay while
// retries remain, then StateTerminated.
func (m *Manager) connectionLost(gen uint64, cause error) {
	m.mu.Lock()
	if gen != m.gen || m.state == StateClosing || m.state == StateTerminated {
		m.mu.Unlock()
		return
	}
	if m.stopPing != nil {
		close(m.stopPing)
		m.stopPing = nil
	}
	sock := m.sock
	m.sock = nil

	clean := websocket.IsCloseError(cause, websocket.CloseNormalClosure)
	m.gen++
	switch {
	case clean:
		m.state = StateIdle
	case m.retries < m.policy.MaxRetries:
		m.retries++
		m.state = StateConnecting
		next := m.gen
		m.retryTimer = time.AfterFunc(m.policy.RetryDelay, func() { m.dial(next) })
	default:
		m.state = StateTerminated
	}
	state := m.state
	attempt := m.retries
	m.mu.Unlock()

	if sock != nil {
		sock.close()
	}

	if clean {
		m.logger.Info("channel closed by gateway")
		m.emit(KindDisconnected, nil)
		return
	}

	m.emit(KindError, cause)
	m.emit(KindDisconnected, cause)

	switch state {
	case StateConnecting:
		m.logger.Info("reconnect scheduled",
			"attempt", attempt,
			"max", m.policy.MaxRetries,
			"delay", m.policy.RetryDelay,
		)
	case StateTerminated:
		m.logger.Warn("reconnect attempts exhausted, channel terminated",
			"attempts", attempt,
		)
	}
}

// keepalive sends a ping envelope on a fixed interval while the channel is
// open. No matching ping_ack is required; a half-open connection is only
// detected by the transport's own close or error signalling.
func (m *Manager) keepalive(stop chan struct{}) {
	ticker := time.NewTicker(m.policy.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if err := m.Send(pingEnvelope(now)); err != nil {
				return
			}
		}
	}
}

// emit dispatches a locally synthesized connection-state envelope.
func (m *Manager) emit(kind Kind, cause error) {
	env := Envelope{Kind: kind, Timestamp: time.Now().UnixMilli()}
	if cause != nil {
		if data, err := json.Marshal(statusPayload{Error: cause.Error()}); err == nil {
			env.Payload = data
		}
	}
	m.registry.dispatch(env)
}
