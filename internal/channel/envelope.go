package channel

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind tags an envelope with its event type. The constants below enumerate
// every kind the console understands; anything else the gateway sends is
// still dispatchable under its literal value, and additionally reaches
// subscribers of KindUnrecognized.
type Kind string

// Wire kinds exchanged with the gateway.
const (
	KindPing          Kind = "ping"
	KindPingAck       Kind = "ping_ack"
	KindSubscribe     Kind = "subscribe"
	KindNodeStatus    Kind = "node_status"
	KindTunnelStatus  Kind = "tunnel_status"
	KindSessionOpened Kind = "session_opened"
	KindSessionClosed Kind = "session_closed"
)

// Local kinds emitted by the Manager itself to report connection state.
// They never cross the wire.
const (
	KindConnected    Kind = "connected"
	KindDisconnected Kind = "disconnected"
	KindError        Kind = "error"
)

// KindUnrecognized is the fallback registration target. Subscribers to it
// receive every inbound envelope whose kind is outside the known set.
const KindUnrecognized Kind = "unrecognized"

var knownKinds = map[Kind]struct{}{
	KindPing:          {},
	KindPingAck:       {},
	KindSubscribe:     {},
	KindNodeStatus:    {},
	KindTunnelStatus:  {},
	KindSessionOpened: {},
	KindSessionClosed: {},
	KindConnected:     {},
	KindDisconnected:  {},
	KindError:         {},
}

// Known reports whether k is part of the closed kind set.
func (k Kind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}

// Envelope is the unit of wire exchange in both directions: a kind tag, an
// opaque payload, and an optional client timestamp in milliseconds. An
// envelope is decoded and dispatched atomically or dropped; there is no
// partial application.
type Envelope struct {
	Kind      Kind            `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// NewEnvelope builds an envelope of the given kind with payload marshalled
// to JSON.
func NewEnvelope(kind Kind, payload any) (Envelope, error) {
	env := Envelope{Kind: kind, Timestamp: time.Now().UnixMilli()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s payload: %w", kind, err)
		}
		env.Payload = data
	}
	return env, nil
}

// pingEnvelope is the keepalive probe. It carries only the client timestamp;
// no matching ping_ack is required for the connection to be considered live.
func pingEnvelope(now time.Time) Envelope {
	return Envelope{Kind: KindPing, Timestamp: now.UnixMilli()}
}

// subscribePayload is the body of the protocol-level subscribe envelope.
type subscribePayload struct {
	NodeID string `json:"node_id"`
}

// statusPayload is the body of locally emitted connected/disconnected/error
// envelopes.
type statusPayload struct {
	Error string `json:"error,omitempty"`
}

// decodeEnvelope parses a raw inbound frame. Frames without a kind tag are
// rejected: there is nothing to dispatch them by.
func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	if env.Kind == "" {
		return Envelope{}, fmt.Errorf("envelope missing type tag")
	}
	return env, nil
}
