package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// socket wraps one websocket connection generation. The Manager creates a
// fresh socket for every attempt and never reuses one across reconnects.
type socket struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	// Write serialization
	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

// dialSocket opens a websocket connection to endpoint. The bearer token is
// already part of the endpoint's query string; no headers are required.
func dialSocket(ctx context.Context, endpoint string, p Policy) (*socket, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: p.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	return &socket{
		conn:         conn,
		writeTimeout: p.WriteTimeout,
	}, nil
}

// readFrame blocks until the next text frame arrives or the connection
// fails.
func (s *socket) readFrame() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

// writeEnvelope marshals env and writes it as a single text frame.
func (s *socket) writeEnvelope(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// close sends a close frame and tears down the connection. Safe to call
// more than once.
func (s *socket) close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return s.conn.Close()
}
