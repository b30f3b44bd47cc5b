package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/perimeterhq/console/internal/channel"
	"github.com/perimeterhq/console/internal/gateway"
)

const (
	writeTimeout = 10 * time.Second
	sendBufSize  = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Dev tool; origins are not enforced.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub tracks connected event-channel clients and broadcasts envelopes to
// all of them.
type hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan channel.Envelope
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// run broadcasts a synthetic node_status envelope every interval until ctx
// is cancelled, then closes all active connections.
func (h *hub) run(ctx context.Context, interval time.Duration, flip func() gateway.Node) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			if h.count() == 0 {
				continue
			}
			env, err := nodeStatusEnvelope(flip())
			if err != nil {
				h.logger.Warn("build node_status envelope", "error", err)
				continue
			}
			h.broadcast(env)
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(env channel.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- env:
		default:
			h.logger.Warn("client send buffer full, dropping envelope")
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// serve upgrades one console connection and pumps envelopes both ways.
func (h *hub) serve(w http.ResponseWriter, r *http.Request, lookup func(string) (gateway.Node, bool)) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}

	c := &wsClient{
		conn: conn,
		send: make(chan channel.Envelope, sendBufSize),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("console connected", "remote", r.RemoteAddr)

	go h.writeLoop(c)
	h.readLoop(c, lookup)

	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	conn.Close()

	h.logger.Info("console disconnected", "remote", r.RemoteAddr)
}

func (h *hub) writeLoop(c *wsClient) {
	for env := range c.send {
		data, err := json.Marshal(env)
		if err != nil {
			h.logger.Warn("marshal envelope", "error", err)
			continue
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	// Hub shut down: say goodbye cleanly.
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
}

// readLoop answers inbound envelopes: ping gets a ping_ack echoing the
// client timestamp, subscribe gets an immediate node_status for the
// requested node. Anything else is logged and ignored.
func (h *hub) readLoop(c *wsClient, lookup func(string) (gateway.Node, bool)) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env channel.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.logger.Warn("undecodable inbound frame", "error", err)
			continue
		}

		switch env.Kind {
		case channel.KindPing:
			ack, err := channel.NewEnvelope(channel.KindPingAck, map[string]int64{"echo_ts": env.Timestamp})
			if err == nil {
				h.offer(c, ack)
			}

		case channel.KindSubscribe:
			var req struct {
				NodeID string `json:"node_id"`
			}
			if err := json.Unmarshal(env.Payload, &req); err != nil {
				h.logger.Warn("bad subscribe payload", "error", err)
				continue
			}
			node, ok := lookup(req.NodeID)
			if !ok {
				h.logger.Warn("subscribe for unknown node", "node", req.NodeID)
				continue
			}
			if status, err := nodeStatusEnvelope(node); err == nil {
				h.offer(c, status)
			}

		default:
			h.logger.Debug("ignoring inbound envelope", "kind", env.Kind)
		}
	}
}

func (h *hub) offer(c *wsClient, env channel.Envelope) {
	select {
	case c.send <- env:
	default:
		h.logger.Warn("client send buffer full, dropping envelope", "kind", env.Kind)
	}
}

func nodeStatusEnvelope(n gateway.Node) (channel.Envelope, error) {
	return channel.NewEnvelope(channel.KindNodeStatus, map[string]any{
		"node_id": n.ID,
		"name":    n.Name,
		"online":  n.Online,
	})
}
