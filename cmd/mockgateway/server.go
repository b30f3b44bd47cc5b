package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/perimeterhq/console/internal/channel"
	"github.com/perimeterhq/console/internal/gateway"
)

// server holds the mock gateway's in-memory inventory.
type server struct {
	token  string
	logger *slog.Logger
	hub    *hub

	mu    sync.Mutex
	nodes []gateway.Node
	users map[string]gateway.User
}

func newServer(token string, logger *slog.Logger) *server {
	s := &server{
		token:  token,
		logger: logger,
		hub:    newHub(logger),
		nodes: []gateway.Node{
			{ID: "n1", Name: "desk-01", Address: "10.0.0.11", Online: true, LastSeen: time.Now()},
			{ID: "n2", Name: "desk-02", Address: "10.0.0.12", Online: true, LastSeen: time.Now()},
			{ID: "n3", Name: "lab-bastion", Address: "10.0.1.2", Online: false},
		},
		users: map[string]gateway.User{
			"u1": {ID: "u1", Username: "admin", Role: "admin"},
		},
	}
	return s
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authenticate)
	api.HandleFunc("/nodes", s.handleListNodes).Methods(http.MethodGet)
	api.HandleFunc("/nodes/{id}/access", s.handleGrantAccess).Methods(http.MethodPost)
	api.HandleFunc("/hub/health", s.handleHubHealth).Methods(http.MethodGet)
	api.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users", s.handleCreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", s.handleUpdateUser).Methods(http.MethodPut)
	api.HandleFunc("/users/{id}", s.handleDeleteUser).Methods(http.MethodDelete)
	api.HandleFunc("/tunnels", s.handleTunnels).Methods(http.MethodGet)

	// The channel authenticates via query parameter, not header.
	r.HandleFunc(channel.EventPath, s.handleEvents).Methods(http.MethodGet)

	return r
}

// authenticate checks the bearer token on REST routes.
func (s *server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response failed", "error", err)
	}
}

func (s *server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	nodes := make([]gateway.Node, len(s.nodes))
	copy(nodes, s.nodes)
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string][]gateway.Node{"nodes": nodes})
}

func (s *server) handleGrantAccess(w http.ResponseWriter, r *http.Request) {
	nodeID := mux.Vars(r)["id"]

	var req struct {
		Protocol string `json:"protocol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Protocol == "" {
		http.Error(w, "missing protocol", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	var found bool
	for _, n := range s.nodes {
		if n.ID == nodeID {
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		http.Error(w, "unknown node", http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, gateway.AccessGrant{
		URL:       "https://hub.local/session/" + uuid.NewString(),
		Protocol:  req.Protocol,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	})
}

func (s *server) handleHubHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, gateway.HubHealth{Status: "ok", Version: "mock"})
}

func (s *server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := make([]gateway.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string][]gateway.User{"users": users})
}

func (s *server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var u gateway.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil || u.Username == "" {
		http.Error(w, "missing username", http.StatusBadRequest)
		return
	}

	u.ID = uuid.NewString()
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()

	s.writeJSON(w, http.StatusCreated, u)
}

func (s *server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var u gateway.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	u.ID = id

	s.mu.Lock()
	_, ok := s.users[id]
	if ok {
		s.users[id] = u
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "unknown user", http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, u)
}

func (s *server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	_, ok := s.users[id]
	delete(s.users, id)
	s.mu.Unlock()
	if !ok {
		http.Error(w, "unknown user", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleTunnels(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rows := make([]gateway.TunnelRow, 0, len(s.nodes))
	for _, n := range s.nodes {
		rows = append(rows, gateway.TunnelRow{
			NodeID:    n.ID,
			NodeName:  n.Name,
			Websocket: gateway.TunnelState{Up: n.Online, Since: n.LastSeen},
			SSH:       gateway.TunnelState{Up: n.Online, Since: n.LastSeen, Latency: 12},
		})
	}
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string][]gateway.TunnelRow{"tunnels": rows})
}

// handleEvents upgrades the event channel connection.
func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") != s.token {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	s.hub.serve(w, r, s.nodeStatus)
}

// nodeStatus returns the current status envelope payload for a node, or
// false when the node is unknown.
func (s *server) nodeStatus(nodeID string) (gateway.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.nodes {
		if n.ID == nodeID {
			return n, true
		}
	}
	return gateway.Node{}, false
}

// flipNode toggles one node's online flag and returns its fresh status, so
// connected consoles see churn.
func (s *server) flipNode() gateway.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := &s.nodes[time.Now().Unix()%int64(len(s.nodes))]
	n.Online = !n.Online
	if n.Online {
		n.LastSeen = time.Now()
	}
	return *n
}
