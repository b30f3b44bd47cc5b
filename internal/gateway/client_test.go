package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_ListNodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/nodes" {
			t.Errorf("path = %s, want /api/v1/nodes", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok1" {
			t.Errorf("Authorization = %q, want Bearer tok1", auth)
		}
		json.NewEncoder(w).Encode(nodesResponse{Nodes: []Node{
			{ID: "n1", Name: "desk-01", Online: true},
			{ID: "n2", Name: "desk-02", Online: false},
		}})
	}))
	defer server.Close()

	c := NewClient(server.URL, StaticTokenSource("tok1"))
	nodes, err := c.ListNodes(context.Background())
	if err != nil {
		t.Fatalf("ListNodes failed: %v", err)
	}

	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(nodes))
	}
	if nodes[0].ID != "n1" || !nodes[0].Online {
		t.Errorf("nodes[0] = %+v, want n1 online", nodes[0])
	}
	if nodes[1].Online {
		t.Errorf("nodes[1] should be offline")
	}
}

func TestClient_GrantAccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/v1/nodes/n1/access" {
			t.Errorf("path = %s, want /api/v1/nodes/n1/access", r.URL.Path)
		}

		var req grantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Protocol != "rdp" {
			t.Errorf("protocol = %q, want rdp", req.Protocol)
		}

		json.NewEncoder(w).Encode(AccessGrant{
			URL:      "https://hub.example.com/session/abc123",
			Protocol: "rdp",
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, StaticTokenSource("tok1"))
	grant, err := c.GrantAccess(context.Background(), "n1", "rdp")
	if err != nil {
		t.Fatalf("GrantAccess failed: %v", err)
	}
	if grant.URL != "https://hub.example.com/session/abc123" {
		t.Errorf("URL = %q", grant.URL)
	}
}

func TestClient_UserCRUD(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /api/v1/users":
			json.NewEncoder(w).Encode(usersResponse{Users: []User{{ID: "u1", Username: "ops"}}})
		case "POST /api/v1/users":
			var u User
			json.NewDecoder(r.Body).Decode(&u)
			u.ID = "u2"
			json.NewEncoder(w).Encode(u)
		case "PUT /api/v1/users/u2":
			var u User
			json.NewDecoder(r.Body).Decode(&u)
			json.NewEncoder(w).Encode(u)
		case "DELETE /api/v1/users/u2":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, StaticTokenSource("tok1"))
	ctx := context.Background()

	users, err := c.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].Username != "ops" {
		t.Errorf("users = %+v", users)
	}

	created, err := c.CreateUser(ctx, User{Username: "audit", Role: "viewer"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if created.ID != "u2" {
		t.Errorf("created.ID = %q, want u2", created.ID)
	}

	created.Role = "admin"
	updated, err := c.UpdateUser(ctx, created)
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if updated.Role != "admin" {
		t.Errorf("updated.Role = %q, want admin", updated.Role)
	}

	if err := c.DeleteUser(ctx, "u2"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
}

func TestClient_UpdateUserRequiresID(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", StaticTokenSource("tok1"))
	if _, err := c.UpdateUser(context.Background(), User{Username: "noid"}); err == nil {
		t.Error("expected error for user without id")
	}
}

func TestClient_TunnelsDashboard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tunnels" {
			t.Errorf("path = %s, want /api/v1/tunnels", r.URL.Path)
		}
		json.NewEncoder(w).Encode(tunnelsResponse{Tunnels: []TunnelRow{
			{NodeID: "n1", NodeName: "desk-01", Websocket: TunnelState{Up: true}, SSH: TunnelState{Up: false}},
		}})
	}))
	defer server.Close()

	c := NewClient(server.URL, StaticTokenSource("tok1"))
	rows, err := c.TunnelsDashboard(context.Background())
	if err != nil {
		t.Fatalf("TunnelsDashboard failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if !rows[0].Websocket.Up || rows[0].SSH.Up {
		t.Errorf("rows[0] = %+v, want websocket up / ssh down", rows[0])
	}
}

func TestClient_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(HubHealth{Status: "ok"})
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, WithRetries(3, 5*time.Millisecond))
	health, err := c.HubHealth(context.Background())
	if err != nil {
		t.Fatalf("HubHealth failed: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("Status = %q, want ok", health.Status)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server saw %d calls, want 3", n)
	}
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, WithRetries(3, 5*time.Millisecond))
	_, err := c.ListNodes(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d calls, want 1 (401 is not retryable)", n)
	}
}

func TestTokenSources(t *testing.T) {
	if _, err := StaticTokenSource("").Token(); err == nil {
		t.Error("empty static token should error")
	}

	tok, err := StaticTokenSource("abc").Token()
	if err != nil || tok != "abc" {
		t.Errorf("Token() = %q, %v", tok, err)
	}

	t.Setenv("CONSOLE_TEST_TOKEN", "fromenv")
	tok, err = EnvTokenSource("CONSOLE_TEST_TOKEN").Token()
	if err != nil || tok != "fromenv" {
		t.Errorf("Token() = %q, %v", tok, err)
	}

	t.Setenv("CONSOLE_TEST_TOKEN", "")
	if _, err := EnvTokenSource("CONSOLE_TEST_TOKEN").Token(); err == nil {
		t.Error("empty env token should error")
	}
}
