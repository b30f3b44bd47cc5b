package gateway

import (
	"context"
	"time"
)

// Node is one managed endpoint behind the gateway.
type Node struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen,omitzero"`
}

// AccessGrant is the one-time access URL returned by a per-node
// per-protocol grant request.
type AccessGrant struct {
	URL       string    `json:"url"`
	Protocol  string    `json:"protocol"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// HubHealth is the remote-access hub's health probe response.
type HubHealth struct {
	Status  string `json:"status"` // "ok" or "degraded"
	Version string `json:"version,omitempty"`
}

// User is a console account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
}

// TunnelState describes one tunnel leg of a node.
type TunnelState struct {
	Up      bool      `json:"up"`
	Since   time.Time `json:"since,omitzero"`
	Latency int64     `json:"latency_ms,omitempty"`
}

// TunnelRow is one row of the aggregated tunnels dashboard: a node crossed
// with its websocket-tunnel and SSH-tunnel status.
type TunnelRow struct {
	NodeID    string      `json:"node_id"`
	NodeName  string      `json:"node_name"`
	Websocket TunnelState `json:"websocket"`
	SSH       TunnelState `json:"ssh"`
}

// NodeDirectory lists nodes and issues access grants. Pages depend on this
// interface rather than the concrete client.
type NodeDirectory interface {
	ListNodes(ctx context.Context) ([]Node, error)
	GrantAccess(ctx context.Context, nodeID, protocol string) (AccessGrant, error)
}

// UserDirectory is full CRUD on console accounts.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	UpdateUser(ctx context.Context, u User) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// TunnelInventory serves the aggregated tunnels dashboard.
type TunnelInventory interface {
	TunnelsDashboard(ctx context.Context) ([]TunnelRow, error)
}

// HealthProber checks the remote-access hub.
type HealthProber interface {
	HubHealth(ctx context.Context) (HubHealth, error)
}
