package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type nodesResponse struct {
	Nodes []Node `json:"nodes"`
}

type grantRequest struct {
	Protocol string `json:"protocol"`
}

// ListNodes fetches all nodes with their online/offline status.
func (c *Client) ListNodes(ctx context.Context) ([]Node, error) {
	var resp nodesResponse
	if err := c.get(ctx, "/api/v1/nodes", &resp); err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return resp.Nodes, nil
}

// GrantAccess requests a one-time access URL for the given node and
// protocol (e.g. "rdp", "vnc", "ssh").
func (c *Client) GrantAccess(ctx context.Context, nodeID, protocol string) (AccessGrant, error) {
	path := "/api/v1/nodes/" + url.PathEscape(nodeID) + "/access"

	var grant AccessGrant
	if err := c.send(ctx, http.MethodPost, path, grantRequest{Protocol: protocol}, &grant); err != nil {
		return AccessGrant{}, fmt.Errorf("grant access to %s: %w", nodeID, err)
	}
	return grant, nil
}

// HubHealth probes the remote-access hub.
func (c *Client) HubHealth(ctx context.Context) (HubHealth, error) {
	var health HubHealth
	if err := c.get(ctx, "/api/v1/hub/health", &health); err != nil {
		return HubHealth{}, fmt.Errorf("hub health: %w", err)
	}
	return health, nil
}
