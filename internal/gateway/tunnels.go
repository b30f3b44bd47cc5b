package gateway

import (
	"context"
	"fmt"
)

type tunnelsResponse struct {
	Tunnels []TunnelRow `json:"tunnels"`
}

// TunnelsDashboard fetches the aggregated tunnel inventory: every node
// crossed with the state of its websocket and SSH tunnels.
func (c *Client) TunnelsDashboard(ctx context.Context) ([]TunnelRow, error) {
	var resp tunnelsResponse
	if err := c.get(ctx, "/api/v1/tunnels", &resp); err != nil {
		return nil, fmt.Errorf("tunnels dashboard: %w", err)
	}
	return resp.Tunnels, nil
}
