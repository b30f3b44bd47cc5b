package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type usersResponse struct {
	Users []User `json:"users"`
}

// ListUsers fetches all console accounts.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var resp usersResponse
	if err := c.get(ctx, "/api/v1/users", &resp); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return resp.Users, nil
}

// CreateUser creates a console account and returns it with the
// server-assigned ID.
func (c *Client) CreateUser(ctx context.Context, u User) (User, error) {
	var created User
	if err := c.send(ctx, http.MethodPost, "/api/v1/users", u, &created); err != nil {
		return User{}, fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return created, nil
}

// UpdateUser replaces the account identified by u.ID.
func (c *Client) UpdateUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		return User{}, fmt.Errorf("update user: missing id")
	}

	var updated User
	path := "/api/v1/users/" + url.PathEscape(u.ID)
	if err := c.send(ctx, http.MethodPut, path, u, &updated); err != nil {
		return User{}, fmt.Errorf("update user %s: %w", u.ID, err)
	}
	return updated, nil
}

// DeleteUser removes the account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	path := "/api/v1/users/" + url.PathEscape(id)
	if err := c.send(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}
