package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/qrchalets/chalets/internal/models"
)

type userEnvelope struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Login authenticates with the backend. The session token is taken from the
// session Set-Cookie of the response, or from a "token" field in the body.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", models.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, "", err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	var env userEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, "", fmt.Errorf("invalid response: %w", err)
	}

	token := env.Token
	for _, ck := range resp.Cookies() {
		if ck.Name == c.cookieName() && ck.Value != "" {
			token = ck.Value
		}
	}
	if token == "" {
		return nil, "", fmt.Errorf("login succeeded without a session token")
	}
	if env.User == nil {
		env.User = &models.User{Email: email}
	}
	return env.User, token, nil
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Me returns the user owning the current session.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var env userEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, fmt.Errorf("invalid response: missing user")
	}
	return env.User, nil
}
