// Package remotesvc exposes each remote capability as a typed call over the gateway.
// No logic lives here beyond the choice of method, path and encoding.
package remotesvc

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	gatewaysvc "github.com/trezcool/masomo-console/services/gateway"
)

const (
	pathLogin    = "/auth/login"
	pathRegister = "/auth/register"
)

type AuthClient struct {
	gw *gatewaysvc.Gateway
}

func NewAuthClient(gw *gatewaysvc.Gateway) *AuthClient {
	return &AuthClient{gw: gw}
}

// Login posts form-encoded username/password and returns the access token.
func (c *AuthClient) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	form := url.Values{"username": {username}, "password": {password}}
	if err := c.gw.Form(ctx, pathLogin, form, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", errors.New("login response carries no access token")
	}
	return resp.AccessToken, nil
}

// Register posts a JSON {email, password} body.
func (c *AuthClient) Register(ctx context.Context, email, password string) error {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	return c.gw.Post(ctx, pathRegister, body, nil)
}
