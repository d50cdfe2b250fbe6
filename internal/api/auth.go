package api

import (
	"context"
	"net/http"

	"github.com/neointegratech/portal-client/internal/domain/model"
)

// AuthAPI wraps the auth collaborator endpoints.
type AuthAPI struct {
	c *Client
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Password    string `json:"password"`
}

// TokenResponse is the auth collaborator's token grant.
type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type,omitempty"`
	User        *model.User `json:"user,omitempty"`
}

// Login exchanges credentials for a bearer token. A 401 here means wrong
// credentials, not an expired session.
func (a *AuthAPI) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var out TokenResponse
	if err := a.c.do(ctx, http.MethodPost, "/auth/login", nil, req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new account. It does not log the caller in.
func (a *AuthAPI) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	var out TokenResponse
	if err := a.c.do(ctx, http.MethodPost, "/auth/register", nil, req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the profile of the token's owner.
func (a *AuthAPI) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := a.c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}
