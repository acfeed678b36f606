package apiclient

import (
	"context"
	"net/http"

	"github.com/aura-events/dashboard/internal/models"
)

// LoginResponse is the API answer to POST /auth/login.
type LoginResponse struct {
	ID          string        `json:"id"`
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	UserRole    models.Role   `json:"user_role"`
	UserStatus  models.Status `json:"user_status"`
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Password string      `json:"password"`
	Role     models.Role `json:"role,omitempty"`
}

// RegisterResponse is the API answer to POST /auth/register.
type RegisterResponse struct {
	Message string        `json:"message"`
	UserID  string        `json:"user_id"`
	Status  models.Status `json:"status,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token. A 401 is reported as an auth
// error with ReasonInvalidCredentials, a 403 as ReasonNotApproved.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   credentials{Email: email, Password: password},
	}, &out)
	if err != nil {
		if e, ok := err.(*Error); ok {
			switch e.Status {
			case http.StatusUnauthorized:
				e.Reason = ReasonInvalidCredentials
			case http.StatusForbidden:
				e.Kind, e.Reason = KindAuth, ReasonNotApproved
			}
		}
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &Error{Kind: KindUnexpected, Status: http.StatusOK, Message: "login response without access_token"}
	}
	return &out, nil
}

// Register creates an account. It does not log the new user in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser returns the profile record of a user.
func (c *Client) GetUser(ctx context.Context, id string) (*models.UserDetails, error) {
	var out models.UserDetails
	if err := c.do(ctx, request{method: http.MethodGet, path: "/events/users/" + pathEscape(id), authed: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
