// Package auth performs credential exchange and owns the session lifecycle.
package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aura-events/dashboard/internal/apiclient"
	"github.com/aura-events/dashboard/internal/models"
	"github.com/aura-events/dashboard/internal/rolegate"
	"github.com/aura-events/dashboard/internal/session"
)

// RedirectFunc sends the user to route, e.g. the login page after a forced logout.
type RedirectFunc func(route string)

// Client logs users in and out against the API and keeps the Session Store
// in step. It never retries a failed request.
type Client struct {
	api    *apiclient.Client
	store  session.Store
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	redirect RedirectFunc
}

// NewClient creates an auth client and installs it as the API client's
// handler for 401 answers, so any rejected token ends the session.
func NewClient(api *apiclient.Client, store session.Store, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{api: api, store: store, logger: logger, now: time.Now}
	api.SetUnauthorizedHandler(c.ForceLogout)
	return c
}

// SetRedirectHandler sets the callback invoked with the login route after a forced logout.
func (c *Client) SetRedirectHandler(fn RedirectFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.redirect = fn
}

// Store returns the session store the client writes to.
func (c *Client) Store() session.Store { return c.store }

// Login exchanges credentials and persists the resulting session. The full
// name is not part of the login answer and is left empty; see RefreshProfile.
// On any failure the store is left untouched.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &apiclient.Error{Kind: apiclient.KindValidation, Message: "email and password are required"}
	}
	resp, err := c.api.Login(ctx, email, password)
	if err != nil {
		c.logger.Info("login failed", zap.String("email", email), zap.String("kind", string(apiclient.KindOf(err))))
		return nil, err
	}
	// The caller went away while the request was in flight.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess := session.Session{
		Token: resp.AccessToken,
		User: models.User{
			ID:     resp.ID,
			Email:  email,
			Role:   resp.UserRole,
			Status: resp.UserStatus,
		},
	}
	if sess.User.Role != models.RoleOrganizer {
		sess.User.Status = ""
	}
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	c.logger.Info("logged in", zap.String("email", email), zap.String("role", string(sess.User.Role)))
	return &sess, nil
}

// Register creates an account. A successful registration does not log the
// user in; the caller must call Login separately.
func (c *Client) Register(ctx context.Context, req apiclient.RegisterRequest) (*apiclient.RegisterResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		return nil, &apiclient.Error{Kind: apiclient.KindValidation, Message: "email, full name and password are required"}
	}
	if req.Role != "" && !req.Role.Valid() {
		return nil, &apiclient.Error{Kind: apiclient.KindValidation, Message: fmt.Sprintf("unknown role %q", req.Role)}
	}
	resp, err := c.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	c.logger.Info("registered", zap.String("email", req.Email), zap.String("role", string(req.Role)))
	return resp, nil
}

// Logout clears the session. It has no network effect and is idempotent.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Current returns the stored session, or nil. A session whose JWT has
// expired is cleared rather than returned.
func (c *Client) Current(ctx context.Context) *session.Session {
	sess := c.store.Load(ctx)
	if sess == nil {
		return nil
	}
	if Expired(sess.Token, c.now()) {
		c.logger.Info("session expired", zap.String("email", sess.User.Email))
		if err := c.store.Clear(ctx); err != nil {
			c.logger.Warn("clear expired session", zap.Error(err))
		}
		return nil
	}
	return sess
}

// RefreshProfile fetches the user's profile to fill in the full name and
// the current moderation status. The role is never changed.
func (c *Client) RefreshProfile(ctx context.Context) (*session.Session, error) {
	sess := c.Current(ctx)
	if sess == nil {
		return nil, &apiclient.Error{Kind: apiclient.KindAuth, Reason: apiclient.ReasonSessionExpired, Message: "not logged in"}
	}
	if sess.User.ID == "" {
		return sess, nil
	}
	details, err := c.api.GetUser(ctx, sess.User.ID)
	if err != nil {
		return nil, err
	}
	if details.Role != "" && details.Role != sess.User.Role {
		c.logger.Warn("profile role differs from session role; keeping session role",
			zap.String("session_role", string(sess.User.Role)),
			zap.String("profile_role", string(details.Role)),
		)
	}
	updated := *sess
	updated.User.FullName = details.FullName
	if updated.User.Role == models.RoleOrganizer && details.Status != "" {
		updated.User.Status = details.Status
	}
	// Another login or logout happened meanwhile; do not overwrite it.
	if cur := c.store.Load(ctx); cur == nil || cur.Token != sess.Token {
		return cur, nil
	}
	if err := c.store.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &updated, nil
}

// ForceLogout ends the session after an authorization failure anywhere in
// the app and redirects to the login route.
func (c *Client) ForceLogout(ctx context.Context, cause error) {
	c.logger.Warn("forced logout", zap.Error(cause))
	// The request context may already be cancelled; clearing must still happen.
	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		c.logger.Error("clear session on forced logout", zap.Error(err))
	}
	c.mu.RLock()
	fn := c.redirect
	c.mu.RUnlock()
	if fn != nil {
		fn(rolegate.RouteLogin)
	}
}
