package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aura-events/dashboard/internal/rolegate"
	"github.com/aura-events/dashboard/internal/session"
	"github.com/aura-events/dashboard/pkg/response"
)

// ContextSession is the key for the operator session in gin context.
const ContextSession = "session"

// Sessions yields the current session; *auth.Client satisfies it.
type Sessions interface {
	Current(ctx context.Context) *session.Session
}

// LoadSession puts the current session, if any, in the gin context.
func LoadSession(sessions Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s := sessions.Current(c.Request.Context()); s != nil {
			c.Set(ContextSession, s)
		}
		c.Next()
	}
}

// SessionFrom returns the session stored by LoadSession, or nil.
func SessionFrom(c *gin.Context) *session.Session {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}

// RequireSession rejects requests without a session with 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rolegate.IsAuthenticated(SessionFrom(c)) {
			response.Fail(c, http.StatusUnauthorized, response.Body{
				Error:    rolegate.Decision{Denial: rolegate.DenialUnauthenticated}.Message(),
				Code:     string(rolegate.DenialUnauthenticated),
				Redirect: rolegate.RouteLogin,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAction lets the request through only if the gate allows action:
// 401 when not logged in, 403 with the denial code otherwise.
func RequireAction(action rolegate.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := rolegate.CanPerformSession(SessionFrom(c), action)
		if d.Allowed {
			c.Next()
			return
		}
		body := response.Body{Error: d.Message(), Code: string(d.Denial)}
		if !d.Authenticated() {
			body.Redirect = rolegate.RouteLogin
		}
		response.Fail(c, DenialStatus(d.Denial), body)
		c.Abort()
	}
}

// DenialStatus is the HTTP status answering a gate denial.
func DenialStatus(d rolegate.Denial) int {
	if d == rolegate.DenialUnauthenticated {
		return http.StatusUnauthorized
	}
	return http.StatusForbidden
}
