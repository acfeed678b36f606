package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-events/dashboard/internal/apiclient"
	"github.com/aura-events/dashboard/internal/middleware"
	"github.com/aura-events/dashboard/internal/models"
	"github.com/aura-events/dashboard/internal/rolegate"
	"github.com/aura-events/dashboard/internal/session"
	"github.com/aura-events/dashboard/pkg/response"
)

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	Email    string      `json:"email" binding:"required"`
	FullName string      `json:"full_name" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role"`
}

// SessionView is what the UI learns about the operator session. The
// token stays server-side.
type SessionView struct {
	Authenticated bool                     `json:"authenticated"`
	User          *models.User             `json:"user,omitempty"`
	LandingRoute  string                   `json:"landing_route"`
	Permissions   map[rolegate.Action]bool `json:"permissions"`
}

var gatedActions = []rolegate.Action{
	rolegate.ActionCreateEvent,
	rolegate.ActionApproveEntity,
	rolegate.ActionBookEvent,
}

// ViewOf describes s for the UI; s may be nil.
func ViewOf(s *session.Session) SessionView {
	v := SessionView{
		Authenticated: rolegate.IsAuthenticated(s),
		LandingRoute:  rolegate.RoutePublicHome,
		Permissions:   make(map[rolegate.Action]bool, len(gatedActions)),
	}
	for _, a := range gatedActions {
		v.Permissions[a] = rolegate.CanPerformSession(s, a).Allowed
	}
	if v.Authenticated {
		u := s.User
		v.User = &u
		v.LandingRoute = rolegate.LandingRouteFor(&u)
	}
	return v
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	client *Client
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(client *Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, logger: logger}
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email and password are required")
		return
	}
	sess, err := h.client.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	response.OK(c, ViewOf(sess))
}

// Register handles POST /api/auth/register. It never logs the new account in.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email, full_name and password are required")
		return
	}
	out, err := h.client.Register(c.Request.Context(), apiclient.RegisterRequest{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	response.Created(c, out)
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.client.Logout(c.Request.Context()); err != nil {
		h.logger.Error("logout", zap.Error(err))
		response.Internal(c, "failed to clear session")
		return
	}
	response.OK(c, ViewOf(nil))
}

// Session handles GET /api/auth/session.
func (h *Handler) Session(c *gin.Context) {
	response.OK(c, ViewOf(middleware.SessionFrom(c)))
}

// RefreshProfile handles POST /api/auth/profile/refresh.
func (h *Handler) RefreshProfile(c *gin.Context) {
	sess, err := h.client.RefreshProfile(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	response.OK(c, ViewOf(sess))
}
