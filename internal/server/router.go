// Package server assembles the dashboard HTTP API.
package server

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-events/dashboard/internal/apiclient"
	"github.com/aura-events/dashboard/internal/auth"
	"github.com/aura-events/dashboard/internal/events"
	"github.com/aura-events/dashboard/internal/middleware"
	"github.com/aura-events/dashboard/internal/moderation"
	"github.com/aura-events/dashboard/internal/realtime"
	"github.com/aura-events/dashboard/internal/rolegate"
	"github.com/aura-events/dashboard/pkg/response"
)

// Deps are the components the router serves.
type Deps struct {
	API        *apiclient.Client
	Auth       *auth.Client
	Hub        *realtime.Hub
	Organizers *moderation.OrganizerBoard
	Events     *moderation.EventBoard
	Exporter   moderation.Exporter // optional

	CORSAllowedOrigins []string
	LoginRPS           float64
	LoginBurst         int
	Logger             *zap.Logger
}

// NewRouter builds the gin engine. ctx bounds background work such as
// the rate limiter's cleanup.
func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// A forced logout tells every open board to go back to the login page.
	d.Auth.SetRedirectHandler(func(route string) {
		for _, board := range []string{moderation.BoardOrganizers, moderation.BoardEvents} {
			d.Hub.Publish(board, "logged_out", gin.H{"redirect": route})
		}
	})

	authHandler := auth.NewHandler(d.Auth, logger)
	eventHandler := events.NewHandler(d.API, d.Hub, logger)
	moderationHandler := moderation.NewHandler(d.Organizers, d.Events, d.Exporter, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(d.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.LoadSession(d.Auth))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	loginLimit := middleware.RateLimit(ctx, d.LoginRPS, d.LoginBurst)
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/login", loginLimit, authHandler.Login)
		authGroup.POST("/register", loginLimit, authHandler.Register)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/session", authHandler.Session)
		authGroup.POST("/profile/refresh", middleware.RequireSession(), authHandler.RefreshProfile)
	}

	api := router.Group("/api")
	{
		api.GET("/events", eventHandler.List)
		api.POST("/events", middleware.RequireAction(rolegate.ActionCreateEvent), eventHandler.Create)
		api.POST("/events/:id/book", middleware.RequireAction(rolegate.ActionBookEvent), eventHandler.Book)
		api.GET("/organizer/events", middleware.RequireAction(rolegate.ActionCreateEvent), eventHandler.ListOwn)
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.RequireAction(rolegate.ActionApproveEntity))
	{
		admin.GET("/organizers", moderationHandler.ListOrganizers)
		admin.POST("/organizers/:id/approve", moderationHandler.ApproveOrganizer)
		admin.POST("/organizers/:id/reject", moderationHandler.RejectOrganizer)
		admin.DELETE("/organizers/:id", moderationHandler.DeleteOrganizer)
		admin.GET("/events", moderationHandler.ListEvents)
		admin.POST("/events/:id/approve", moderationHandler.ApproveEvent)
		admin.POST("/events/:id/reject", moderationHandler.RejectEvent)
		admin.POST("/exports/:board", moderationHandler.Export)
	}

	// WebSocket of board changes (admin session required)
	viewer := func(c *gin.Context) string {
		if s := middleware.SessionFrom(c); s != nil {
			return s.User.Email
		}
		return ""
	}
	router.GET("/ws",
		middleware.RequireAction(rolegate.ActionApproveEntity),
		realtime.ServeWs(d.Hub, realtime.NewUpgrader(d.CORSAllowedOrigins), logger, viewer, moderation.BoardOrganizers, moderation.BoardEvents),
	)

	return router
}
