// Package events serves the public event list, organizer submissions and
// attendee bookings.
package events

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-events/dashboard/internal/apiclient"
	"github.com/aura-events/dashboard/internal/middleware"
	"github.com/aura-events/dashboard/internal/models"
	"github.com/aura-events/dashboard/internal/moderation"
	"github.com/aura-events/dashboard/pkg/response"
)

// CreateRequest is the body for POST /api/events.
type CreateRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Date        string  `json:"date" binding:"required"`
	Location    string  `json:"location"`
	Price       float64 `json:"price" binding:"gte=0"`
	TotalSeats  int     `json:"total_seats" binding:"required,gt=0"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	api      *apiclient.Client
	notifier moderation.Notifier
	logger   *zap.Logger
}

// NewHandler creates an event handler. notifier may be nil.
func NewHandler(api *apiclient.Client, notifier moderation.Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{api: api, notifier: notifier, logger: logger}
}

// List handles GET /api/events: approved events, optionally only those
// with seats left (?available=true).
func (h *Handler) List(c *gin.Context) {
	list, err := h.api.ListEvents(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if c.Query("available") == "true" {
		open := list[:0]
		for _, e := range list {
			if !e.SoldOut() {
				open = append(open, e)
			}
		}
		list = open
	}
	response.OK(c, list)
}

// ListOwn handles GET /api/organizer/events.
func (h *Handler) ListOwn(c *gin.Context) {
	list, err := h.api.ListOrganizerEvents(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	response.OK(c, list)
}

// Create handles POST /api/events (approved organizers). New events wait
// for admin approval.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		response.BadRequest(c, "title is required")
		return
	}
	date, err := models.ParseTime(req.Date)
	if err != nil {
		response.BadRequest(c, "invalid date")
		return
	}
	sess := middleware.SessionFrom(c)

	out, err := h.api.CreateEvent(c.Request.Context(), models.CreateEventRequest{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Date:           models.NewTime(date),
		Location:       req.Location,
		Price:          req.Price,
		OrganizerEmail: sess.User.Email,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	h.logger.Info("event submitted", zap.String("event_id", out.EventID), zap.String("organizer", sess.User.Email))
	if h.notifier != nil {
		h.notifier.Publish(moderation.BoardEvents, "submitted", moderation.BoardChange{
			ID:     out.EventID,
			Status: models.StatusPending,
			At:     time.Now().UTC(),
		})
	}
	response.Created(c, out)
}

// Book handles POST /api/events/:id/book for the logged-in user.
func (h *Handler) Book(c *gin.Context) {
	id := c.Param("id")
	sess := middleware.SessionFrom(c)
	out, err := h.api.Book(c.Request.Context(), models.Booking{UserEmail: sess.User.Email, EventID: id})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	h.logger.Info("event booked", zap.String("event_id", id), zap.String("user", sess.User.Email))
	response.OK(c, out)
}
