package moderation

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-events/dashboard/internal/listmut"
	"github.com/aura-events/dashboard/internal/middleware"
	"github.com/aura-events/dashboard/pkg/response"
	"github.com/aura-events/dashboard/pkg/storage"
)

// Exporter uploads board snapshots; *storage.Exporter satisfies it.
type Exporter interface {
	Enabled() bool
	Export(ctx context.Context, board, exportedBy string, items any, count int) (*storage.Export, error)
}

// BoardView is a board split the way the admin pages show it.
type BoardView[T any] struct {
	Pending   []T `json:"pending"`
	Processed []T `json:"processed"`
}

// Handler handles the admin moderation endpoints.
type Handler struct {
	organizers *OrganizerBoard
	events     *EventBoard
	exporter   Exporter
	logger     *zap.Logger
}

// NewHandler creates a moderation handler. exporter may be nil.
func NewHandler(organizers *OrganizerBoard, events *EventBoard, exporter Exporter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{organizers: organizers, events: events, exporter: exporter, logger: logger}
}

// ListOrganizers handles GET /api/admin/organizers.
func (h *Handler) ListOrganizers(c *gin.Context) {
	if err := h.organizers.Refresh(c.Request.Context()); err != nil {
		middleware.RespondError(c, err)
		return
	}
	response.OK(c, viewOf(h.organizers.Pending()))
}

// ApproveOrganizer handles POST /api/admin/organizers/:id/approve.
func (h *Handler) ApproveOrganizer(c *gin.Context) {
	h.organizerAction(c, h.organizers.Approve)
}

// RejectOrganizer handles POST /api/admin/organizers/:id/reject.
func (h *Handler) RejectOrganizer(c *gin.Context) {
	h.organizerAction(c, h.organizers.Reject)
}

// DeleteOrganizer handles DELETE /api/admin/organizers/:id.
func (h *Handler) DeleteOrganizer(c *gin.Context) {
	if err := h.organizers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) organizerAction(c *gin.Context, act func(context.Context, string) error) {
	id := c.Param("id")
	if err := act(c.Request.Context(), id); err != nil {
		middleware.RespondError(c, err)
		return
	}
	o, ok := listmut.Find(h.organizers.Items(), id)
	if !ok {
		response.NoContent(c)
		return
	}
	response.OK(c, o)
}

// ListEvents handles GET /api/admin/events.
func (h *Handler) ListEvents(c *gin.Context) {
	if err := h.events.Refresh(c.Request.Context()); err != nil {
		middleware.RespondError(c, err)
		return
	}
	response.OK(c, viewOf(h.events.Pending()))
}

// ApproveEvent handles POST /api/admin/events/:id/approve.
func (h *Handler) ApproveEvent(c *gin.Context) {
	h.eventAction(c, h.events.Approve)
}

// RejectEvent handles POST /api/admin/events/:id/reject.
func (h *Handler) RejectEvent(c *gin.Context) {
	h.eventAction(c, h.events.Reject)
}

func (h *Handler) eventAction(c *gin.Context, act func(context.Context, string) error) {
	id := c.Param("id")
	if err := act(c.Request.Context(), id); err != nil {
		middleware.RespondError(c, err)
		return
	}
	e, ok := listmut.Find(h.events.Items(), id)
	if !ok {
		response.NoContent(c)
		return
	}
	response.OK(c, e)
}

// Export handles POST /api/admin/:board/export: a fresh snapshot of the
// board is uploaded to the export bucket.
func (h *Handler) Export(c *gin.Context) {
	if h.exporter == nil || !h.exporter.Enabled() {
		response.ServiceUnavailable(c, "board export is not configured")
		return
	}
	ctx := c.Request.Context()
	board := c.Param("board")

	var items any
	var count int
	switch board {
	case BoardOrganizers:
		if err := h.organizers.Refresh(ctx); err != nil {
			middleware.RespondError(c, err)
			return
		}
		list := h.organizers.Items()
		items, count = list, len(list)
	case BoardEvents:
		if err := h.events.Refresh(ctx); err != nil {
			middleware.RespondError(c, err)
			return
		}
		list := h.events.Items()
		items, count = list, len(list)
	default:
		response.NotFound(c, "unknown board")
		return
	}

	by := ""
	if s := middleware.SessionFrom(c); s != nil {
		by = s.User.Email
	}
	exp, err := h.exporter.Export(ctx, board, by, items, count)
	if errors.Is(err, storage.ErrExportDisabled) {
		response.ServiceUnavailable(c, "board export is not configured")
		return
	}
	if err != nil {
		h.logger.Error("board export", zap.String("board", board), zap.Error(err))
		response.Internal(c, "export failed")
		return
	}
	response.Created(c, exp)
}

func viewOf[T any](pending, processed []T) BoardView[T] {
	if pending == nil {
		pending = []T{}
	}
	if processed == nil {
		processed = []T{}
	}
	return BoardView[T]{Pending: pending, Processed: processed}
}
